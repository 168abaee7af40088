package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"nhooyr.io/websocket"
)

// maxHTTPBody caps a single JSON-RPC request body, matching the stdio
// transport's line buffer.
const maxHTTPBody = 4 * 1024 * 1024

// HTTPTransport serves the MCP protocol over HTTP as an alternative to
// stdio:
//
//	POST /mcp     one JSON-RPC 2.0 request per body
//	GET  /mcp/ws  WebSocket carrying JSON-RPC frames, one per message
//	GET  /health  connection state; 200 when connected, 503 degraded
type HTTPTransport struct {
	server *Server
	addr   string
	status func() (healthy bool, detail interface{})
	logger *log.Logger

	httpServer *http.Server
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHealthStatus supplies the probe behind GET /health. Without it the
// endpoint always reports healthy.
func WithHealthStatus(fn func() (bool, interface{})) HTTPOption {
	return func(t *HTTPTransport) { t.status = fn }
}

// NewHTTPTransport constructs an HTTPTransport listening on addr.
func NewHTTPTransport(srv *Server, addr string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		server: srv,
		addr:   addr,
		logger: log.New(os.Stderr, "arango-mcp: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Serve runs the HTTP listener until ctx is cancelled or the listener
// fails.
func (t *HTTPTransport) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/mcp", t.handleMCP)
	mux.HandleFunc("/mcp/ws", t.handleWS)

	t.httpServer = &http.Server{
		Addr:              t.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		t.logger.Printf("http transport listening on %s", t.addr)
		errCh <- t.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listener: %w", err)
	}
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	healthy := true
	var detail interface{}
	if t.status != nil {
		healthy, detail = t.status()
	}

	w.Header().Set("Content-Type", "application/json")
	code := http.StatusOK
	status := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"detail": detail,
	})
}

func (t *HTTPTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxHTTPBody))
	if err != nil {
		http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
		return
	}

	resp, err := t.server.HandleRequest(r.Context(), body)
	if err != nil {
		t.logger.Printf("handler error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

func (t *HTTPTransport) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		t.logger.Printf("websocket accept: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "server closing")

	c.SetReadLimit(maxHTTPBody)
	ctx := r.Context()

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			// Normal closure is not worth logging.
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				_ = c.Close(websocket.StatusNormalClosure, "")
				return
			}
			t.logger.Printf("websocket read: %v", err)
			return
		}

		resp, err := t.server.HandleRequest(ctx, data)
		if err != nil {
			t.logger.Printf("handler error: %v", err)
			continue
		}
		if err := c.Write(ctx, websocket.MessageText, resp); err != nil {
			t.logger.Printf("websocket write: %v", err)
			return
		}
	}
}
