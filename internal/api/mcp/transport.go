package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
)

// maxFrameSize caps a single JSON-RPC frame on the stdio transport. Bulk
// inserts and backups can carry large bodies, so the default scanner buffer
// is far too small.
const maxFrameSize = 4 * 1024 * 1024

// StdioTransport carries newline-delimited JSON-RPC 2.0 frames between an
// MCP client and the Server: one request per stdin line, one response per
// stdout line. Stdout belongs to the protocol; every diagnostic message goes
// to the stderr logger, because a single stray byte on stdout breaks the
// client's framing.
type StdioTransport struct {
	server *Server
	in     io.Reader
	out    io.Writer
	logger *log.Logger
}

// NewStdioTransport wires srv to the given streams. Production callers pass
// os.Stdin and os.Stdout; tests pass in-memory readers and buffers.
func NewStdioTransport(srv *Server, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{
		server: srv,
		in:     in,
		out:    out,
		logger: log.New(os.Stderr, "arango-mcp: ", log.LstdFlags),
	}
}

// Serve reads and answers frames until the input closes or ctx is
// cancelled. A clean EOF returns nil; cancellation returns the context
// error. Requests are answered strictly in arrival order.
func (t *StdioTransport) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, maxFrameSize), maxFrameSize)

	for {
		select {
		case <-ctx.Done():
			t.logger.Println("shutting down: context cancelled")
			return ctx.Err()
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				t.logger.Printf("stdin read failed: %v", err)
				return fmt.Errorf("read frame: %w", err)
			}
			t.logger.Println("shutting down: stdin closed")
			return nil
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := t.answer(ctx, line); err != nil {
			return err
		}

		// A signal may have arrived while the handler ran; do not block on
		// the next Scan in that case.
		select {
		case <-ctx.Done():
			t.logger.Println("shutting down: context cancelled")
			return ctx.Err()
		default:
		}
	}
}

// answer handles one frame and writes exactly one response line. The server
// reports protocol faults in-band, so the only way to get an error from
// HandleRequest is a failure to marshal the response; a fallback frame keeps
// the line protocol intact even then.
func (t *StdioTransport) answer(ctx context.Context, frame []byte) error {
	resp, err := t.server.HandleRequest(ctx, frame)
	if err != nil {
		t.logger.Printf("request failed outside the protocol: %v", err)
		resp = t.server.fallbackErrorFrame(frame, err)
	}

	if _, err := fmt.Fprintf(t.out, "%s\n", resp); err != nil {
		t.logger.Printf("stdout write failed: %v", err)
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
