package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	driver "github.com/arangodb/go-driver"
	"github.com/google/uuid"
)

const (
	serverName      = "arango-mcp"
	serverVersion   = "1.0.0"
	protocolVersion = "2024-11-05"
)

// ConnectionProvider yields the database handle for tool dispatch. The
// production implementation is *arango.Manager.
type ConnectionProvider interface {
	// Current returns the handle snapshot, or nil when absent.
	Current() driver.Database
	// Reconnect attempts to re-establish an absent handle and returns the
	// resulting snapshot (nil when still absent).
	Reconnect(ctx context.Context) driver.Database
}

// AuditRecorder receives a summary of every dispatched tool call.
type AuditRecorder interface {
	RecordCall(ctx context.Context, tool string, ok bool, errorKind string, duration time.Duration) error
}

// Server is the MCP protocol server. It owns the tool registry view
// (including the allow-list filter) and dispatches tools/call requests.
type Server struct {
	registry  *Registry
	conn      ConnectionProvider
	allowed   map[string]struct{} // nil means every registered tool is exposed
	audit     AuditRecorder
	logger    *log.Logger
	sessionID string // unique ID generated once per MCP server lifetime
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithConnection injects the database connection provider. Without it every
// tool that requires a connection reports DatabaseUnavailable.
func WithConnection(cp ConnectionProvider) ServerOption {
	return func(s *Server) { s.conn = cp }
}

// WithAllowedTools restricts discovery and dispatch to the named tools.
// Calls to tools outside the list are indistinguishable from calls to tools
// that do not exist. An empty list means no restriction.
func WithAllowedTools(names []string) ServerOption {
	return func(s *Server) {
		if len(names) == 0 {
			return
		}
		s.allowed = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.allowed[n] = struct{}{}
		}
	}
}

// WithAuditRecorder wires the tool-call audit trail.
func WithAuditRecorder(rec AuditRecorder) ServerOption {
	return func(s *Server) { s.audit = rec }
}

// WithLogger sets the operator log destination. It must write to stderr
// when the stdio transport is in use.
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates an MCP server over the given registry.
func NewServer(registry *Registry, opts ...ServerOption) *Server {
	s := &Server{
		registry:  registry,
		logger:    log.Default(),
		sessionID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Printf("session ID: %s", s.sessionID)
	return s
}

// SessionID returns the ID minted for this server instance.
func (s *Server) SessionID() string {
	return s.sessionID
}

// HandleRequest processes a JSON-RPC 2.0 request and returns a response.
// This is the main entry point for MCP protocol handling; every transport
// funnels through it.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte) ([]byte, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, "Parse error", err)
	}

	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version", nil)
	}

	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result, err = s.handleInitialize(ctx, req.Params)
	case "initialized", "notifications/initialized":
		// Notification; no response body required, return empty object.
		result = map[string]interface{}{}
	case "ping":
		result = map[string]interface{}{}
	case "tools/list":
		result, err = s.handleToolsList(ctx, req.Params)
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req.Params)
	default:
		return s.errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	if err != nil {
		return s.errorResponse(req.ID, ErrCodeInvalidParams, err.Error(), nil)
	}

	return s.successResponse(req.ID, result)
}

func (s *Server) handleInitialize(ctx context.Context, params interface{}) (interface{}, error) {
	var p MCPInitializeParams
	// Clients are not required to send params on initialize; tolerate both.
	_ = s.unmarshalParams(params, &p)
	if p.ClientInfo.Name != "" {
		s.logger.Printf("initialize from %s %s", p.ClientInfo.Name, p.ClientInfo.Version)
	}

	return MCPInitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: MCPServerCapabilities{
			Tools: &MCPToolsCapability{},
		},
		ServerInfo: MCPServerInfo{
			Name:    serverName,
			Version: serverVersion,
		},
	}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params interface{}) (interface{}, error) {
	tools := s.listTools()
	out := make([]MCPTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, MCPTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return MCPToolsListResult{Tools: out}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params interface{}) (interface{}, error) {
	var p MCPToolCallParams
	if err := s.unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, p.Name, p.Arguments), nil
}

// lookupTool resolves a tool name through the allow-list filter. A gated
// tool is reported as missing so callers cannot probe for its existence.
func (s *Server) lookupTool(name string) (*Tool, bool) {
	if s.allowed != nil {
		if _, ok := s.allowed[name]; !ok {
			return nil, false
		}
	}
	return s.registry.Lookup(name)
}

// listTools returns the exposed tools in registration order.
func (s *Server) listTools() []Tool {
	all := s.registry.List()
	if s.allowed == nil {
		return all
	}
	out := make([]Tool, 0, len(all))
	for _, t := range all {
		if _, ok := s.allowed[t.Name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// successResponse marshals a JSON-RPC success frame.
func (s *Server) successResponse(id interface{}, result interface{}) ([]byte, error) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return json.Marshal(resp)
}

// errorResponse marshals a JSON-RPC error frame.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) ([]byte, error) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
	return json.Marshal(resp)
}

// fallbackErrorFrame builds an error frame when HandleRequest itself failed
// to produce one. The request ID is recovered from the raw bytes on a best
// effort basis so the caller can still correlate the response.
func (s *Server) fallbackErrorFrame(rawRequest []byte, handlerErr error) []byte {
	var partial struct {
		ID interface{} `json:"id"`
	}
	_ = json.Unmarshal(rawRequest, &partial)

	frame, err := s.errorResponse(partial.ID, ErrCodeInternalError, handlerErr.Error(), nil)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal error"}}`)
	}
	return frame
}

// unmarshalParams re-marshals a decoded params value into a typed struct.
func (s *Server) unmarshalParams(params interface{}, dest interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal params: %w", err)
	}

	return nil
}
