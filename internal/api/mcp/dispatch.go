package mcp

import (
	"context"
	"runtime/debug"
	"time"

	driver "github.com/arangodb/go-driver"
)

// Dispatch executes one tool call and always returns a well-formed MCP tool
// call result; failures are reported through the result envelope, never as
// a transport error.
//
// The order of operations is part of the contract:
//
//  1. lookup (allow-list filtered); a miss means UnknownOperation
//  2. argument validation, before any availability check, so callers get
//     contract feedback even while the database is down
//  3. handle acquisition: Current, then one Reconnect attempt; still
//     absent means DatabaseUnavailable
//  4. handler invocation with a handle snapshot (panics are contained)
//  5. outcome normalization into the stable envelope
func (s *Server) Dispatch(ctx context.Context, name string, args map[string]interface{}) *MCPToolCallResult {
	started := time.Now()
	if args == nil {
		args = map[string]interface{}{}
	}

	tool, ok := s.lookupTool(name)
	if !ok {
		return s.failure(ctx, name, started,
			Errorf(KindUnknownOperation, "unknown tool: %s", name))
	}

	if verr := validateArgs(tool.InputSchema, args); verr != nil {
		return s.failure(ctx, name, started, verr)
	}

	var db driver.Database
	if tool.RequiresConnection {
		if s.conn != nil {
			db = s.conn.Current()
			if db == nil {
				db = s.conn.Reconnect(ctx)
			}
		}
		if db == nil {
			return s.failure(ctx, name, started,
				NewToolError(KindUnavailable, "database connection is not available"))
		}
	}

	payload, err := s.invoke(ctx, tool, db, args)
	if err != nil {
		return s.failure(ctx, name, started, normalizeError(err))
	}

	result, err := toolSuccess(payload)
	if err != nil {
		return s.failure(ctx, name, started, normalizeError(err))
	}

	s.recordCall(ctx, name, true, "", time.Since(started))
	return result
}

// invoke runs the handler with panic containment. A panicking handler must
// not take the server down; it is reported as an internal failure.
func (s *Server) invoke(ctx context.Context, tool *Tool, db driver.Database, args map[string]interface{}) (payload interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("tool %s panic: %v\n%s", tool.Name, r, debug.Stack())
			err = Errorf(KindInternal, "tool %s failed unexpectedly", tool.Name)
		}
	}()
	return tool.Handler(ctx, db, args)
}

// failure logs the verbose operator-facing record and returns the minimal
// caller-facing envelope.
func (s *Server) failure(ctx context.Context, name string, started time.Time, te *ToolError) *MCPToolCallResult {
	if te.Details != nil {
		s.logger.Printf("tool %s failed kind=%s: %s details=%v", name, te.Kind, te.Message, te.Details)
	} else {
		s.logger.Printf("tool %s failed kind=%s: %s", name, te.Kind, te.Message)
	}
	s.recordCall(ctx, name, false, string(te.Kind), time.Since(started))
	return toolFailure(te)
}

func (s *Server) recordCall(ctx context.Context, name string, ok bool, errorKind string, d time.Duration) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordCall(ctx, name, ok, errorKind, d); err != nil {
		s.logger.Printf("audit record failed: %v", err)
	}
}
