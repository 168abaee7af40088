package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func handle(t *testing.T, srv *mcp.Server, request string) string {
	t.Helper()
	resp, err := srv.HandleRequest(context.Background(), []byte(request))
	require.NoError(t, err)
	return string(resp)
}

func decodeResponse(t *testing.T, raw string) mcp.JSONRPCResponse {
	t.Helper()
	var resp mcp.JSONRPCResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return resp
}

func TestHandleRequestInitialize(t *testing.T) {
	reg := mcp.NewRegistry()
	srv := newTestServer(t, reg)

	raw := handle(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test-client","version":"0.1"}}}`)
	assert.Contains(t, raw, `"result"`)
	assert.Contains(t, raw, `"protocolVersion":"2024-11-05"`)
	assert.Contains(t, raw, `"arango-mcp"`)
}

func TestHandleRequestParseError(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	raw := handle(t, srv, `{not json`)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.ErrCodeParseError, resp.Error.Code)
}

func TestHandleRequestRejectsWrongVersion(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	raw := handle(t, srv, `{"jsonrpc":"1.0","id":1,"method":"ping"}`)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.ErrCodeInvalidRequest, resp.Error.Code)
}

func TestHandleRequestMethodNotFound(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	raw := handle(t, srv, `{"jsonrpc":"2.0","id":7,"method":"no/such/method"}`)
	resp := decodeResponse(t, raw)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.ErrCodeMethodNotFound, resp.Error.Code)
}

func TestHandleRequestPingAndInitialized(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	for _, method := range []string{"ping", "initialized", "notifications/initialized"} {
		raw := handle(t, srv, fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"%s"}`, method))
		assert.Contains(t, raw, `"result"`, "method %s", method)
	}
}

func TestToolsListPreservesOrderAndFilters(t *testing.T) {
	reg := mcp.NewRegistry()
	for _, n := range []string{"c_tool", "a_tool", "b_tool"} {
		reg.MustRegister(namedTool(n))
	}

	srv := newTestServer(t, reg)
	raw := handle(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	var resp struct {
		Result mcp.MCPToolsListResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Len(t, resp.Result.Tools, 3)
	assert.Equal(t, "c_tool", resp.Result.Tools[0].Name)
	assert.Equal(t, "a_tool", resp.Result.Tools[1].Name)
	assert.Equal(t, "b_tool", resp.Result.Tools[2].Name)

	// The allow-list drops gated tools from discovery without reordering.
	gated := newTestServer(t, reg, mcp.WithAllowedTools([]string{"b_tool", "c_tool"}))
	raw = handle(t, gated, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Len(t, resp.Result.Tools, 2)
	assert.Equal(t, "c_tool", resp.Result.Tools[0].Name)
	assert.Equal(t, "b_tool", resp.Result.Tools[1].Name)
}

func TestToolsCallEndToEnd(t *testing.T) {
	reg := mcp.NewRegistry()
	reg.MustRegister(echoTool())
	srv := newTestServer(t, reg)

	raw := handle(t, srv, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"round trip"}}}`)

	var resp struct {
		Result mcp.MCPToolCallResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.False(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.JSONEq(t, `{"echo":"round trip"}`, resp.Result.Content[0].Text)
}

func TestToolsCallFailureStaysInsideEnvelope(t *testing.T) {
	reg := mcp.NewRegistry()
	reg.MustRegister(echoTool())
	srv := newTestServer(t, reg)

	// A failed tool call is a JSON-RPC *success* carrying isError; the
	// transport level error channel stays reserved for protocol faults.
	raw := handle(t, srv, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo","arguments":{}}}`)
	resp := decodeResponse(t, raw)
	assert.Nil(t, resp.Error)

	var typed struct {
		Result mcp.MCPToolCallResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &typed))
	assert.True(t, typed.Result.IsError)
}

func TestSessionIDIsStablePerServer(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())
	other := newTestServer(t, mcp.NewRegistry())

	assert.NotEmpty(t, srv.SessionID())
	assert.NotEqual(t, srv.SessionID(), other.SessionID())
}
