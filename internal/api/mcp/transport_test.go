package mcp_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func TestStdioTransportServesLineDelimitedRequests(t *testing.T) {
	reg := mcp.NewRegistry()
	reg.MustRegister(echoTool())
	srv := newTestServer(t, reg)

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"over stdio"}}}` + "\n")
	var out bytes.Buffer

	tr := mcp.NewStdioTransport(srv, in, &out)
	require.NoError(t, tr.Serve(context.Background()), "clean EOF must not be an error")

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2, "one response line per request line")

	resp1 := decodeResponse(t, lines[0])
	assert.Nil(t, resp1.Error)
	assert.EqualValues(t, 1, resp1.ID)

	assert.Contains(t, lines[1], "over stdio")
}

func TestStdioTransportSkipsBlankLines(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	in := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":9,"method":"ping"}` + "\n\n")
	var out bytes.Buffer

	tr := mcp.NewStdioTransport(srv, in, &out)
	require.NoError(t, tr.Serve(context.Background()))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Nil(t, decodeResponse(t, lines[0]).Error)
}

func TestStdioTransportAnswersMalformedLineInBand(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	in := strings.NewReader("this is not json\n")
	var out bytes.Buffer

	tr := mcp.NewStdioTransport(srv, in, &out)
	require.NoError(t, tr.Serve(context.Background()))

	resp := decodeResponse(t, strings.TrimRight(out.String(), "\n"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.ErrCodeParseError, resp.Error.Code)
}

func TestStdioTransportStopsOnCancelledContext(t *testing.T) {
	srv := newTestServer(t, mcp.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer

	tr := mcp.NewStdioTransport(srv, in, &out)
	err := tr.Serve(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String(), "no frame may be emitted after cancellation")
}
