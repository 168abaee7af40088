package mcp_test

import (
	"context"
	"testing"

	driver "github.com/arangodb/go-driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PCfVW/mcp-arangodb-async/internal/api/mcp"
)

func noopHandler(ctx context.Context, db driver.Database, args map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{}, nil
}

func namedTool(name string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: "test tool " + name,
		InputSchema: map[string]interface{}{"type": "object"},
		Handler:     noopHandler,
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := mcp.NewRegistry()
	require.NoError(t, reg.Register(namedTool("alpha")))

	tool, ok := reg.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", tool.Name)

	_, ok = reg.Lookup("beta")
	assert.False(t, ok)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	reg := mcp.NewRegistry()
	require.NoError(t, reg.Register(namedTool("alpha")))

	err := reg.Register(namedTool("alpha"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mcp.ErrDuplicateTool)
	assert.Equal(t, 1, reg.Len())
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := mcp.NewRegistry()
	reg.MustRegister(namedTool("alpha"))

	assert.Panics(t, func() {
		reg.MustRegister(namedTool("alpha"))
	})
}

func TestRegisterRejectsInvalidTools(t *testing.T) {
	reg := mcp.NewRegistry()

	err := reg.Register(mcp.Tool{Handler: noopHandler})
	assert.Error(t, err, "empty name must be rejected")

	err = reg.Register(mcp.Tool{Name: "no_handler"})
	assert.Error(t, err, "missing handler must be rejected")
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	reg := mcp.NewRegistry()
	names := []string{"zeta", "alpha", "mid", "beta"}
	for _, n := range names {
		require.NoError(t, reg.Register(namedTool(n)))
	}

	listed := reg.List()
	require.Len(t, listed, len(names))
	for i, n := range names {
		assert.Equal(t, n, listed[i].Name)
	}

	// A second enumeration restarts from the beginning in the same order.
	again := reg.List()
	require.Len(t, again, len(names))
	assert.Equal(t, listed[0].Name, again[0].Name)
}
