package mcp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpadapter "github.com/gatekeep/gatekeep/internal/adapters/inbound/mcp"
)

func TestNewGatekeepMCPServer(t *testing.T) {
	s := mcpadapter.NewGatekeepMCPServer(nil, "test")
	require.NotNil(t, s)
}

func TestMCPServerHasTools(t *testing.T) {
	s := mcpadapter.NewGatekeepMCPServer(nil, "test")
	require.NotNil(t, s)

	tools := s.ListTools()
	require.NotNil(t, tools)

	expectedTools := []string{
		"gatekeep_run",
		"gatekeep_last_run",
		"gatekeep_history",
		"gatekeep_workers",
	}

	for _, name := range expectedTools {
		_, exists := tools[name]
		assert.True(t, exists, "tool %q should be registered", name)
	}

	assert.Len(t, tools, len(expectedTools), "should have exactly %d tools", len(expectedTools))
}
