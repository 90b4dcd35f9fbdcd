package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
)

// Service is the slice of the orchestrator the MCP server exposes.
type Service interface {
	RunCheckSync(ctx context.Context, req application.RunRequest) (*domain.RunRecord, error)
	MostRecentRun() (*domain.RunRecord, error)
	RunHistory(limit int) ([]*domain.RunRecord, error)
	ListActiveWorkers() ([]domain.WorkerMarker, error)
}

// NewGatekeepMCPServer creates an MCP server with every gatekeep tool and
// resource registered. Runs started through it use assistant mode.
func NewGatekeepMCPServer(svc Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"gatekeep",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, svc)
	registerResources(s, svc)

	return s
}
