package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/report"
)

const lastRunURI = "gatekeep://runs/latest"

// registerResources registers all gatekeep MCP resources on the given server.
func registerResources(s *server.MCPServer, svc Service) {
	s.AddResource(
		mcplib.NewResource(
			lastRunURI,
			"Last Run",
			mcplib.WithResourceDescription("The most recent gatekeep run document"),
			mcplib.WithMIMEType("application/json"),
		),
		handleLastRunResource(svc),
	)
}

func handleLastRunResource(svc Service) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		rec, err := svc.MostRecentRun()
		if err != nil {
			return nil, fmt.Errorf("reading last run: %w", err)
		}
		if rec == nil {
			return nil, fmt.Errorf("no runs recorded yet")
		}

		data, err := json.MarshalIndent(report.NewDocument(rec), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling run: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      lastRunURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
