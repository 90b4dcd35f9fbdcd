package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/report"
	"github.com/gatekeep/gatekeep/internal/application"
	"github.com/gatekeep/gatekeep/internal/domain"
)

const defaultHistoryLimit = 10

// registerTools registers all gatekeep MCP tools on the given server.
func registerTools(s *server.MCPServer, svc Service) {
	// 1. gatekeep_run
	s.AddTool(
		mcplib.NewTool("gatekeep_run",
			mcplib.WithDescription("Run the code-quality checks and return the run document as JSON. Blocks until every check finished."),
			mcplib.WithString("files", mcplib.Description("Comma-separated file paths relative to the project root (default: whole project)")),
			mcplib.WithBoolean("bypass", mcplib.Description("Run even if the previous run failed")),
			mcplib.WithBoolean("fix", mcplib.Description("Apply always-safe auto-fixes")),
		),
		handleRun(svc),
	)

	// 2. gatekeep_last_run
	s.AddTool(
		mcplib.NewTool("gatekeep_last_run",
			mcplib.WithDescription("Returns the most recent run, including per-check results"),
		),
		handleLastRun(svc),
	)

	// 3. gatekeep_history
	s.AddTool(
		mcplib.NewTool("gatekeep_history",
			mcplib.WithDescription("Returns recent runs, newest first"),
			mcplib.WithNumber("limit", mcplib.Description("Maximum number of runs (default: 10)")),
		),
		handleHistory(svc),
	)

	// 4. gatekeep_workers
	s.AddTool(
		mcplib.NewTool("gatekeep_workers",
			mcplib.WithDescription("Returns background workers that are still checking files"),
		),
		handleWorkers(svc),
	)
}

func handleRun(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		args := request.GetArguments()
		filesStr, _ := args["files"].(string)
		bypass, _ := args["bypass"].(bool)
		fix, _ := args["fix"].(bool)

		rec, err := svc.RunCheckSync(ctx, application.RunRequest{
			Mode:   domain.ModeAssistant,
			Files:  splitCSV(filesStr),
			Bypass: bypass,
			Fix:    fix,
		})
		if errors.Is(err, domain.ErrPreviousFailure) {
			return errorResult(fmt.Sprintf("%v; pass bypass=true to run anyway", err)), nil
		}
		if err != nil {
			return errorResult(fmt.Sprintf("run failed: %v", err)), nil
		}
		return jsonResult(report.NewDocument(rec))
	}
}

func handleLastRun(svc Service) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		rec, err := svc.MostRecentRun()
		if err != nil {
			return errorResult(fmt.Sprintf("reading last run failed: %v", err)), nil
		}
		if rec == nil {
			return textResult("no runs recorded yet"), nil
		}
		return jsonResult(report.NewDocument(rec))
	}
}

func handleHistory(svc Service) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		limit := defaultHistoryLimit
		if v, ok := request.GetArguments()["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}
		runs, err := svc.RunHistory(limit)
		if err != nil {
			return errorResult(fmt.Sprintf("listing runs failed: %v", err)), nil
		}
		summaries := make([]runSummary, 0, len(runs))
		for _, r := range runs {
			summaries = append(summaries, summarize(r))
		}
		return jsonResult(summaries)
	}
}

func handleWorkers(svc Service) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		live, err := svc.ListActiveWorkers()
		if err != nil {
			return errorResult(fmt.Sprintf("listing workers failed: %v", err)), nil
		}
		if live == nil {
			live = []domain.WorkerMarker{}
		}
		return jsonResult(live)
	}
}

// runSummary is a history entry without per-check output.
type runSummary struct {
	ID       string           `json:"id"`
	Mode     domain.Mode      `json:"mode"`
	Status   domain.RunStatus `json:"status"`
	Success  bool             `json:"success"`
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Failed   []string         `json:"failed,omitempty"`
	Files    int              `json:"files"`
}

func summarize(r *domain.RunRecord) runSummary {
	return runSummary{
		ID:       r.ID,
		Mode:     r.Mode,
		Status:   r.Status,
		Success:  r.Success,
		Errors:   r.Errors,
		Warnings: r.Warnings,
		Failed:   r.FailedChecks(),
		Files:    len(r.Files),
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
