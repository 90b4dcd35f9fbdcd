package cli

import (
	mcpadapter "github.com/gatekeep/gatekeep/internal/adapters/inbound/mcp"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the gatekeep MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(g))
	return cmd
}

func newMCPServeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start gatekeep MCP server (stdio)",
		Long:  "Start the gatekeep MCP server using stdio transport. Coding assistants can run checks and read the last verdict, the run history and the active workers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			s := mcpadapter.NewGatekeepMCPServer(a.orch, version)
			return server.ServeStdio(s)
		},
	}
	return cmd
}
