// ABOUTME: MCP server subcommand
// ABOUTME: Serves the sync tools over stdio for MCP clients
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/zohosync/handlers"
)

func newMCPCommand(g *globalOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			a.log.Info("Starting zohosync MCP server")
			server := handlers.NewServer(a.service, a.state, version)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
