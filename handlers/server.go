// ABOUTME: MCP server assembly
// ABOUTME: Registers sync tools and review prompts on a go-sdk server
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server exposing the sync tools.
func NewServer(syncer Syncer, status StatusReader, version string) *mcp.Server {
	syncHandlers := NewSyncHandlers(syncer, status)
	promptHandlers := NewPromptHandlers(status)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "zohosync",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_all",
		Description: "Sync Zoho CRM contacts, leads, and Books data, then return the sync report",
	}, syncHandlers.SyncAll)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_crm",
		Description: "Sync one page of Zoho CRM contacts and leads",
	}, syncHandlers.SyncCRM)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Show per-operation sync state and the latest sync report",
	}, syncHandlers.SyncStatus)

	for _, prompt := range promptHandlers.Prompts() {
		server.AddPrompt(prompt, promptHandlers.GetPrompt)
	}

	return server
}
