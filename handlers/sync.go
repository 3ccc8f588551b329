// ABOUTME: Sync MCP tool handlers
// ABOUTME: Implements sync_all, sync_crm, and sync_status tools over the orchestrator
package handlers

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/zohosync/models"
)

// Syncer runs orchestration. *sync.Service implements it.
type Syncer interface {
	SyncAll(ctx context.Context) models.SyncReport
	SyncCRM(ctx context.Context, page, perPage int) models.CRMSyncResult
	PageSize() int
}

// StatusReader reads sync bookkeeping. sync.SQLState implements it.
type StatusReader interface {
	States() ([]models.SyncState, error)
	LatestRun() (*models.SyncReport, error)
}

type SyncHandlers struct {
	syncer Syncer
	status StatusReader
}

func NewSyncHandlers(syncer Syncer, status StatusReader) *SyncHandlers {
	return &SyncHandlers{syncer: syncer, status: status}
}

type SyncAllInput struct{}

type SyncCRMInput struct {
	Page    int `json:"page,omitempty" jsonschema:"Page number to fetch, starting at 1"`
	PerPage int `json:"per_page,omitempty" jsonschema:"Records per page (default 200)"`
}

type SyncStatusInput struct{}

// StatusOutput is the sync_status payload.
type StatusOutput struct {
	States    []models.SyncState `json:"states"`
	LatestRun *models.SyncReport `json:"latest_run,omitempty"`
}

func (h *SyncHandlers) SyncAll(ctx context.Context, _ *mcp.CallToolRequest, _ SyncAllInput) (*mcp.CallToolResult, any, error) {
	report := h.syncer.SyncAll(ctx)
	return jsonResult(report)
}

func (h *SyncHandlers) SyncCRM(ctx context.Context, _ *mcp.CallToolRequest, input SyncCRMInput) (*mcp.CallToolResult, any, error) {
	if input.Page < 0 || input.PerPage < 0 {
		return nil, nil, fmt.Errorf("page and per_page must not be negative")
	}
	page := input.Page
	if page == 0 {
		page = 1
	}
	perPage := input.PerPage
	if perPage == 0 {
		perPage = h.syncer.PageSize()
	}

	result := h.syncer.SyncCRM(ctx, page, perPage)
	return jsonResult(result)
}

func (h *SyncHandlers) SyncStatus(_ context.Context, _ *mcp.CallToolRequest, _ SyncStatusInput) (*mcp.CallToolResult, any, error) {
	out, err := h.readStatus()
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(out)
}

func (h *SyncHandlers) readStatus() (StatusOutput, error) {
	states, err := h.status.States()
	if err != nil {
		return StatusOutput{}, fmt.Errorf("failed to read sync state: %w", err)
	}
	latest, err := h.status.LatestRun()
	if err != nil {
		return StatusOutput{}, fmt.Errorf("failed to read latest run: %w", err)
	}
	return StatusOutput{States: states, LatestRun: latest}, nil
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
