// ABOUTME: MCP prompt handlers for sync review workflows
// ABOUTME: Builds prompts from the latest stored sync report and resource states
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	status StatusReader
}

func NewPromptHandlers(status StatusReader) *PromptHandlers {
	return &PromptHandlers{status: status}
}

// Prompts lists the prompt templates this server offers.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "sync-review",
			Description: "Review the most recent Zoho sync run and suggest next steps",
		},
		{
			Name:        "sync-triage",
			Description: "Investigate a failing sync operation",
			Arguments: []*mcp.PromptArgument{
				{Name: "operation", Description: "Operation name such as leads_sync", Required: true},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "sync-review":
		return h.getSyncReviewPrompt()
	case "sync-triage":
		return h.getSyncTriagePrompt(arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getSyncReviewPrompt() (*mcp.GetPromptResult, error) {
	report, err := h.status.LatestRun()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest run: %w", err)
	}

	var promptText strings.Builder
	if report == nil {
		promptText.WriteString("No Zoho sync has run yet. Explain how to start one with the sync_all tool ")
		promptText.WriteString("and what credentials must be configured first.")
		return userPrompt("Sync review: no runs recorded", promptText.String()), nil
	}

	promptText.WriteString("Please review this Zoho sync run:\n\n")
	promptText.WriteString(fmt.Sprintf("Run: %s\n", report.ID))
	promptText.WriteString(fmt.Sprintf("Environment: %s\n", report.Environment))
	promptText.WriteString(fmt.Sprintf("Finished: %s\n", report.Timestamp.Format("2006-01-02 15:04 MST")))
	promptText.WriteString(fmt.Sprintf("Operations: %d total, %d succeeded, %d failed\n",
		report.Summary.TotalOperations, report.Summary.SuccessfulOperations, report.Summary.FailedOperations))

	names := make([]string, 0, len(report.Details))
	for name := range report.Details {
		names = append(names, name)
	}
	sort.Strings(names)

	promptText.WriteString("\nDetails:\n")
	for _, name := range names {
		r := report.Details[name]
		if r.Success {
			promptText.WriteString(fmt.Sprintf("- %s: ok, %d synced, %d persisted\n", name, r.Synced, r.Persisted))
		} else {
			promptText.WriteString(fmt.Sprintf("- %s: failed (%s)\n", name, r.Error))
		}
	}

	promptText.WriteString("\nRecommendations:\n")
	for _, rec := range report.Recommendations {
		promptText.WriteString(fmt.Sprintf("- %s\n", rec))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short health summary")
	promptText.WriteString("\n2. The most likely cause of any failure")
	promptText.WriteString("\n3. Concrete next steps for the operator")

	return userPrompt(fmt.Sprintf("Sync review for run %s", report.ID), promptText.String()), nil
}

func (h *PromptHandlers) getSyncTriagePrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	operation, ok := args["operation"]
	if !ok || operation == "" {
		return nil, fmt.Errorf("operation is required")
	}

	states, err := h.status.States()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync state: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("The Zoho sync operation %q needs attention.\n\n", operation))

	found := false
	for _, st := range states {
		if st.Service != operation {
			continue
		}
		found = true
		promptText.WriteString(fmt.Sprintf("Status: %s\n", st.Status))
		if st.LastSyncTime != nil {
			promptText.WriteString(fmt.Sprintf("Last successful sync: %s\n", st.LastSyncTime.Format("2006-01-02 15:04 MST")))
		}
		if st.ErrorMessage != "" {
			promptText.WriteString(fmt.Sprintf("Last error: %s\n", st.ErrorMessage))
		}
	}
	if !found {
		promptText.WriteString("No state has been recorded for this operation.\n")
	}

	promptText.WriteString("\nConsider expired OAuth credentials, a missing Books organization id, ")
	promptText.WriteString("and Zoho API limits. Suggest how to confirm each and which to try first.")

	return userPrompt(fmt.Sprintf("Triage for %s", operation), promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
