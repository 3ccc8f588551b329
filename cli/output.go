// ABOUTME: Output rendering for CLI results in json, yaml, or styled terminal text
// ABOUTME: Pretty output uses lipgloss; the default format depends on whether stdout is a TTY
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/zohosync/models"
)

const (
	formatJSON   = "json"
	formatYAML   = "yaml"
	formatPretty = "pretty"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	syncingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// statusView is what `status` prints.
type statusView struct {
	States    []models.SyncState `json:"states"`
	Records   map[string]int     `json:"records,omitempty"`
	LatestRun *models.SyncReport `json:"latest_run"`
}

// resolveFormat picks the output format, defaulting by TTY detection.
func resolveFormat(requested string, out io.Writer) (string, error) {
	switch strings.ToLower(requested) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case formatPretty:
		return formatPretty, nil
	case "":
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return formatPretty, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml, or pretty)", requested)
	}
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return renderYAML(w, v)
	case formatPretty:
		return renderPretty(w, v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderYAML goes through JSON so keys match the json tags.
func renderYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to convert result: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func renderPretty(w io.Writer, v any) error {
	var s strings.Builder
	switch val := v.(type) {
	case models.SyncReport:
		writeReport(&s, &val)
	case *models.SyncReport:
		writeReport(&s, val)
	case models.CRMSyncResult:
		s.WriteString(titleStyle.Render("CRM Sync"))
		s.WriteString("\n")
		writeResult(&s, models.OpContacts, val.Contacts)
		writeResult(&s, models.OpLeads, val.Leads)
		s.WriteString(fmt.Sprintf("\nTotal records: %d\n", val.TotalRecords))
	case models.SyncResult:
		s.WriteString(titleStyle.Render("Sync Result"))
		s.WriteString("\n")
		writeResult(&s, val.Resource, val)
	case statusView:
		writeStatus(&s, val)
	default:
		return render(w, formatJSON, v)
	}
	_, err := io.WriteString(w, s.String())
	return err
}

func writeReport(s *strings.Builder, r *models.SyncReport) {
	s.WriteString(titleStyle.Render("Sync Report"))
	s.WriteString("\n")
	if r.ID != "" {
		s.WriteString(mutedStyle.Render("Run " + r.ID))
		s.WriteString("\n")
	}
	s.WriteString(fmt.Sprintf("Environment: %s\n", r.Environment))
	s.WriteString(fmt.Sprintf("Timestamp:   %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST")))
	s.WriteString(fmt.Sprintf("Operations:  %d total, %d succeeded, %d failed\n\n",
		r.Summary.TotalOperations, r.Summary.SuccessfulOperations, r.Summary.FailedOperations))

	s.WriteString(headerStyle.Render("Details"))
	s.WriteString("\n\n")
	names := make([]string, 0, len(r.Details))
	for name := range r.Details {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeResult(s, name, r.Details[name])
	}

	if len(r.Recommendations) > 0 {
		s.WriteString("\n")
		s.WriteString(headerStyle.Render("Recommendations"))
		s.WriteString("\n\n")
		for _, rec := range r.Recommendations {
			s.WriteString("  • " + rec + "\n")
		}
	}
}

func writeResult(s *strings.Builder, name string, r models.SyncResult) {
	s.WriteString(nameStyle.Render(name))
	if !r.Success {
		s.WriteString(errorStyle.Render("  ✗ " + r.Error))
		s.WriteString("\n")
		return
	}

	s.WriteString(okStyle.Render(fmt.Sprintf("  ✓ %d synced", r.Synced)))
	var extra []string
	if r.Processed > 0 {
		extra = append(extra, fmt.Sprintf("%d processed", r.Processed))
	}
	if r.Persisted > 0 {
		extra = append(extra, fmt.Sprintf("%d stored", r.Persisted))
	}
	if r.FailedBatches > 0 {
		extra = append(extra, fmt.Sprintf("%d failed batches", r.FailedBatches))
	}
	if r.ConversionOpportunities > 0 {
		extra = append(extra, fmt.Sprintf("%d qualified", r.ConversionOpportunities))
	}
	if r.InvoicesSynced > 0 || r.CustomersSynced > 0 {
		extra = append(extra, fmt.Sprintf("%d invoices, %d customers, revenue %.2f",
			r.InvoicesSynced, r.CustomersSynced, r.TotalRevenue))
	}
	if r.HasMore {
		extra = append(extra, "more pages")
	}
	if len(extra) > 0 {
		s.WriteString(mutedStyle.Render(" • " + strings.Join(extra, ", ")))
	}
	s.WriteString("\n")
}

func writeStatus(s *strings.Builder, v statusView) {
	s.WriteString(titleStyle.Render("Sync Status"))
	s.WriteString("\n")

	if len(v.States) == 0 {
		s.WriteString(mutedStyle.Render("No sync data found. Run 'zohosync sync all' first."))
		s.WriteString("\n")
	}
	for _, state := range v.States {
		s.WriteString(nameStyle.Render(state.Service))
		switch state.Status {
		case models.SyncStatusSyncing:
			s.WriteString(syncingStyle.Render("  ⟳ Syncing..."))
		case models.SyncStatusError:
			s.WriteString(errorStyle.Render("  ✗ Error"))
			if state.ErrorMessage != "" {
				s.WriteString(errorStyle.Render(": " + state.ErrorMessage))
			}
		default:
			s.WriteString(okStyle.Render("  ✓ Idle"))
			if state.LastSyncTime != nil {
				s.WriteString(mutedStyle.Render(" • Last synced " + state.LastSyncTime.Format("2006-01-02 15:04")))
			}
		}
		s.WriteString("\n")
	}

	if len(v.Records) > 0 {
		s.WriteString("\n")
		s.WriteString(headerStyle.Render("Stored records"))
		s.WriteString("\n")
		tables := make([]string, 0, len(v.Records))
		for table := range v.Records {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			s.WriteString(fmt.Sprintf("%s %d\n", nameStyle.Render(table), v.Records[table]))
		}
	}

	if v.LatestRun != nil {
		s.WriteString("\n")
		writeReport(s, v.LatestRun)
	}
}
