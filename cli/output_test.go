package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/zohosync/models"
)

func sampleReport() models.SyncReport {
	return models.SyncReport{
		ID:          "01HZX",
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Environment: "production",
		Summary:     models.ReportSummary{TotalOperations: 2, SuccessfulOperations: 1, FailedOperations: 1},
		Details: map[string]models.SyncResult{
			models.OpContacts: {Success: true, Resource: "contacts", Synced: 12, Processed: 12, Persisted: 12},
			models.OpBooks:    models.Failed("books", "Books organization ID not configured"),
		},
		Recommendations: []string{"Review failed synchronizations: books_sync"},
	}
}

func TestResolveFormat(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		requested string
		want      string
		wantErr   bool
	}{
		{"", formatJSON, false},
		{"json", formatJSON, false},
		{"YAML", formatYAML, false},
		{"yml", formatYAML, false},
		{"pretty", formatPretty, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			got, err := resolveFormat(tt.requested, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderYAMLUsesJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatYAML, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "id: 01HZX")
	assert.Contains(t, out, "total_operations: 2")
	assert.Contains(t, out, "processed_count: 12")
	assert.Contains(t, out, "Review failed synchronizations: books_sync")
}

func TestRenderPrettyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatPretty, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Sync Report")
	assert.Contains(t, out, "Environment: production")
	assert.Contains(t, out, "2 total, 1 succeeded, 1 failed")
	assert.Contains(t, out, "12 synced")
	assert.Contains(t, out, "Books organization ID not configured")
	assert.Contains(t, out, "Review failed synchronizations: books_sync")
}

func TestRenderPrettyStatus(t *testing.T) {
	synced := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	view := statusView{
		States: []models.SyncState{
			{Service: models.OpContacts, Status: models.SyncStatusIdle, LastSyncTime: &synced},
			{Service: models.OpLeads, Status: models.SyncStatusError, ErrorMessage: "Failed to fetch CRM leads"},
		},
		Records: map[string]int{models.TableLeads: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatPretty, view))

	out := buf.String()
	assert.Contains(t, out, "Last synced 2024-03-01 09:30")
	assert.Contains(t, out, "Failed to fetch CRM leads")
	assert.Contains(t, out, "Stored records")
	assert.Contains(t, out, "7")

	buf.Reset()
	require.NoError(t, render(&buf, formatPretty, statusView{}))
	assert.Contains(t, buf.String(), "No sync data found")
}

func TestRenderPrettyFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatPretty, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, buf.String())
}
