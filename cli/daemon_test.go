// ABOUTME: Unit tests for sync daemon mode
// ABOUTME: Tests schedule parsing and the scheduled job behavior
package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/zohosync/logging"
	"github.com/harperreed/zohosync/models"
)

type countingSyncer struct {
	calls  int
	report models.SyncReport
}

func (c *countingSyncer) SyncAll(context.Context) models.SyncReport {
	c.calls++
	return c.report
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		valid    bool
	}{
		{"descriptor interval", "@every 1h", true},
		{"descriptor hourly", "@hourly", true},
		{"five field", "0 9 * * 1-5", true},
		{"six field rejected", "0 0 9 * * 1-5", false},
		{"garbage", "whenever", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newScheduler(tt.schedule, func() {}, logging.Discard())
			if !tt.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Entries(), 1)
		})
	}
}

func TestSyncJob(t *testing.T) {
	syncer := &countingSyncer{report: models.SyncReport{
		ID:      "01RUN",
		Summary: models.ReportSummary{TotalOperations: 3, SuccessfulOperations: 2, FailedOperations: 1},
		Details: map[string]models.SyncResult{models.OpBooks: models.Failed("books", "x")},
	}}

	job := syncJob(context.Background(), syncer, logging.Discard())
	job()
	job()
	assert.Equal(t, 2, syncer.calls)
}

func TestSyncJobSkipsAfterCancel(t *testing.T) {
	syncer := &countingSyncer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	syncJob(ctx, syncer, logging.Discard())()
	assert.Zero(t, syncer.calls)
}
