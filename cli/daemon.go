// ABOUTME: Daemon CLI command for scheduled sync runs
// ABOUTME: Runs SyncAll on a cron schedule, skipping ticks while a run is still in progress
package cli

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/zohosync/models"
)

// scheduleParser accepts standard 5-field expressions and descriptors such as
// "@hourly" or "@every 30m".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type fullSyncer interface {
	SyncAll(ctx context.Context) models.SyncReport
}

func newDaemonCommand(g *globalOptions) *cobra.Command {
	var schedule string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run full syncs on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if schedule == "" {
				schedule = a.cfg.SyncSchedule
			}

			ctx := cmd.Context()
			job := syncJob(ctx, a.service, a.log)

			scheduler, err := newScheduler(schedule, job, a.log)
			if err != nil {
				return err
			}

			a.log.WithField("schedule", schedule).Info("Sync daemon started")
			if runNow {
				job()
			}
			scheduler.Start()

			<-ctx.Done()
			a.log.Info("Sync daemon stopping")
			<-scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression or descriptor (default: ZOHOSYNC_SYNC_SCHEDULE or @every 1h)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run one sync immediately before waiting for the schedule")

	return cmd
}

// newScheduler registers job on schedule. Overlapping ticks are skipped.
func newScheduler(schedule string, job func(), log logrus.FieldLogger) (*cron.Cron, error) {
	logger := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	return c, nil
}

// syncJob runs one full sync and logs its summary.
func syncJob(ctx context.Context, syncer fullSyncer, log logrus.FieldLogger) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		report := syncer.SyncAll(ctx)
		entry := log.WithFields(logrus.Fields{
			"run_id":    report.ID,
			"total":     report.Summary.TotalOperations,
			"succeeded": report.Summary.SuccessfulOperations,
			"failed":    report.Summary.FailedOperations,
		})
		if syncOK(report) {
			entry.Info("Scheduled sync complete")
			return
		}
		entry.WithField("failed_operations", report.FailedNames()).Warn("Scheduled sync finished with failures")
	}
}
