// ABOUTME: Status and record inspection CLI commands
// ABOUTME: Prints per-operation sync state, stored record counts, the latest report, or one stored record
package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/models"
)

func newStatusCommand(g *globalOptions) *cobra.Command {
	var operation string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync state and the latest sync report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(g.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			var states []models.SyncState
			if operation != "" {
				state, err := db.GetSyncState(a.db, operation)
				if err != nil {
					return fmt.Errorf("failed to read sync state: %w", err)
				}
				if state == nil {
					return fmt.Errorf("no sync state recorded for %s", operation)
				}
				states = []models.SyncState{*state}
			} else {
				states, err = a.state.States()
				if err != nil {
					return fmt.Errorf("failed to read sync state: %w", err)
				}
			}

			records := make(map[string]int, len(models.RecordTables))
			for _, table := range models.RecordTables {
				n, err := a.records.CountRows(cmd.Context(), table)
				if err != nil {
					return err
				}
				records[table] = n
			}

			latest, err := a.state.LatestRun()
			if err != nil {
				return fmt.Errorf("failed to read latest run: %w", err)
			}

			return render(cmd.OutOrStdout(), format, statusView{States: states, Records: records, LatestRun: latest})
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "Only show state for one operation (contacts_sync, leads_sync, books_sync)")
	return cmd
}

func newRecordCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "record <table> <id>",
		Short: "Print one stored record",
		Long:  "Print one enriched record from the local store. Tables: " + strings.Join(models.RecordTables, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, id := args[0], args[1]
			if !slices.Contains(models.RecordTables, table) {
				return fmt.Errorf("unknown table %q (want one of %s)", table, strings.Join(models.RecordTables, ", "))
			}

			format, err := resolveFormat(g.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			var payload map[string]any
			found, err := a.records.GetRecord(cmd.Context(), table, id, &payload)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no record %s in %s", id, table)
			}
			return render(cmd.OutOrStdout(), format, payload)
		},
	}
}
