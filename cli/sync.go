// ABOUTME: Sync CLI command
// ABOUTME: Runs a full orchestration or a single resource sync and prints the result
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/zohosync/models"
)

var errSyncFailed = errors.New("sync failed")

var syncTargets = []string{"all", "crm", "contacts", "leads", "books"}

func newSyncCommand(g *globalOptions) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:       "sync [all|crm|contacts|leads|books]",
		Short:     "Sync Zoho data into the local store",
		Long:      "Sync Zoho CRM contacts and leads and Zoho Books invoices and customers. With no argument, runs all operations and records a sync report.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: syncTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			if page < 0 || perPage < 0 {
				return fmt.Errorf("--page and --per-page must not be negative")
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

			if page == 0 {
				page = 1
			}
			if perPage == 0 {
				perPage = a.service.PageSize()
			}

			ctx := cmd.Context()
			var (
				result any
				ok     bool
			)
			switch target {
			case "all":
				report := a.service.SyncAll(ctx)
				result, ok = report, syncOK(report)
			case "crm":
				res := a.service.SyncCRM(ctx, page, perPage)
				result, ok = res, res.Contacts.Success && res.Leads.Success
			case "contacts":
				res := a.service.SyncContacts(ctx, page, perPage)
				result, ok = res, res.Success
			case "leads":
				res := a.service.SyncLeads(ctx, page, perPage)
				result, ok = res, res.Success
			case "books":
				res := a.service.SyncBooks(ctx)
				result, ok = res, res.Success
			}

			if err := render(cmd.OutOrStdout(), format, result); err != nil {
				return err
			}
			if !ok {
				return errSyncFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "CRM page to fetch (crm, contacts, leads)")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "CRM records per page, at most 200 (default: ZOHOSYNC_PAGE_SIZE)")

	return cmd
}

// syncOK reports whether a full run had no failed operations.
func syncOK(report models.SyncReport) bool {
	return report.Summary.FailedOperations == 0
}
