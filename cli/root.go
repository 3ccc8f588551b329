// ABOUTME: Root cobra command and global flags
// ABOUTME: Wires sync, serve, daemon, mcp, status, and version subcommands
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	output   string
	dbPath   string
	envFile  string
	logLevel string
}

// NewRootCommand builds the zohosync command tree.
func NewRootCommand(version string) *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "zohosync",
		Short:         "Sync Zoho CRM and Books data into a local analytics store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.output, "output", "o", "", "Output format: json, yaml, or pretty (default: pretty on a terminal, json otherwise)")
	rootCmd.PersistentFlags().StringVar(&g.dbPath, "db-path", "", "Database path (default: ~/.local/share/zohosync/zohosync.db)")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Load environment variables from this file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newSyncCommand(g),
		newServeCommand(g, version),
		newDaemonCommand(g),
		newMCPCommand(g, version),
		newStatusCommand(g),
		newRecordCommand(g),
		newVersionCommand(version),
	)

	return rootCmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zohosync version %s\n", version)
		},
	}
}
