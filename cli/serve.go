// ABOUTME: Serve CLI command
// ABOUTME: Runs the HTTP API with the Badger list cache until interrupted
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harperreed/zohosync/cache"
	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/web"
)

func newServeCommand(g *globalOptions, version string) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			if listenAddr == "" {
				listenAddr = a.cfg.ListenAddr
			}

			responseCache, err := cache.Open(a.cfg.CachePath, a.cfg.CacheTTL)
			if err != nil {
				return err
			}
			defer responseCache.Close()

			server := web.NewServer(web.Options{
				Rows:   db.NewDatastore(a.db),
				Cache:  responseCache,
				Syncer: a.service,
				Status: a.state,
				Ready: func(ctx context.Context) error {
					return a.db.PingContext(ctx)
				},
			})

			a.log.WithField("version", version).Info("zohosync API starting")
			return server.ListenAndServe(cmd.Context(), listenAddr)
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen-addr", "l", "", "Hostname:port (default: ZOHOSYNC_LISTEN_ADDR or :9000)")

	return cmd
}
