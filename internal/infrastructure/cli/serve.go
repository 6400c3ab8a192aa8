package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
	"github.com/felixgeelhaar/triage/internal/infrastructure/web"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task analyzer page",
	Long: `Serves a page with a task textarea, a strategy selector and Analyze and
Suggest buttons. All visitors share one results region; the latest request
wins.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = services.Config.Addr
		}

		d, err := services.NewDispatcher(string(render.FormatHTML))
		if err != nil {
			return err
		}
		srv, err := web.NewServer(addr, d, scoring.Strategy(services.Config.Strategy), logger.Named("web"))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()
		fmt.Fprintf(cmd.OutOrStdout(), "Task analyzer on http://%s, scoring with %s (Ctrl+C to stop)\n", addr, services.Client.BaseURL())

		select {
		case err := <-errCh:
			if err != nil {
				return NewCLIError("server failed", "Is another process using the address? Pick one with --addr", err)
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errCh
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides addr, default 127.0.0.1:8080)")
	serveCmd.Flags().Duration("timeout", 0, "Request timeout towards the scoring service (overrides timeout)")
	serveCmd.Flags().Int("retries", 1, "Attempts per request (overrides retries)")
	RootCmd.AddCommand(serveCmd)
}
