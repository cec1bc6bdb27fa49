package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /healthz and /metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = app.cfg.OpsPort
			}
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				rt.registry.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				router := handlers.NewOpsServer(app.cfg, *app.logger, rt.health, rt.registry)
				srv := &http.Server{
					Addr:              ":" + port,
					Handler:           router,
					ReadHeaderTimeout: 5 * time.Second,
				}

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				errCh := make(chan error, 1)
				go func() {
					app.logger.Info().Str("addr", srv.Addr).Msg("Ops server listening")
					errCh <- srv.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
					app.logger.Info().Msg("Shutting down ops server")
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				}
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default OPS_PORT)")
	return cmd
}
