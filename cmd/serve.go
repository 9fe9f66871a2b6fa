package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/kol-credits/internal/adapters/httpapi"
	"github.com/bnema/kol-credits/internal/application"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the credit and permission API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, app, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")

	return cmd
}

func runServer(ctx context.Context, app *app, addr string) error {
	serverCfg := app.config.Server
	api := httpapi.New(httpapi.Services{
		Ledger:      app.ledger,
		Meter:       app.meter,
		Permissions: app.permissions,
		Contacts:    app.contacts,
		Metrics:     app.metrics,
		Logger:      app.logger,
	}, httpapi.Config{
		RateLimit:       rate.Limit(serverCfg.RateLimit),
		Burst:           serverCfg.Burst,
		AllowedOrigins:  serverCfg.AllowedOrigins,
		MetricsUser:     serverCfg.MetricsUser,
		MetricsPassword: serverCfg.MetricsPassword,
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go application.NewSweeper(app.ledger, serverCfg.SweepInterval).Run(ctx)
	go api.CleanupVisitors(ctx)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	app.logger.Info("server shutdown complete")
	return nil
}
