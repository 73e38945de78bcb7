package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/facegate/internal/metrics"
	"github.com/kozaktomas/facegate/internal/web"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Facegate HTTP API.
Door readers post encodings to /api/v1/scan; the identity directory, audit log
and diagnostics live under /api/v1 behind admin tokens.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

// resolveServeHostPort resolves host and port from flags, falling back to config.
func resolveServeHostPort(cmd *cobra.Command, host string, port int) (string, int) {
	if h := mustGetString(cmd, "host"); h != "" {
		host = h
	}
	if p := mustGetInt(cmd, "port"); p > 0 {
		port = p
	}
	return host, port
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, cleanup, err := loadRuntime()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	count, err := store.CountIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to count identities: %w", err)
	}
	logger.Info("store ready", "driver", store.Driver(), "identities", count,
		"threshold", cfg.Match.Threshold)

	host, port := resolveServeHostPort(cmd, cfg.Web.Host, cfg.Web.Port)
	server := web.NewServer(cfg, host, port, web.Dependencies{
		Store:    store,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
