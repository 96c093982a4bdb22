package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridianiam/flowguard/internal/audit"
	"github.com/meridianiam/flowguard/internal/config"
	"github.com/meridianiam/flowguard/internal/content"
	"github.com/meridianiam/flowguard/internal/mcp"
	"github.com/meridianiam/flowguard/internal/scheduler"
	"github.com/meridianiam/flowguard/internal/store"
	"github.com/meridianiam/flowguard/internal/tools/workflow"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the flowguard MCP server (stdio or http transport)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	logger.Info("starting flowguard", "version", version, "transport", cfg.Transport.Mode, "store_url", cfg.Store.URL)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := mcp.NewRegistry()

	factory := store.NewClientFactory(cfg.Store.URL, cfg.Store.AdminToken, 5, 5, 20, logger)

	registry.Register(workflow.NewCommit(factory))
	registry.Register(workflow.NewCheck(factory))
	registry.Register(workflow.NewGet(factory))

	registry.RegisterPrompt(&content.DesignTransitionsPrompt{})
	registry.RegisterResource(&content.ModelSchemaResource{})

	server := mcp.NewServer(registry, mcp.ServerInfo{
		Name:    cfg.Server.Name,
		Version: version,
	}, logger)

	var sched *scheduler.Scheduler
	if cfg.Audit.Enabled {
		pg, err := store.NewPostgresClient(cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to store database: %w", err)
		}
		defer pg.Close()

		token := ""
		if cfg.Transport.Mode == "stdio" {
			token = cfg.Store.Token
		}

		sched = scheduler.NewScheduler(logger)
		sched.AddJob(audit.NewAuditor(factory, pg, logger, token), time.Duration(cfg.Audit.IntervalHours)*time.Hour)
		sched.Start(ctx)
		defer sched.Stop()
	}

	switch cfg.Transport.Mode {
	case "http":
		return runHTTP(ctx, cfg, server, logger)
	default:
		return server.Run(ctx)
	}
}

func runHTTP(ctx context.Context, cfg *config.Config, server *mcp.Server, logger *slog.Logger) error {
	httpServer := mcp.NewHTTPServer(server, cfg.Transport.CORSOrigins, logger)

	mux := http.NewServeMux()
	mux.Handle("/mcp", httpServer.Handler())

	addr := cfg.Transport.Host + ":" + cfg.Transport.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http transport listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down http transport")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
