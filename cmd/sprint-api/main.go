package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vilaca/sprint-api/internal/cache"
	"github.com/vilaca/sprint-api/internal/config"
	"github.com/vilaca/sprint-api/internal/jira"
	"github.com/vilaca/sprint-api/internal/server"
	"github.com/vilaca/sprint-api/internal/service"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:          "sprint-api",
	Short:        "Read-only API resolving Jira Agile sprints by id, name, date or issue key",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: buildServer(cfg, logger),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting sprint-api",
			zap.String("addr", cfg.Addr()),
			zap.String("jira_base_url", cfg.JiraBaseURL),
			zap.Int("default_board_id", cfg.JiraBoardID),
			zap.Bool("cache_enabled", cfg.CacheEnabled),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildServer wires up all dependencies and returns the configured HTTP
// handler. This is the composition root: the gateway client and its cache
// are constructed once here and shared by every request.
func buildServer(cfg *config.Config, logger *zap.Logger) http.Handler {
	var readCache *cache.Cache
	if cfg.CacheEnabled {
		readCache = cache.New(cfg.CacheTTL, cfg.CacheMaxSize, nil)
	}

	jiraClient := jira.NewClient(jira.Config{
		BaseURL:    cfg.JiraBaseURL,
		AuthScheme: cfg.JiraAuthScheme,
		Token:      cfg.JiraPAT,
		Username:   cfg.JiraUsername,
		MaxRetries: cfg.MaxRetries,
		BackoffMin: cfg.BackoffMin,
		BackoffMax: cfg.BackoffMax,
	}, &http.Client{Timeout: cfg.HTTPTimeout}, readCache, logger.Named("jira"))

	resolver := service.NewSprintService(jiraClient, cfg.JiraBoardID, logger.Named("sprints"))
	handler := server.NewHandler(resolver, logger.Named("http"), cfg.JiraBaseURL, cfg.JiraBoardID)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return server.RequestID(logger.Named("access"), mux)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
