package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rallyhq/huddle/internal/api"
	"github.com/rallyhq/huddle/internal/builds"
	"github.com/rallyhq/huddle/internal/config"
	"github.com/rallyhq/huddle/internal/confluence"
	"github.com/rallyhq/huddle/internal/directory"
	"github.com/rallyhq/huddle/internal/grooming"
	"github.com/rallyhq/huddle/internal/inbox"
	"github.com/rallyhq/huddle/internal/jira"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "huddle",
	Short: "Huddle - Team Dashboard Backend",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// 4. Initialize store
	db, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "database", cfg.Mongo.Database)

	// 5. Initialize provider clients; unconfigured providers stay nil and
	// their endpoints answer with a configuration error.
	hcfg := api.HandlerConfig{
		Store:      db,
		ProjectKey: cfg.Jira.ProjectKey,
		Boards: map[string]string{
			"delivery":  cfg.Jira.DeliveryBoardID,
			"operation": cfg.Jira.OperationBoardID,
		},
		Version: Version,
	}
	if cfg.Jira.Configured() {
		tracker := jira.NewClient(cfg.Jira.Host, cfg.Jira.Email, cfg.Jira.APIToken)
		wiki := confluence.NewClient(cfg.Jira.Host, cfg.Jira.Email, cfg.Jira.APIToken)
		hcfg.Jira = tracker
		hcfg.Grooming = grooming.NewService(tracker, wiki, cfg.Jira.ProjectKey)
		hcfg.Inbox = inbox.NewService(tracker, wiki, cfg.Jira.ProjectKey)
		slog.Info("jira clients initialized", "host", cfg.Jira.Host, "project", cfg.Jira.ProjectKey)
	} else {
		slog.Warn("jira credentials missing, tracker endpoints disabled")
	}
	if cfg.GitHub.Token != "" {
		hcfg.GitHub = builds.NewGitHubClient(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repos)
		slog.Info("github client initialized", "owner", cfg.GitHub.Owner, "repos", len(cfg.GitHub.Repos))
	}
	if cfg.Codemagic.Token != "" {
		hcfg.Codemagic = builds.NewCodemagicClient(cfg.Codemagic.Token)
		slog.Info("codemagic client initialized")
	}
	if cfg.Graph.Configured() {
		hcfg.Directory = directory.NewGraphClient(cfg.Graph.ClientID, cfg.Graph.ClientSecret, cfg.Graph.TenantID)
		slog.Info("directory client initialized", "tenant", cfg.Graph.TenantID)
	}

	// 6. Initialize HTTP router
	handler := api.NewHandler(hcfg)
	router := api.NewRouter(handler, api.RouterConfig{
		SessionSecret: cfg.Session.Secret,
		ManagerEmails: cfg.Session.ManagerEmails,
	})
	slog.Info("router initialized")

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 8. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		// Any other error indicates an actual server failure that should trigger shutdown.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel() // Trigger shutdown on server failure
		}
	}()

	// 9. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 10. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 10a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 10b. Close store
	if err := db.Close(shutdownCtx); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
