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
	"golang.org/x/sync/errgroup"

	"github.com/nhle/goal-tracker/internal/auth"
	"github.com/nhle/goal-tracker/internal/model"
	"github.com/nhle/goal-tracker/internal/server"
	"github.com/nhle/goal-tracker/internal/store"
	"github.com/nhle/goal-tracker/internal/tasks"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "goaltracker",
		Short: "Personal goal tracking service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(),
		"path to the YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.NewSQLiteStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var twitch *auth.TwitchClient
	if cfg.Auth.TwitchClientID != "" {
		twitch = auth.NewTwitchClient(cfg.Auth.TwitchClientID, cfg.Auth.TwitchClientSecret)
	}

	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	authSvc := auth.NewService(st, twitch, sessionTTL, log)
	taskSvc := tasks.NewService(st, log)
	srv := server.New(taskSvc, authSvc, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Expired sessions are swept opportunistically on startup rather than
	// by a background job.
	if deleted, err := st.DeleteExpiredSessions(ctx); err != nil {
		log.Warn("sweeping expired sessions", zap.Error(err))
	} else if deleted > 0 {
		log.Info("swept expired sessions", zap.Int64("count", deleted))
	}

	return g.Wait()
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}
