package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/xgrabbot/internal/api"
	"github.com/iconidentify/xgrabbot/internal/api/handler"
	"github.com/iconidentify/xgrabbot/internal/bot"
	"github.com/iconidentify/xgrabbot/internal/worker"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (and the operator API when enabled)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger

	logger.Info("starting xgrabbot",
		"version", Version,
		"build_time", BuildTime,
		"stats_backend", cfg.Stats.Backend,
	)

	if cfg.Telegram.DeveloperID == 0 {
		logger.Warn("DEVELOPER_ID is not set; /stats, /resetstats and error reports are disabled")
	}

	tg, err := bot.Connect(cfg.Telegram, logger)
	if err != nil {
		return err
	}
	logger.Info("authorized on telegram", "username", tg.Self.UserName)

	reporter := bot.NewReporter(tg, cfg.Telegram.DeveloperID, logger.With("component", "reporter"))

	pool := worker.NewPool(worker.Config{
		Workers:        cfg.Worker.Count,
		QueueSize:      cfg.Worker.QueueSize,
		RequestTimeout: cfg.Worker.RequestTimeout,
		OnError:        reporter.JobError,
		OnPanic:        reporter.JobPanic,
	}, logger.With("component", "worker"))
	pool.Start()

	b := bot.New(tg, tg.Self, a.grab, pool, cfg.Telegram, logger.With("component", "bot"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})

	if cfg.Server.Enabled {
		router := api.NewRouter(
			handler.NewHealthHandler(a.grab),
			handler.NewStatsHandler(a.grab, a.dataDir(), logger),
			handler.NewResolveHandler(a.grab, logger),
			cfg.Server.APIKey,
		)
		srv := &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		g.Go(func() error {
			logger.Info("starting HTTP server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", "error", err)
			}
			return nil
		})
	}

	runErr := g.Wait()

	logger.Info("shutting down")

	// Let in-flight updates finish.
	if err := pool.Stop(cfg.Worker.ShutdownTimeout); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
