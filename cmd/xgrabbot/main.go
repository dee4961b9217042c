package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iconidentify/xgrabbot/internal/config"
	"github.com/iconidentify/xgrabbot/internal/downloader"
	"github.com/iconidentify/xgrabbot/internal/repository"
	"github.com/iconidentify/xgrabbot/internal/service"
	"github.com/iconidentify/xgrabbot/pkg/twitter"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "xgrabbot",
		Short:        "Telegram bot that sends the media of X/Twitter posts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or TOML config file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newResolveCmd(&configPath))
	cmd.AddCommand(newStatsCmd(&configPath))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// app holds the pieces shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	counters repository.CounterRepository
	grab     *service.GrabService
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	counters, err := repository.NewCounterRepository(ctx, cfg.Stats)
	if err != nil {
		return nil, fmt.Errorf("open counters store: %w", err)
	}

	client := twitter.NewClient(cfg.Resolver.APIBaseURL, cfg.Resolver.UserAgent, logger.With("component", "twitter"))

	prober := downloader.NewHTTPDownloader(cfg.Resolver)
	prober.SetLogger(logger.With("component", "prober"))

	grab := service.NewGrabService(client, prober, counters, cfg.Resolver, logger.With("component", "grab"))

	return &app{
		cfg:      cfg,
		logger:   logger,
		counters: counters,
		grab:     grab,
	}, nil
}

func (a *app) Close() {
	if err := a.counters.Close(); err != nil {
		a.logger.Error("failed to close counters store", "error", err)
	}
}

// dataDir is the directory whose disk usage the stats endpoint reports.
func (a *app) dataDir() string {
	if a.cfg.Stats.Backend == config.StatsBackendSQLite {
		return filepath.Dir(a.cfg.Stats.SQLitePath)
	}
	return ""
}
