package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-report-harvester/internal/app"
	"github.com/samvad-hq/samvad-report-harvester/internal/config"
	"github.com/samvad-hq/samvad-report-harvester/internal/logger"
)

// NewRunCmd creates the run command: a single harvest pass.
func NewRunCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single harvest pass",
		Long: `Run crawls the listing once. An incremental pass reads only the first
listing page; --full (or an empty dedup state) crawls every page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHarvester(cmd, func(ctx context.Context, h *app.Harvester) error {
				if _, err := h.RunOnce(ctx, full); err != nil {
					return fmt.Errorf("harvest run: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "crawl every listing page instead of the first one")
	return cmd
}

// NewWatchCmd creates the watch command: harvest now and then every crawl_interval.
func NewWatchCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Harvest repeatedly on the configured interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHarvester(cmd, func(ctx context.Context, h *app.Harvester) error {
				if err := h.Watch(ctx, full); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("harvester watch: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "make the first pass a full crawl")
	return cmd
}

// withHarvester loads config, initializes logging and the runtime, and hands
// a signal-aware context to fn.
func withHarvester(cmd *cobra.Command, fn func(context.Context, *app.Harvester) error) error {
	envFile, err := cmd.Flags().GetString(envFileFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err)
		return err
	}
	defer func() {
		if cerr := harvester.Close(); cerr != nil {
			logger.WarnObj("harvester close failed", "error", cerr)
		}
	}()

	return fn(ctx, harvester)
}
