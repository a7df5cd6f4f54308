package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/avatarctic/boltedex/internal/infrastructure/redis"
)

func newWarmCmd() *cobra.Command {
	var (
		withDetails bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Populate the name index once and exit",
		Long: "Warms the sorted name index from upstream. With --force the index is rebuilt even when it is already populated. " +
			"With --details every entity detail not yet cached is fetched, throttled by PRELOAD_DETAIL_DELAY.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarm(cmd, withDetails, force)
		},
	}

	cmd.Flags().BoolVar(&withDetails, "details", false, "Also warm the detail cache")
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild the name index even if it is populated")
	return cmd
}

func runWarm(cmd *cobra.Command, withDetails, force bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	// A one-shot run has no /metrics endpoint, so keep collectors off the global registry.
	d := buildDeps(cfg, logger, client, prometheus.NewRegistry())
	defer d.Close()

	if force {
		n, err := d.names.Rebuild(ctx)
		if err != nil {
			return fmt.Errorf("rebuilding name index: %w", err)
		}
		fmt.Fprintf(out, "Rebuilt name index with %d names.\n", n)
	} else {
		if err := d.names.EnsureWarm(ctx); err != nil {
			return fmt.Errorf("warming name index: %w", err)
		}
		size, err := d.names.Size(ctx)
		if err != nil {
			return fmt.Errorf("reading name index size: %w", err)
		}
		fmt.Fprintf(out, "Name index holds %d names.\n", size)
	}

	if !withDetails {
		return nil
	}
	stats, err := d.scheduler.WarmDetails(ctx)
	if err != nil {
		return fmt.Errorf("warming details: %w", err)
	}
	fmt.Fprintf(out, "Details: %d fetched, %d skipped, %d failed.\n", stats.Fetched, stats.Skipped, stats.Failed)
	return nil
}
