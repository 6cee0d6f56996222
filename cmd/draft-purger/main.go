package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/headshot-checkout/internal/app/api"
	headshotclient "github.com/Apurer/headshot-checkout/internal/clients/http/headshots"
	headshotsadapter "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/external/headshots"
	checkoutpostgres "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/persistence/postgres"
	checkoutapp "github.com/Apurer/headshot-checkout/internal/domains/checkout/application"
	platformobservability "github.com/Apurer/headshot-checkout/internal/platform/observability"
	platformpostgres "github.com/Apurer/headshot-checkout/internal/platform/postgres"
)

var (
	olderThan time.Duration
	dryRun    bool
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "draft-purger",
	Short: "Delete abandoned checkout sessions and their draft headshots",
	Long: `draft-purger removes unpaid checkout sessions that have not been touched for
--older-than (SESSION_STALE_AFTER_MINUTES by default). Draft headshots referenced by a
session are deleted on the production API before its snapshot is dropped; sessions whose
drafts could not be deleted are kept for the next run.`,
	SilenceUsage: true,
	RunE:         runPurge,
}

func init() {
	rootCmd.Flags().DurationVar(&olderThan, "older-than", 0, "purge sessions idle for longer than this (default from SESSION_STALE_AFTER_MINUTES)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list stale sessions without deleting anything")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the purge run")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPurge(cmd *cobra.Command, _ []string) error {
	cfg, err := api.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	instruments, shutdown, err := platformobservability.Init(ctx, "headshot-checkout-draft-purger")
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer cleanup()
	if db == nil {
		return errors.New("POSTGRES_DSN not set or connection failed; cannot purge sessions")
	}
	store := checkoutpostgres.NewStateStore(db)

	idle := olderThan
	if idle <= 0 {
		idle = cfg.StaleAfter()
	}
	cutoff := time.Now().UTC().Add(-idle)

	if dryRun {
		stale, err := store.ListStale(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list stale sessions: %w", err)
		}
		for _, state := range stale {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tproduction=%s\tstep=%s\tupdated=%s\n",
				state.SessionID, state.ProductionID, state.Step, state.UpdatedAt.Format(time.RFC3339))
		}
		logger.Info("dry run completed", slog.Int("stale", len(stale)), slog.Time("cutoff", cutoff))
		return nil
	}

	apiClient, err := headshotclient.NewHeadshotClient(cfg.HeadshotAPIURL, nil)
	if err != nil {
		return err
	}
	service := checkoutapp.NewService(checkoutapp.Dependencies{
		Productions: headshotsadapter.NewGateway(apiClient),
		Store:       store,
	}, checkoutapp.WithLogger(logger))

	purged, err := service.PurgeAbandoned(ctx, cutoff)
	logger.Info("checkout session purge completed", slog.Int("purged", purged), slog.Time("cutoff", cutoff))
	if err != nil {
		return fmt.Errorf("some sessions were kept: %w", err)
	}
	return nil
}
