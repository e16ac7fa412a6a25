package main

import (
	"fmt"
	"time"

	"github.com/Amund211/fragstat/internal/adapters/database"
	"github.com/Amund211/fragstat/internal/adapters/matchrepository"
	"github.com/Amund211/fragstat/internal/adapters/playerrepository"
	"github.com/Amund211/fragstat/internal/app"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var reconcileRate float64

func init() {
	reconcileCmd.Flags().Float64Var(&reconcileRate, "rate", 50, "Players recomputed per second")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(seedCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		ctx := logging.AddToContext(cmd.Context(), logger)

		db, err := openDatabase(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Migrated schema %s\n", schemaName)
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute <player-id>",
	Short: "Recompute the aggregates of a single player from their match lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		ctx := logging.AddToContext(cmd.Context(), logger)

		db, err := openDatabase(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		recomputePlayer := app.BuildRecomputePlayer(playerrepository.NewPostgres(db, schemaName))

		player, err := recomputePlayer(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to recompute player %s: %w", args[0], err)
		}

		fmt.Fprintf(
			cmd.OutOrStdout(),
			"%s (%s): %d matches, rating %.2f, tier %s (%s), role %s\n",
			player.Name,
			player.ID,
			player.MatchesPlayed,
			player.Rating,
			player.Tier,
			player.Tier.Label(),
			player.Role,
		)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute the aggregates of every player",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reconcileRate <= 0 {
			return fmt.Errorf("--rate must be positive")
		}

		logger := newLogger()
		ctx := logging.AddToContext(cmd.Context(), logger)

		db, err := openDatabase(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		playerRepo := playerrepository.NewPostgres(db, schemaName)
		recomputePlayer := app.BuildRecomputePlayer(playerRepo)

		reconcileAllPlayers := app.BuildReconcileAllPlayers(
			playerRepo,
			recomputePlayer,
			rate.NewLimiter(rate.Limit(reconcileRate), 1),
		)

		start := time.Now()
		summary, err := reconcileAllPlayers(ctx)
		if err != nil {
			return fmt.Errorf("failed to reconcile players: %w", err)
		}

		fmt.Fprintf(
			cmd.OutOrStdout(),
			"Recomputed %d of %d players in %s (%d failed)\n",
			summary.Recomputed,
			summary.Players,
			time.Since(start).Round(time.Millisecond),
			summary.Failed,
		)
		if summary.Failed > 0 {
			return fmt.Errorf("%d players failed to recompute", summary.Failed)
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register demo players and matches for local development",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		ctx := logging.AddToContext(cmd.Context(), logger)

		db, err := openDatabase(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		playerRepo := playerrepository.NewPostgres(db, schemaName)
		matchRepo := matchrepository.NewPostgres(db, schemaName)
		recomputePlayer := app.BuildRecomputePlayer(playerRepo)

		result, err := seed(
			ctx,
			app.BuildCreatePlayer(playerRepo),
			app.BuildCreateMatch(matchRepo, recomputePlayer, time.Now),
			time.Now(),
		)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d players and %d matches\n", result.players, result.matches)
		return nil
	},
}
