package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Amund211/fragstat/internal/adapters/database"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	databaseURL string
	schemaName  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "fragstat-admin",
	Short: "Maintenance commands for the fragstat database",
	Long: `Administrative commands that operate directly on the fragstat database:
run migrations, recompute player aggregates and seed demo data.

Flags can also be set through the environment, e.g. --database-url as DATABASE_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyEnvDefaults(cmd.Flags())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to the local development database)")
	flags.StringVar(&schemaName, "schema", database.GetSchemaName(false), "Schema to operate on")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// envName maps a flag name to its environment variable, e.g. database-url -> DATABASE_URL
func envName(flagName string) string {
	return strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// applyEnvDefaults sets every flag not given on the command line from its environment variable
func applyEnvDefaults(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(flag *pflag.Flag) {
		if err != nil || flag.Changed {
			return
		}
		value, ok := os.LookupEnv(envName(flag.Name))
		if !ok || value == "" {
			return
		}
		if setErr := flags.Set(flag.Name, value); setErr != nil {
			err = fmt.Errorf("invalid value for %s from environment: %w", envName(flag.Name), setErr)
		}
	})
	return err
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	).With("component", "admin")
}

func openDatabase(logger *slog.Logger) (*sqlx.DB, error) {
	connectionString := databaseURL
	if connectionString == "" {
		logger.Info("No database url provided, using the local database")
		connectionString = database.LOCAL_CONNECTION_STRING
	}

	db, err := database.NewPostgresDatabase(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fragstat-admin: %s\n", err)
		os.Exit(1)
	}
}
