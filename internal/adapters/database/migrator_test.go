package database

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMigrator(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping migrator tests in short mode.")
	}
	t.Parallel()

	db, err := NewPostgresDatabase(LOCAL_CONNECTION_STRING)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	freshSchema := func(t *testing.T, name string) string {
		t.Helper()
		db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(name)))
		return name
	}

	t.Run("migrate is idempotent", func(t *testing.T) {
		t.Parallel()

		schemaName := freshSchema(t, "migrate_idempotent")
		migrator := NewDatabaseMigrator(db, logger)

		require.NoError(t, migrator.Migrate(t.Context(), schemaName))
		require.NoError(t, migrator.Migrate(t.Context(), schemaName))

		var tables []string
		err := db.SelectContext(t.Context(), &tables, `
			SELECT table_name FROM information_schema.tables
			WHERE table_schema = $1 AND table_name <> 'schema_migrations'
			ORDER BY table_name`, schemaName)
		require.NoError(t, err)
		require.Equal(t, []string{"match_stats", "matches", "players"}, tables)

		var totalDamageType string
		err = db.GetContext(t.Context(), &totalDamageType, `
			SELECT data_type FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = 'players' AND column_name = 'total_damage'`, schemaName)
		require.NoError(t, err)
		require.Equal(t, "bigint", totalDamageType)
	})

	t.Run("constraints reject invalid lines", func(t *testing.T) {
		t.Parallel()

		schemaName := freshSchema(t, "migrate_constraints")
		require.NoError(t, NewDatabaseMigrator(db, logger).Migrate(t.Context(), schemaName))

		tx, err := db.BeginTxx(t.Context(), nil)
		require.NoError(t, err)
		defer tx.Rollback()

		tx.MustExecContext(t.Context(), fmt.Sprintf("SET LOCAL search_path TO %s", pq.QuoteIdentifier(schemaName)))

		matchID := uuid.NewString()
		tx.MustExecContext(t.Context(), `
			INSERT INTO matches (id, title, map, played_at, team_a, team_b, score_a, score_b, total_rounds, created_at, updated_at)
			VALUES ($1, 'Scrim', 'Dust2', now(), 'A', 'B', 13, 3, 16, now(), now())`, matchID)

		_, err = tx.ExecContext(t.Context(), `
			INSERT INTO match_stats (match_id, position, player_id, kills, deaths, assists, headshots, damage, kast, rounds, won,
				rating, kpr, dpr, apr, hsr, adr)
			VALUES ($1, 0, $2, 5, 5, 0, 6, 500, 50, 16, true, 1, 0, 0, 0, 0, 0)`, matchID, uuid.NewString())
		var pqErr *pq.Error
		require.ErrorAs(t, err, &pqErr)
		require.Equal(t, pq.ErrorCode("23514"), pqErr.Code, "headshots above kills violates a check constraint")
	})

	t.Run("migrate up and down", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		schemaName := freshSchema(t, "migrate_up_down")
		require.NoError(t, NewDatabaseMigrator(db, logger).Migrate(ctx, schemaName))

		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		instance, err := newMigrateInstance(ctx, conn, schemaName)
		require.NoError(t, err)
		defer instance.Close()

		err = instance.Down()
		require.NoError(t, err, "error migrating down") // Should not even be ErrNoChange
	})
}
