package database

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestGetSchemaName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "fragstat", GetSchemaName(false))
	require.Equal(t, "fragstat_test", GetSchemaName(true))
}

func TestDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	t.Run("NewPostgresDatabase applies pool limits", func(t *testing.T) {
		t.Parallel()

		db, err := NewPostgresDatabase(LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		defer db.Close()

		require.Equal(t, maxOpenConns, db.Stats().MaxOpenConnections)
		require.NoError(t, db.PingContext(t.Context()))
	})

	t.Run("NewPostgresDatabase rejects unreachable servers", func(t *testing.T) {
		t.Parallel()

		_, err := NewPostgresDatabase("host=127.0.0.1 port=1 user=postgres sslmode=disable connect_timeout=1")
		require.Error(t, err)
	})

	t.Run("createDatabaseIfNotExists", func(t *testing.T) {
		t.Parallel()

		db, err := sqlx.Connect("postgres", LOCAL_CONNECTION_STRING)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		t.Run("already existing", func(t *testing.T) {
			t.Parallel()

			require.NoError(t, createDatabaseIfNotExists(t.Context(), db, "postgres"))
			require.NoError(t, createDatabaseIfNotExists(t.Context(), db, DB_NAME))
		})

		t.Run("new database twice", func(t *testing.T) {
			t.Parallel()

			dbName := fmt.Sprintf("zz_fragstat_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))

			require.NoError(t, createDatabaseIfNotExists(t.Context(), db, dbName))
			require.NoError(t, createDatabaseIfNotExists(t.Context(), db, dbName))

			var exists bool
			err := db.GetContext(t.Context(), &exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName)
			require.NoError(t, err)
			require.True(t, exists)
		})
	})
}
