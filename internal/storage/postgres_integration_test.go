//go:build integration

package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a disposable Postgres and returns a migrated handle.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("product_import_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, "postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db, "postgres"))
	return db
}

func TestPostgresProductRepository(t *testing.T) {
	db := startPostgres(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	record := testRecord("507223")
	require.NoError(t, repo.Create(ctx, record))

	// The partial unique index maps to ErrKeyConflict through lib/pq.
	err := repo.Create(ctx, testRecord("507223"))
	assert.ErrorIs(t, err, ErrKeyConflict)

	// Keyless records are exempt from the index.
	require.NoError(t, repo.Create(ctx, testRecord("")))
	require.NoError(t, repo.Create(ctx, testRecord("")))

	found, err := repo.FindByKey(ctx, "507223")
	require.NoError(t, err)
	assert.True(t, found.UnitPrice.Equal(decimal.RequireFromString("319.90")))

	require.NoError(t, repo.UpdateReviewStatus(ctx, record.ID, true, "price mismatch"))
	flagged, err := repo.ListRequiringReview(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, record.ID, flagged[0].ID)
}

func TestPostgresBatchRepository(t *testing.T) {
	db := startPostgres(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	batch := &IngestionBatch{Filename: "rechnung.pdf", SHA256: "abc123"}
	require.NoError(t, repo.Create(ctx, batch))

	batch.Status = BatchStatusSucceeded
	batch.TotalItems = 5
	batch.Created = 5
	batch.SuccessRate = 1.0
	require.NoError(t, repo.Finish(ctx, batch))

	batches, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, BatchStatusSucceeded, batches[0].Status)
}
