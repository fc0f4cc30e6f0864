package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db, "sqlite"))
	return db
}

func testRecord(key string) *ProductRecord {
	return &ProductRecord{
		ManufacturerArticleNo: key,
		Manufacturer:          "HAIX",
		SupplierID:            "doenges",
		SupplierArticleNo:     "204711",
		Category:              "Stiefel",
		DisplayName:           "HAIX Fire Hero Xtreme",
		UnitPrice:             decimal.RequireFromString("319.90"),
		Currency:              "EUR",
	}
}

func TestProductRepositoryCreateAndFind(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	record := testRecord("507223")
	require.NoError(t, repo.Create(ctx, record))
	assert.NotEqual(t, uuid.Nil, record.ID)

	found, err := repo.FindByKey(ctx, "507223")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, "HAIX", found.Manufacturer)
	assert.Equal(t, "HAIX Fire Hero Xtreme", found.DisplayName)
	assert.True(t, found.UnitPrice.Equal(decimal.RequireFromString("319.90")))
	assert.False(t, found.RequiresReview)
	assert.Nil(t, found.SourceBatchID)
}

func TestProductRepositoryFindByKeyNotFound(t *testing.T) {
	repo := NewProductRepository(testDB(t))

	_, err := repo.FindByKey(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepositoryDuplicateKeyIsConflict(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testRecord("507223")))

	err := repo.Create(ctx, testRecord("507223"))
	assert.ErrorIs(t, err, ErrKeyConflict)
}

func TestProductRepositoryEmptyKeysDoNotCollide(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	// Items without a manufacturer article number are not deduplicable and
	// the unique index must not reject a second one.
	first := testRecord("")
	second := testRecord("")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestProductRepositoryUpdateReviewStatus(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	record := testRecord("507223")
	require.NoError(t, repo.Create(ctx, record))

	require.NoError(t, repo.UpdateReviewStatus(ctx, record.ID, true, "price mismatch"))

	found, err := repo.FindByKey(ctx, "507223")
	require.NoError(t, err)
	assert.True(t, found.RequiresReview)
	assert.Equal(t, "price mismatch", found.ReviewNotes)

	require.NoError(t, repo.UpdateReviewStatus(ctx, record.ID, false, ""))
	found, err = repo.FindByKey(ctx, "507223")
	require.NoError(t, err)
	assert.False(t, found.RequiresReview)
}

func TestProductRepositoryUpdateReviewStatusNotFound(t *testing.T) {
	repo := NewProductRepository(testDB(t))

	err := repo.UpdateReviewStatus(context.Background(), uuid.New(), true, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepositoryListRequiringReview(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	flagged := testRecord("507223")
	clean := testRecord("91740")
	require.NoError(t, repo.Create(ctx, flagged))
	require.NoError(t, repo.Create(ctx, clean))
	require.NoError(t, repo.UpdateReviewStatus(ctx, flagged.ID, true, "conflict"))

	records, err := repo.ListRequiringReview(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, flagged.ID, records[0].ID)
}

func TestProductRepositorySourceBatchRoundTrip(t *testing.T) {
	repo := NewProductRepository(testDB(t))
	ctx := context.Background()

	batchID := uuid.New()
	record := testRecord("507223")
	record.SourceBatchID = &batchID
	require.NoError(t, repo.Create(ctx, record))

	found, err := repo.FindByKey(ctx, "507223")
	require.NoError(t, err)
	require.NotNil(t, found.SourceBatchID)
	assert.Equal(t, batchID, *found.SourceBatchID)
}

func TestBatchRepositoryLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	batch := &IngestionBatch{
		Filename: "rechnung.pdf",
		SHA256:   "abc123",
	}
	require.NoError(t, repo.Create(ctx, batch))
	assert.NotEqual(t, uuid.Nil, batch.ID)
	assert.Equal(t, BatchStatusRunning, batch.Status)

	batch.SupplierID = "doenges"
	batch.Status = BatchStatusSucceeded
	batch.TotalItems = 10
	batch.Created = 8
	batch.SkippedDuplicate = 2
	batch.SuccessRate = 1.0
	require.NoError(t, repo.Finish(ctx, batch))
	require.NotNil(t, batch.CompletedAt)

	batches, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, batch.ID, batches[0].ID)
	assert.Equal(t, BatchStatusSucceeded, batches[0].Status)
	assert.Equal(t, 10, batches[0].TotalItems)
	assert.Equal(t, 8, batches[0].Created)
	assert.NotNil(t, batches[0].CompletedAt)
}

func TestBatchRepositoryFinishNotFound(t *testing.T) {
	repo := NewBatchRepository(testDB(t))

	err := repo.Finish(context.Background(), &IngestionBatch{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Migrate(context.Background(), db, "sqlite"))
}
