package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puehres/product-import/internal/blobstore"
	"github.com/puehres/product-import/internal/conflict"
	"github.com/puehres/product-import/internal/dedup"
	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/storage"
	"github.com/puehres/product-import/internal/supplier"
)

// stubExtractor returns canned content, standing in for real PDF parsing so
// pipeline tests control exactly what the downstream stages see.
type stubExtractor struct {
	content *extract.Content
	err     error
}

func (s stubExtractor) Extract(ctx context.Context, data []byte, filename string) (*extract.Content, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.content, nil
}

const doengesLetterhead = "Dönges GmbH & Co. KG\nJägerwald 11, 42897 Remscheid\nRechnung Nr. 2024-1883"

func doengesContent(tables ...extract.Table) *extract.Content {
	return &extract.Content{
		Text:   doengesLetterhead,
		Tables: tables,
		Pages:  1,
	}
}

func doengesTable(rows ...[]string) extract.Table {
	table := extract.Table{
		{"Pos", "Art.-Nr.", "Warengruppe", "Bezeichnung", "Menge", "Einzelpreis"},
	}
	return append(table, rows...)
}

type fixture struct {
	pipeline *Pipeline
	products *storage.MemoryProductStore
	batches  *storage.MemoryBatchStore
	blobs    *blobstore.MemoryStore
}

func newFixture(t *testing.T, extractor extract.Extractor) *fixture {
	t.Helper()

	products := storage.NewMemoryProductStore()
	batches := storage.NewMemoryBatchStore()
	blobs := blobstore.NewMemoryStore()

	classifier := supplier.NewClassifier(supplier.DefaultRegistry(), 0.5, observability.Nop())
	engine := dedup.NewEngine(products, conflict.NewDetector(conflict.DefaultConfig()), observability.Nop())

	return &fixture{
		pipeline: NewPipeline(extractor, classifier, parse.DefaultRegistry(), engine, blobs, batches, observability.Nop()),
		products: products,
		batches:  batches,
		blobs:    blobs,
	}
}

func TestIngestCreatesRecords(t *testing.T) {
	content := doengesContent(doengesTable(
		[]string{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
		[]string{"2", "310265", "Atemschutz", "Dräger X-plore 3300 (Herst.Nr: R 55330)", "10", "24,50"},
	))
	f := newFixture(t, stubExtractor{content: content})

	result, err := f.pipeline.Ingest(context.Background(), "rechnung.pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	assert.Equal(t, supplier.IDDoenges, result.SupplierID)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)
	assert.Equal(t, 2, result.TotalItems)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.SkippedDuplicate)
	assert.Zero(t, result.ParseFailures)
	assert.Equal(t, 1.0, result.SuccessRate())
	assert.Equal(t, 2, f.products.Len())

	// The raw document is retained and retrievable.
	data, err := f.blobs.Fetch(context.Background(), result.BlobLocation)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)

	// The batch row carries the final counts.
	batch, ok := f.batches.Get(result.BatchID)
	require.True(t, ok)
	assert.Equal(t, storage.BatchStatusSucceeded, batch.Status)
	assert.Equal(t, supplier.IDDoenges, batch.SupplierID)
	assert.Equal(t, 2, batch.Created)
	assert.Equal(t, result.SHA256, batch.SHA256)
	assert.NotNil(t, batch.CompletedAt)
}

func TestIngestSameDocumentTwiceSkipsAll(t *testing.T) {
	content := doengesContent(doengesTable(
		[]string{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
		[]string{"2", "310265", "Atemschutz", "Dräger X-plore 3300 (Herst.Nr: R 55330)", "10", "24,50"},
	))
	f := newFixture(t, stubExtractor{content: content})
	ctx := context.Background()

	_, err := f.pipeline.Ingest(ctx, "rechnung.pdf", []byte("doc"))
	require.NoError(t, err)

	result, err := f.pipeline.Ingest(ctx, "rechnung.pdf", []byte("doc"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SkippedDuplicate)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.FlaggedConflict)
	assert.Equal(t, 2, f.products.Len())
}

func TestIngestPriceConflictFlagsRecord(t *testing.T) {
	first := doengesContent(doengesTable(
		[]string{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
	))
	f := newFixture(t, stubExtractor{content: first})
	ctx := context.Background()

	_, err := f.pipeline.Ingest(ctx, "rechnung-1.pdf", []byte("doc1"))
	require.NoError(t, err)

	second := doengesContent(doengesTable(
		[]string{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "399,00"},
	))
	f.pipeline.extractor = stubExtractor{content: second}

	result, err := f.pipeline.Ingest(ctx, "rechnung-2.pdf", []byte("doc2"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.FlaggedConflict)
	assert.Zero(t, result.Created)

	stored, err := f.products.FindByKey(ctx, "507223")
	require.NoError(t, err)
	assert.True(t, stored.RequiresReview)
	assert.Contains(t, stored.ReviewNotes, "unit_price")
	// The original price survives the conflicting upload.
	assert.Equal(t, "319.9", stored.UnitPrice.String())
}

func TestIngestCorruptDocumentFailsBatch(t *testing.T) {
	corrupt := &extract.CorruptError{Filename: "broken.pdf"}
	f := newFixture(t, stubExtractor{err: corrupt})

	_, err := f.pipeline.Ingest(context.Background(), "broken.pdf", []byte("not a pdf"))
	require.Error(t, err)

	var ce *extract.CorruptError
	assert.ErrorAs(t, err, &ce)

	batch := onlyBatch(t, f.batches)
	assert.Equal(t, storage.BatchStatusFailed, batch.Status)
	assert.Equal(t, 0, f.products.Len())
}

func TestIngestUnknownSupplierFailsBatch(t *testing.T) {
	content := &extract.Content{Text: "Some unrelated vendor letterhead", Pages: 1}
	f := newFixture(t, stubExtractor{content: content})

	_, err := f.pipeline.Ingest(context.Background(), "unknown.pdf", []byte("doc"))
	require.Error(t, err)

	var unknown *supplier.UnknownSupplierError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{supplier.IDDoenges, supplier.IDSeiz}, unknown.Supported)

	batch := onlyBatch(t, f.batches)
	assert.Equal(t, storage.BatchStatusFailed, batch.Status)
	assert.Equal(t, 0, f.products.Len())
}

func TestIngestBadRowDoesNotAbortBatch(t *testing.T) {
	content := doengesContent(doengesTable(
		[]string{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
		[]string{"2", "120330", "Werkzeug", "Holmatro Schneidgerät, Herst.-Nr. CU 5050", "keine", "1.234,56"},
		[]string{"3", "310265", "Atemschutz", "Dräger X-plore 3300 (Herst.Nr: R 55330)", "10", "24,50"},
	))
	f := newFixture(t, stubExtractor{content: content})

	result, err := f.pipeline.Ingest(context.Background(), "rechnung.pdf", []byte("doc"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalItems)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.ParseFailures)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Position)
	assert.InDelta(t, 2.0/3.0, result.SuccessRate(), 1e-9)

	batch, ok := f.batches.Get(result.BatchID)
	require.True(t, ok)
	assert.Equal(t, storage.BatchStatusSucceeded, batch.Status)
	assert.Equal(t, 1, batch.ParseFailures)
}

func TestIngestItemWithoutKeyIsCounted(t *testing.T) {
	content := doengesContent(doengesTable(
		[]string{"1", "450112", "Werkzeug", "Feuerwehraxt nach DIN 14900", "4", "49,00"},
		[]string{"2", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
	))
	f := newFixture(t, stubExtractor{content: content})

	result, err := f.pipeline.Ingest(context.Background(), "rechnung.pdf", []byte("doc"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SkippedNoKey)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, f.products.Len())
}

func TestIngestConcurrentSameDocument(t *testing.T) {
	content := doengesContent(doengesTable(
		[]string{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
		[]string{"2", "310265", "Atemschutz", "Dräger X-plore 3300 (Herst.Nr: R 55330)", "10", "24,50"},
	))
	f := newFixture(t, stubExtractor{content: content})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.pipeline.Ingest(context.Background(), "rechnung.pdf", []byte("doc"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// However the uploads interleave, each key yields exactly one record.
	assert.Equal(t, 2, f.products.Len())
}

// onlyBatch returns the single batch in the store; tests using it ingest
// exactly one document.
func onlyBatch(t *testing.T, store *storage.MemoryBatchStore) *storage.IngestionBatch {
	t.Helper()
	batches := store.List()
	require.Len(t, batches, 1)
	return batches[0]
}
