package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProductStore is an in-memory ProductStore. It enforces the same
// uniqueness contract as the SQL repositories and is safe for concurrent use,
// which makes it suitable for tests exercising the key-conflict fallback.
type MemoryProductStore struct {
	mu       sync.Mutex
	byKey    map[string]*ProductRecord
	byID     map[uuid.UUID]*ProductRecord
}

// NewMemoryProductStore creates an empty in-memory product store.
func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{
		byKey: make(map[string]*ProductRecord),
		byID:  make(map[uuid.UUID]*ProductRecord),
	}
}

// FindByKey retrieves a record by manufacturer article number.
func (s *MemoryProductStore) FindByKey(ctx context.Context, manufacturerArticleNo string) (*ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byKey[manufacturerArticleNo]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *record
	return &clone, nil
}

// Create inserts a record, enforcing key uniqueness.
func (s *MemoryProductStore) Create(ctx context.Context, record *ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ManufacturerArticleNo != "" {
		if _, exists := s.byKey[record.ManufacturerArticleNo]; exists {
			return fmt.Errorf("create product %q: %w", record.ManufacturerArticleNo, ErrKeyConflict)
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	clone := *record
	if clone.ManufacturerArticleNo != "" {
		s.byKey[clone.ManufacturerArticleNo] = &clone
	}
	s.byID[clone.ID] = &clone
	return nil
}

// UpdateReviewStatus flags or clears review on a stored record.
func (s *MemoryProductStore) UpdateReviewStatus(ctx context.Context, id uuid.UUID, requiresReview bool, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	record.RequiresReview = requiresReview
	record.ReviewNotes = notes
	record.UpdatedAt = time.Now()
	return nil
}

// Len returns the number of stored records.
func (s *MemoryProductStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// MemoryBatchStore is an in-memory BatchStore for tests and dry runs.
type MemoryBatchStore struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*IngestionBatch
}

// NewMemoryBatchStore creates an empty in-memory batch store.
func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{batches: make(map[uuid.UUID]*IngestionBatch)}
}

// Create records a new batch.
func (s *MemoryBatchStore) Create(ctx context.Context, batch *IngestionBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.StartedAt.IsZero() {
		batch.StartedAt = time.Now()
	}
	if batch.Status == "" {
		batch.Status = BatchStatusRunning
	}
	clone := *batch
	s.batches[clone.ID] = &clone
	return nil
}

// Finish updates the stored batch with final counts.
func (s *MemoryBatchStore) Finish(ctx context.Context, batch *IngestionBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[batch.ID]; !ok {
		return ErrNotFound
	}
	now := time.Now()
	batch.CompletedAt = &now
	clone := *batch
	s.batches[clone.ID] = &clone
	return nil
}

// List returns all stored batches in unspecified order.
func (s *MemoryBatchStore) List() []*IngestionBatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	batches := make([]*IngestionBatch, 0, len(s.batches))
	for _, batch := range s.batches {
		clone := *batch
		batches = append(batches, &clone)
	}
	return batches
}

// Get returns a stored batch by ID.
func (s *MemoryBatchStore) Get(id uuid.UUID) (*IngestionBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[id]
	if !ok {
		return nil, false
	}
	clone := *batch
	return &clone, true
}
