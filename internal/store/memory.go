package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is an in-memory Repository for tests and local runs. It counts
// calls so tests can assert that validation failures touch the store zero
// times, and lets individual operations be forced to fail.
type MemRepo struct {
	mu   sync.Mutex
	byID map[string]*OrderRecord
	ids  map[string]string // natural key -> document id

	FindCalls   int
	InsertCalls int
	UpdateCalls int

	FailFind   error
	FailInsert error
	FailUpdate error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		byID: make(map[string]*OrderRecord),
		ids:  make(map[string]string),
	}
}

func (m *MemRepo) FindByKey(ctx context.Context, key string) (string, *OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FailFind != nil {
		return "", nil, m.FailFind
	}
	id, ok := m.ids[key]
	if !ok {
		return "", nil, ErrNotFound
	}
	cp := *m.byID[id]
	return id, &cp, nil
}

func (m *MemRepo) Insert(ctx context.Context, rec *OrderRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.FailInsert != nil {
		return "", m.FailInsert
	}
	if _, ok := m.ids[rec.NaturalKey]; ok {
		return "", ErrDuplicateKey
	}
	id := uuid.NewString()
	cp := *rec
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.byID[id] = &cp
	m.ids[rec.NaturalKey] = id
	return id, nil
}

func (m *MemRepo) Update(ctx context.Context, id string, rec *OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.FailUpdate != nil {
		return m.FailUpdate
	}
	old, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	cp := *rec
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	m.byID[id] = &cp
	return nil
}

// Counts returns a consistent snapshot of the per-operation call counters,
// safe to poll while a deferred write runs.
func (m *MemRepo) Counts() (find, insert, update int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FindCalls, m.InsertCalls, m.UpdateCalls
}

// Len reports the number of stored documents.
func (m *MemRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Get returns the record stored under a natural key, or nil.
func (m *MemRepo) Get(key string) *OrderRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[key]
	if !ok {
		return nil
	}
	cp := *m.byID[id]
	return &cp
}
