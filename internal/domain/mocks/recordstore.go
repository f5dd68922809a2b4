// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ersonp/pokecache/internal/domain/entities"
)

// RecordStore is an in-memory mock of ports.RecordStore that keeps insertion order.
type RecordStore struct {
	mu      sync.Mutex
	records []entities.Pokemon

	// Unavailable makes IsAvailable report false.
	Unavailable bool
	// Err is returned by every query when set.
	Err error
	// UpsertErr is returned by UpsertIfAbsent when set.
	UpsertErr error

	// Call tracking
	FindCallCount   int
	UpsertCallCount int
	SchemaCallCount int
	Closed          bool
}

// NewRecordStore creates a mock store seeded with the given records.
func NewRecordStore(seed ...entities.Pokemon) *RecordStore {
	return &RecordStore{records: append([]entities.Pokemon(nil), seed...)}
}

// EnsureSchema records the call.
func (m *RecordStore) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchemaCallCount++
	return m.Err
}

// Close marks the mock closed.
func (m *RecordStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// IsAvailable reports whether the mock is marked available.
func (m *RecordStore) IsAvailable(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Unavailable
}

// FindByIDOrName finds a record by id or name.
func (m *RecordStore) FindByIDOrName(_ context.Context, identifier string) (*entities.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCallCount++
	if m.Err != nil {
		return nil, m.Err
	}

	id, idErr := strconv.Atoi(identifier)
	for i := range m.records {
		r := m.records[i]
		if (idErr == nil && r.ID == id) || (idErr != nil && r.Name == identifier) {
			return &r, nil
		}
	}
	return nil, nil
}

// FindBySubstring returns records whose name contains text, sorted by name.
func (m *RecordStore) FindBySubstring(_ context.Context, text string, limit int) ([]entities.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCallCount++
	if m.Err != nil {
		return nil, m.Err
	}

	text = strings.ToLower(text)
	var result []entities.Pokemon
	for _, r := range m.records {
		if strings.Contains(r.Name, text) {
			result = append(result, r)
		}
	}
	// Sort by name for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// FindNamesBySubstring returns names whose value contains text.
func (m *RecordStore) FindNamesBySubstring(ctx context.Context, text string, limit int) ([]string, error) {
	records, err := m.FindBySubstring(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names, nil
}

// FindAtOffset returns the n-th record in insertion order.
func (m *RecordStore) FindAtOffset(_ context.Context, n int) (*entities.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if n < 1 || n > len(m.records) {
		return nil, nil
	}
	r := m.records[n-1]
	return &r, nil
}

// UpsertIfAbsent appends the record unless the name already exists.
func (m *RecordStore) UpsertIfAbsent(_ context.Context, p entities.Pokemon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCallCount++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	now := time.Now()
	for i := range m.records {
		if m.records[i].Name == p.Name {
			m.records[i].LastUpdated = now
			return nil
		}
	}
	p.LastUpdated = now
	m.records = append(m.records, p)
	return nil
}

// Count returns the number of records.
func (m *RecordStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.records), nil
}

// Records returns a snapshot of the stored records.
func (m *RecordStore) Records() []entities.Pokemon {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.Pokemon(nil), m.records...)
}

// Calls returns the number of find and upsert calls made so far.
func (m *RecordStore) Calls() (finds, upserts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FindCallCount, m.UpsertCallCount
}
