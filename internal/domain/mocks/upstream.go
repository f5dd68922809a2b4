package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/ersonp/pokecache/internal/domain/entities"
	"github.com/ersonp/pokecache/internal/domain/ports"
)

// UpstreamClient is a mock implementation of ports.UpstreamClient.
type UpstreamClient struct {
	mu sync.Mutex

	// Pokemon are served by id and by name.
	Pokemon []entities.Pokemon
	// Names is the catalog returned by ListAllNames.
	Names []string

	// FetchErr is returned by FetchByID and FetchByName when set.
	FetchErr error
	// FetchErrByName overrides FetchErr for specific names.
	FetchErrByName map[string]error
	// ListErr is returned by ListAllNames when set.
	ListErr error

	// Call tracking
	FetchByIDCalls   []int
	FetchByNameCalls []string
	ListCallCount    int
}

// FetchByID returns the configured Pokemon with the given id.
func (m *UpstreamClient) FetchByID(_ context.Context, id int) (entities.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchByIDCalls = append(m.FetchByIDCalls, id)
	if m.FetchErr != nil {
		return entities.Pokemon{}, m.FetchErr
	}
	for _, p := range m.Pokemon {
		if p.ID == id {
			return p, nil
		}
	}
	return entities.Pokemon{}, fmt.Errorf("pokemon %d: %w", id, ports.ErrNotFound)
}

// FetchByName returns the configured Pokemon with the given name.
func (m *UpstreamClient) FetchByName(_ context.Context, name string) (entities.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchByNameCalls = append(m.FetchByNameCalls, name)
	if err, ok := m.FetchErrByName[name]; ok {
		return entities.Pokemon{}, err
	}
	if m.FetchErr != nil {
		return entities.Pokemon{}, m.FetchErr
	}
	for _, p := range m.Pokemon {
		if p.Name == name {
			return p, nil
		}
	}
	return entities.Pokemon{}, fmt.Errorf("pokemon %q: %w", name, ports.ErrNotFound)
}

// ListAllNames returns the configured catalog.
func (m *UpstreamClient) ListAllNames(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCallCount++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]string(nil), m.Names...), nil
}

// TotalCalls returns the number of upstream calls of any kind.
func (m *UpstreamClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchByIDCalls) + len(m.FetchByNameCalls) + m.ListCallCount
}

// NameCalls returns a copy of the names passed to FetchByName.
func (m *UpstreamClient) NameCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.FetchByNameCalls...)
}

// IDCalls returns a copy of the ids passed to FetchByID.
func (m *UpstreamClient) IDCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.FetchByIDCalls...)
}
