package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[shortener.Code]*shortener.Link
	ids   map[string]shortener.Code // id -> code
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[shortener.Code]*shortener.Link),
		ids:   make(map[string]shortener.Code),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Code]; ok {
		return shortener.ErrCodeTaken
	}

	m.links[link.Code] = link.Clone()
	m.ids[link.ID] = link.Code

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return link.Clone(), nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.ids[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return m.links[code].Clone(), nil
}

func (m *MemoryStore) Exists(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[code]

	return ok, nil
}

func (m *MemoryStore) RecordClick(
	_ context.Context, code shortener.Code, now time.Time,
) (*shortener.ClickResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	counted, transitioned := shortener.Advance(link, now)

	return &shortener.ClickResult{
		Link:         link.Clone(),
		Counted:      counted,
		Transitioned: transitioned,
	}, nil
}

func (m *MemoryStore) MarkExpired(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return false, shortener.ErrNotFound
	}

	if link.Expired() {
		return false, nil
	}

	link.Status = shortener.StatusExpired

	return true, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

var _ shortener.Repository = (*MemoryStore)(nil)
