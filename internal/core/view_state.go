// Package core holds the ports of the product admin and the in-process implementations of them.
package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/target/mmk-product-admin/internal/domain/model"
)

// ErrSkipUpdate aborts a ViewStateStore.Update without writing.
var ErrSkipUpdate = errors.New("skip view state update")

// ErrEmptyViewID is returned when a view state operation has no view ID.
var ErrEmptyViewID = errors.New("view id cannot be empty")

// ViewStateConfig holds configuration shared by view state stores.
type ViewStateConfig struct {
	TTL       time.Duration `json:"ttl"`
	PageLimit int           `json:"page_limit"`
}

// DefaultViewStateConfig returns a ViewStateConfig with sensible defaults.
func DefaultViewStateConfig() ViewStateConfig {
	return ViewStateConfig{
		TTL:       30 * time.Minute,
		PageLimit: model.DefaultPageLimit,
	}
}

type memoryEntry struct {
	state     model.ListingState
	expiresAt time.Time
}

// MemoryViewStateStore keeps view state in process memory.
// Suitable for a single instance; use the Redis store when running more than one.
type MemoryViewStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	cfg     ViewStateConfig
	now     func() time.Time
}

// NewMemoryViewStateStore creates a MemoryViewStateStore.
func NewMemoryViewStateStore(cfg ViewStateConfig) *MemoryViewStateStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultViewStateConfig().TTL
	}
	return &MemoryViewStateStore{
		entries: make(map[string]memoryEntry),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Get returns a copy of the stored state or a fresh one.
func (s *MemoryViewStateStore) Get(_ context.Context, viewID string) (*model.ListingState, error) {
	if viewID == "" {
		return nil, ErrEmptyViewID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(viewID)
	return &st, nil
}

// Update runs fn under the store lock.
func (s *MemoryViewStateStore) Update(
	_ context.Context,
	viewID string,
	fn func(*model.ListingState) error,
) (*model.ListingState, error) {
	if viewID == "" {
		return nil, ErrEmptyViewID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(viewID)
	if err := fn(&st); err != nil {
		if errors.Is(err, ErrSkipUpdate) {
			cur := s.load(viewID)
			return &cur, nil
		}
		return nil, err
	}
	st.ViewID = viewID
	st.UpdatedAt = s.now()
	s.entries[viewID] = memoryEntry{state: st.Clone(), expiresAt: s.now().Add(s.cfg.TTL)}
	return &st, nil
}

// Delete removes the state for viewID.
func (s *MemoryViewStateStore) Delete(_ context.Context, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, viewID)
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *MemoryViewStateStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// load must be called with mu held.
func (s *MemoryViewStateStore) load(viewID string) model.ListingState {
	e, ok := s.entries[viewID]
	if !ok || s.now().After(e.expiresAt) {
		return *model.NewListingState(viewID, s.cfg.PageLimit)
	}
	return e.state.Clone()
}
