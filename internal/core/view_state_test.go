package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-product-admin/internal/domain/model"
)

func TestMemoryViewStateStore_GetFresh(t *testing.T) {
	t.Parallel()
	store := NewMemoryViewStateStore(ViewStateConfig{PageLimit: 25})

	st, err := store.Get(context.Background(), "view-1")
	require.NoError(t, err)
	assert.Equal(t, "view-1", st.ViewID)
	assert.Empty(t, st.Products)
	assert.Equal(t, 25, st.Pagination.Limit)
	assert.True(t, st.Pagination.HasOffset)
	assert.False(t, st.Loading)

	_, err = store.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyViewID)
}

func TestMemoryViewStateStore_Update(t *testing.T) {
	t.Parallel()
	store := NewMemoryViewStateStore(DefaultViewStateConfig())
	ctx := context.Background()

	out, err := store.Update(ctx, "v", func(s *model.ListingState) error {
		s.Loading = true
		s.Generation++
		s.Products = []model.Product{{ID: 1}}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, out.Loading)
	assert.Equal(t, int64(1), out.Generation)

	// mutating the returned copy must not leak into the store
	out.Products[0].ID = 99

	got, err := store.Get(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Products[0].ID)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemoryViewStateStore_UpdateSkipAndError(t *testing.T) {
	t.Parallel()
	store := NewMemoryViewStateStore(DefaultViewStateConfig())
	ctx := context.Background()

	_, err := store.Update(ctx, "v", func(s *model.ListingState) error {
		s.Generation = 5
		return nil
	})
	require.NoError(t, err)

	out, err := store.Update(ctx, "v", func(s *model.ListingState) error {
		s.Generation = 100
		return ErrSkipUpdate
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Generation)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "v", func(s *model.ListingState) error {
		s.Generation = 100
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Generation)
}

func TestMemoryViewStateStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()
	store := NewMemoryViewStateStore(DefaultViewStateConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "v", func(s *model.ListingState) error {
				s.Generation++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Generation)
}

func TestMemoryViewStateStore_Expiry(t *testing.T) {
	t.Parallel()
	store := NewMemoryViewStateStore(ViewStateConfig{TTL: time.Minute})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Update(ctx, "v", func(s *model.ListingState) error {
		s.Generation = 3
		return nil
	})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	got, err := store.Get(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Generation)
	assert.Equal(t, 1, store.Sweep())

	require.NoError(t, store.Delete(ctx, "v"))
}
