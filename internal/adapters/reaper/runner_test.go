package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/core"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/domain/model"
)

func TestNewRunner_NoStores(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Config: config.ReaperConfig{Interval: time.Minute}})
	require.ErrorIs(t, err, ErrNothingToReap)
}

func TestRunner_SweepsMemoryStores(t *testing.T) {
	ctx := context.Background()
	views := core.NewMemoryViewStateStore(core.ViewStateConfig{TTL: 20 * time.Millisecond})
	sessions := core.NewMemorySessionStore()

	_, err := views.Update(ctx, "view-1", func(st *model.ListingState) error {
		st.Loading = true
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "s1", ExpiresAt: time.Now().Add(20 * time.Millisecond)}))

	r, err := NewRunner(RunnerOptions{
		ViewStates: views,
		Sessions:   sessions,
		Config:     config.ReaperConfig{Interval: 10 * time.Millisecond},
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- r.Run(runCtx) }()

	// Several ticks past expiry: the reaper has already removed both entries.
	time.Sleep(150 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 0, views.Sweep())
	assert.Equal(t, 0, sessions.Sweep())
}
