package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-product-admin/config"
	"github.com/target/mmk-product-admin/internal/observability/metrics"
)

type countingSweeper struct {
	mu     sync.Mutex
	calls  int
	counts []int
}

func (c *countingSweeper) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.counts) == 0 {
		return 0
	}
	n := c.counts[0]
	c.counts = c.counts[1:]
	return n
}

func (c *countingSweeper) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordedMetric struct {
	kind  string
	name  string
	value float64
	tags  map[string]string
}

type recordingSink struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (s *recordingSink) record(kind, name string, v float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, recordedMetric{kind: kind, name: name, value: v, tags: tags})
}

func (s *recordingSink) Count(name string, value int64, tags map[string]string) {
	s.record("count", name, float64(value), tags)
}

func (s *recordingSink) Gauge(name string, value float64, tags map[string]string) {
	s.record("gauge", name, value, tags)
}

func (s *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.record("timing", name, value.Seconds(), tags)
}

func (s *recordingSink) find(name string) []recordedMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedMetric
	for _, m := range s.metrics {
		if m.name == name {
			out = append(out, m)
		}
	}
	return out
}

func TestNewReaperService(t *testing.T) {
	cfg := config.ReaperConfig{Interval: time.Minute}

	_, err := NewReaperService(ReaperServiceOptions{Config: cfg})
	require.Error(t, err)

	_, err = NewReaperService(ReaperServiceOptions{Targets: []ReaperTarget{{Name: "views"}}, Config: cfg})
	require.Error(t, err)

	_, err = NewReaperService(ReaperServiceOptions{Targets: []ReaperTarget{{Name: "views", Store: &countingSweeper{}}}})
	require.Error(t, err)

	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []ReaperTarget{{Name: "views", Store: &countingSweeper{}}},
		Config:  cfg,
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestReaperService_RunOnce(t *testing.T) {
	t.Run("sweeps every target and records counts", func(t *testing.T) {
		views := &countingSweeper{counts: []int{3}}
		sessions := &countingSweeper{counts: []int{1}}
		sink := &recordingSink{}
		svc, err := NewReaperService(ReaperServiceOptions{
			Targets: []ReaperTarget{{Name: "view_state", Store: views}, {Name: "sessions", Store: sessions}},
			Config:  config.ReaperConfig{Interval: time.Minute},
			Metrics: sink,
		})
		require.NoError(t, err)

		require.NoError(t, svc.RunOnce(context.Background()))
		assert.Equal(t, 1, views.Calls())
		assert.Equal(t, 1, sessions.Calls())

		cleanup := sink.find(metrics.MetricReaperCleanup)
		require.Len(t, cleanup, 1)
		assert.Equal(t, metrics.ResultSuccess, cleanup[0].tags["result"])

		swept := map[string]float64{}
		for _, m := range sink.find(metrics.MetricReaperSwept) {
			swept[m.tags["store"]] = m.value
		}
		assert.Equal(t, map[string]float64{"view_state": 3, "sessions": 1}, swept)
		assert.Len(t, sink.find(metrics.MetricReaperLastSuccess), 1)
	})

	t.Run("nothing expired is a noop", func(t *testing.T) {
		sink := &recordingSink{}
		svc, err := NewReaperService(ReaperServiceOptions{
			Targets: []ReaperTarget{{Name: "view_state", Store: &countingSweeper{}}},
			Config:  config.ReaperConfig{Interval: time.Minute},
			Metrics: sink,
		})
		require.NoError(t, err)

		require.NoError(t, svc.RunOnce(context.Background()))
		cleanup := sink.find(metrics.MetricReaperCleanup)
		require.Len(t, cleanup, 1)
		assert.Equal(t, metrics.ResultNoop, cleanup[0].tags["result"])
		assert.Empty(t, sink.find(metrics.MetricReaperSwept))
	})

	t.Run("cancelled context skips stores", func(t *testing.T) {
		views := &countingSweeper{counts: []int{2}}
		svc, err := NewReaperService(ReaperServiceOptions{
			Targets: []ReaperTarget{{Name: "view_state", Store: views}},
			Config:  config.ReaperConfig{Interval: time.Minute},
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = svc.RunOnce(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, views.Calls())
	})
}

func TestReaperService_Run(t *testing.T) {
	views := &countingSweeper{}
	svc, err := NewReaperService(ReaperServiceOptions{
		Targets: []ReaperTarget{{Name: "view_state", Store: views}},
		Config:  config.ReaperConfig{Interval: 10 * time.Millisecond},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return views.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
