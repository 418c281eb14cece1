package statsd

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Sink describes the minimal interface required to emit StatsD-style metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes how to connect to a DogStatsD agent.
type Config struct {
	Enabled       bool
	Address       string
	Prefix        string
	Logger        *slog.Logger
	GlobalTags    map[string]string
	FlushInterval time.Duration
}

// Client emits metrics to a DogStatsD agent.
// A disabled or nil client silently drops everything.
type Client struct {
	mu     sync.Mutex
	dd     statsd.ClientInterface
	logger *slog.Logger
}

var _ Sink = (*Client)(nil)

// NewClient creates the DogStatsD client unless disabled.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := &Client{logger: logger}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return client, nil
	}

	opts := []statsd.Option{statsd.WithTags(formatTags(cfg.GlobalTags))}
	if prefix := sanitizePrefix(cfg.Prefix); prefix != "" {
		opts = append(opts, statsd.WithNamespace(prefix+"."))
	}
	if cfg.FlushInterval > 0 {
		opts = append(opts, statsd.WithBufferFlushInterval(cfg.FlushInterval))
	}

	dd, err := statsd.New(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("statsd client %s: %w", address, err)
	}
	client.dd = dd
	return client, nil
}

// Enabled reports whether the client actively emits metrics.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dd != nil
}

// Count increments a counter metric.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.emit(name, func(dd statsd.ClientInterface, metric string) error {
		return dd.Count(metric, value, formatTags(tags), 1)
	})
}

// Gauge records the current value for a gauge metric.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.emit(name, func(dd statsd.ClientInterface, metric string) error {
		return dd.Gauge(metric, value, formatTags(tags), 1)
	})
}

// Timing records a timing metric.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	c.emit(name, func(dd statsd.ClientInterface, metric string) error {
		return dd.Timing(metric, value, formatTags(tags), 1)
	})
}

// Close flushes buffered metrics and releases the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dd == nil {
		return nil
	}
	err := c.dd.Close()
	c.dd = nil
	return err
}

func (c *Client) emit(name string, send func(statsd.ClientInterface, string) error) {
	if c == nil {
		return
	}
	metric := normalizeMetricName(name)
	if metric == "" {
		return
	}
	c.mu.Lock()
	dd := c.dd
	c.mu.Unlock()
	if dd == nil {
		return
	}
	if err := send(dd, metric); err != nil {
		c.logger.Debug("statsd write failed", "metric", metric, "error", err)
	}
}

func sanitizePrefix(prefix string) string {
	p := strings.TrimSpace(prefix)
	return strings.Trim(p, ".")
}

func normalizeMetricName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "/", "_")
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	return strings.Trim(n, ".")
}

// formatTags converts a tag map into sorted DogStatsD "key:value" tags.
func formatTags(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for k, v := range tags {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out = append(out, key+":"+strings.TrimSpace(v))
	}
	sort.Strings(out)
	return out
}
