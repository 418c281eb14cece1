package metrics

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
)

// Kind is the Prometheus collector type backing a metric.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

// Definition declares a metric and its label names up front.
type Definition struct {
	Name   string
	Help   string
	Kind   Kind
	Labels []string
}

// ListingDefinitions declares every metric the listing emits.
var ListingDefinitions = []Definition{
	{Name: MetricListingLoad, Help: "Product listing loads by outcome.", Kind: KindCounter, Labels: []string{"trigger", "result", "error_class"}},
	{Name: MetricListingLoadDuration, Help: "Product listing load latency in seconds.", Kind: KindHistogram, Labels: []string{"trigger", "result", "error_class"}},
	{Name: MetricListingResults, Help: "Rows returned by the latest listing load.", Kind: KindGauge, Labels: []string{"trigger"}},
	{Name: MetricListingNavigation, Help: "Next/previous navigations.", Kind: KindCounter, Labels: []string{"direction", "result"}},
}

// PrometheusSink adapts the statsd.Sink interface onto Prometheus collectors.
// Unknown metric names are dropped; missing labels are reported as empty strings.
type PrometheusSink struct {
	registry   *prometheus.Registry
	logger     *slog.Logger
	labels     map[string][]string
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

var _ statsd.Sink = (*PrometheusSink)(nil)

// PrometheusOptions configures NewPrometheusSink.
type PrometheusOptions struct {
	Namespace   string
	Definitions []Definition
	Logger      *slog.Logger
	// WithRuntime registers Go runtime and process collectors.
	WithRuntime bool
}

// NewPrometheusSink registers the declared metrics on a private registry.
func NewPrometheusSink(opts PrometheusOptions) (*PrometheusSink, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defs := opts.Definitions
	if defs == nil {
		defs = AllDefinitions()
	}
	s := &PrometheusSink{
		registry:   prometheus.NewRegistry(),
		logger:     logger,
		labels:     make(map[string][]string, len(defs)),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	if opts.WithRuntime {
		if err := s.registry.Register(collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := s.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
	}

	for _, d := range defs {
		name := promName(d.Name)
		var c prometheus.Collector
		switch d.Kind {
		case KindCounter:
			v := prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: opts.Namespace, Name: name + "_total", Help: d.Help,
			}, d.Labels)
			s.counters[d.Name] = v
			c = v
		case KindGauge:
			v := prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: opts.Namespace, Name: name, Help: d.Help,
			}, d.Labels)
			s.gauges[d.Name] = v
			c = v
		case KindHistogram:
			v := prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: opts.Namespace, Name: name + "_seconds", Help: d.Help, Buckets: prometheus.DefBuckets,
			}, d.Labels)
			s.histograms[d.Name] = v
			c = v
		}
		if err := s.registry.Register(c); err != nil {
			return nil, err
		}
		s.labels[d.Name] = d.Labels
	}
	return s, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (s *PrometheusSink) Registry() *prometheus.Registry { return s.registry }

// Handler serves the registry in the Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

func (s *PrometheusSink) Count(name string, value int64, tags map[string]string) {
	m, ok := s.counters[name]
	if !ok {
		s.logger.Debug("prometheus counter not declared", "name", name)
		return
	}
	m.With(s.formatLabels(name, tags)).Add(float64(value))
}

func (s *PrometheusSink) Gauge(name string, value float64, tags map[string]string) {
	m, ok := s.gauges[name]
	if !ok {
		s.logger.Debug("prometheus gauge not declared", "name", name)
		return
	}
	m.With(s.formatLabels(name, tags)).Set(value)
}

func (s *PrometheusSink) Timing(name string, value time.Duration, tags map[string]string) {
	m, ok := s.histograms[name]
	if !ok {
		s.logger.Debug("prometheus histogram not declared", "name", name)
		return
	}
	m.With(s.formatLabels(name, tags)).Observe(value.Seconds())
}

// formatLabels keeps only declared label names so With never panics.
func (s *PrometheusSink) formatLabels(name string, tags map[string]string) prometheus.Labels {
	declared := s.labels[name]
	l := make(prometheus.Labels, len(declared))
	for _, k := range declared {
		l[k] = tags[k]
	}
	return l
}

func promName(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", "/", "_")
	return r.Replace(strings.TrimSpace(name))
}
