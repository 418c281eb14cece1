package metrics

import (
	"time"

	obserrors "github.com/target/mmk-product-admin/internal/observability/errors"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess    = "success"
	ResultError      = "error"
	ResultNoop       = "noop"
	ResultSuperseded = "superseded"
)

// Metric names emitted by the product listing.
const (
	MetricListingLoad         = "listing.load"
	MetricListingLoadDuration = "listing.load.duration"
	MetricListingResults      = "listing.results"
	MetricListingNavigation   = "listing.navigation"
)

// ListingMetric captures one product listing load for metric emission.
type ListingMetric struct {
	Trigger  string // mount, navigate, filter
	Result   string
	Results  int
	Duration time.Duration
	Err      error
}

// EmitListingLoad emits standardised listing load metrics.
func EmitListingLoad(sink statsd.Sink, in ListingMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"trigger": in.Trigger,
		"result":  in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count(MetricListingLoad, 1, tags)
	if in.Duration > 0 {
		sink.Timing(MetricListingLoadDuration, in.Duration, CloneTags(tags))
	}
	if in.Result == ResultSuccess {
		sink.Gauge(MetricListingResults, float64(in.Results), map[string]string{"trigger": in.Trigger})
	}
}

// EmitNavigation counts a next/prev navigation.
func EmitNavigation(sink statsd.Sink, direction, result string) {
	if sink == nil {
		return
	}
	sink.Count(MetricListingNavigation, 1, map[string]string{"direction": direction, "result": result})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Fanout forwards every metric to each non-nil sink.
type Fanout []statsd.Sink

var _ statsd.Sink = Fanout(nil)

// NewFanout drops nil sinks and returns nil when none remain.
func NewFanout(sinks ...statsd.Sink) statsd.Sink {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (f Fanout) Count(name string, value int64, tags map[string]string) {
	for _, s := range f {
		s.Count(name, value, tags)
	}
}

func (f Fanout) Gauge(name string, value float64, tags map[string]string) {
	for _, s := range f {
		s.Gauge(name, value, tags)
	}
}

func (f Fanout) Timing(name string, value time.Duration, tags map[string]string) {
	for _, s := range f {
		s.Timing(name, value, tags)
	}
}
