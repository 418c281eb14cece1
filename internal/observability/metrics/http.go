package metrics

import (
	"strconv"
	"time"

	"github.com/target/mmk-product-admin/internal/observability/statsd"
)

// Metric names emitted by the HTTP server.
const (
	MetricHTTPRequests        = "http.requests"
	MetricHTTPRequestDuration = "http.request.duration"
)

// HTTPDefinitions declares the HTTP server metrics.
var HTTPDefinitions = []Definition{
	{Name: MetricHTTPRequests, Help: "HTTP requests by route and status.", Kind: KindCounter, Labels: []string{"route", "method", "status"}},
	{Name: MetricHTTPRequestDuration, Help: "HTTP request latency in seconds.", Kind: KindHistogram, Labels: []string{"route", "method"}},
}

// AllDefinitions returns every metric the service declares.
func AllDefinitions() []Definition {
	out := make([]Definition, 0, len(ListingDefinitions)+len(HTTPDefinitions)+len(ReaperDefinitions))
	out = append(out, ListingDefinitions...)
	out = append(out, HTTPDefinitions...)
	return append(out, ReaperDefinitions...)
}

// HTTPRequest describes one served request.
type HTTPRequest struct {
	Route    string // mux pattern, never the raw path
	Method   string
	Status   int
	Duration time.Duration
}

// EmitHTTPRequest records a served request.
func EmitHTTPRequest(sink statsd.Sink, in HTTPRequest) {
	if sink == nil {
		return
	}
	route := in.Route
	if route == "" {
		route = "unmatched"
	}
	sink.Count(MetricHTTPRequests, 1, map[string]string{
		"route":  route,
		"method": in.Method,
		"status": strconv.Itoa(in.Status),
	})
	sink.Timing(MetricHTTPRequestDuration, in.Duration, map[string]string{"route": route, "method": in.Method})
}
