package metrics

// Metric names emitted by the reaper.
const (
	MetricReaperCleanup         = "reaper.cleanup"
	MetricReaperCleanupDuration = "reaper.cleanup_duration"
	MetricReaperSwept           = "reaper.swept"
	MetricReaperLastSuccess     = "reaper.last_success_epoch"
)

// ReaperDefinitions declares the reaper metrics.
var ReaperDefinitions = []Definition{
	{Name: MetricReaperCleanup, Help: "Reaper passes by outcome.", Kind: KindCounter, Labels: []string{"result", "error_class"}},
	{Name: MetricReaperCleanupDuration, Help: "Reaper pass latency in seconds.", Kind: KindHistogram, Labels: []string{"result", "error_class"}},
	{Name: MetricReaperSwept, Help: "Expired entries removed per store.", Kind: KindCounter, Labels: []string{"store"}},
	{Name: MetricReaperLastSuccess, Help: "Unix time of the last successful reaper pass.", Kind: KindGauge},
}
