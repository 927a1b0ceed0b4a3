// Package internaldefs holds the metric name and help definitions shared by
// the OpenTelemetry and Prometheus exporters. It exists so both exporters
// expose identical series without duplicating the tables.
package internaldefs

import (
	goBearer "github.com/MrEthical07/goBearer"
)

// CounterDef binds a MetricID to its exported series name.
type CounterDef struct {
	ID   goBearer.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exported series name.
type HistogramDef struct {
	ID   goBearer.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter series.
var CounterDefs = []CounterDef{
	{ID: goBearer.MetricAuthInjected, Name: "gobearer_auth_injected_total", Help: "Requests sent with a Bearer authorization header."},
	{ID: goBearer.MetricAuthMissing, Name: "gobearer_auth_missing_total", Help: "Requests sent without a stored access token."},
	{ID: goBearer.MetricHarvestAccess, Name: "gobearer_harvest_access_total", Help: "Access tokens harvested from token-issuing responses."},
	{ID: goBearer.MetricHarvestRefresh, Name: "gobearer_harvest_refresh_total", Help: "Refresh tokens harvested from token-issuing responses."},
	{ID: goBearer.MetricRefreshLeader, Name: "gobearer_refresh_leader_total", Help: "Refresh cycles driven to the network."},
	{ID: goBearer.MetricRefreshFollower, Name: "gobearer_refresh_follower_total", Help: "Callers that joined an already in-flight refresh."},
	{ID: goBearer.MetricRefreshSuccess, Name: "gobearer_refresh_success_total", Help: "Refresh cycles that produced a new access token."},
	{ID: goBearer.MetricRefreshNoToken, Name: "gobearer_refresh_no_token_total", Help: "Refresh cycles resolved without a stored refresh token."},
	{ID: goBearer.MetricRefreshFailure, Name: "gobearer_refresh_failure_total", Help: "Refresh cycles that failed at the network or decode step."},
	{ID: goBearer.MetricTokensPurged, Name: "gobearer_tokens_purged_total", Help: "Token pair purges after a rejected refresh."},
	{ID: goBearer.MetricRetrySuccess, Name: "gobearer_retry_success_total", Help: "Transparent retries that reached the server."},
	{ID: goBearer.MetricRetryFailure, Name: "gobearer_retry_failure_total", Help: "Transparent retries that failed in transit."},
	{ID: goBearer.MetricStoreReadError, Name: "gobearer_store_read_error_total", Help: "Token store read failures, treated as token absence."},
	{ID: goBearer.MetricStoreWriteError, Name: "gobearer_store_write_error_total", Help: "Token store write failures, logged and swallowed."},
}

// HistogramDefs lists every exported histogram series.
var HistogramDefs = []HistogramDef{
	{ID: goBearer.MetricRefreshLatency, Name: "gobearer_refresh_latency_seconds", Help: "Refresh round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus "le"
// label format.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OpenTelemetry instrument names.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
