// Package observability provides OpenTelemetry metrics (Prometheus exporter)
// and the trace-aware slog handler for the hub API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount        = "hub_http_requests_total"
	MetricNameRequestDuration     = "hub_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge = "hub_request_body_too_large_total"
	MetricNameRecordsCreated      = "hub_records_created_total"
	MetricNameRecordsUpdated      = "hub_records_updated_total"
	MetricNameBulkErrors          = "hub_bulk_errors_total"
	MetricNameIndexFailures       = "hub_index_failures_total"
	MetricNameCacheHits           = "hub_cache_hits_total"
	MetricNameCacheMisses         = "hub_cache_misses_total"
)

// Attribute keys.
const (
	AttrOperation = "operation"
	AttrCache     = "cache"
)

// AllowedBulkOperations for hub_bulk_errors_total (bounded cardinality).
var AllowedBulkOperations = map[string]bool{
	"create": true,
	"upsert": true,
	"update": true,
}

// AllowedCacheNames for the cache hit/miss counters.
var AllowedCacheNames = map[string]bool{
	"dataset_get_by_id": true,
}

// NormalizeBulkOperation returns op if allowed, otherwise "other".
func NormalizeBulkOperation(op string) string {
	if AllowedBulkOperations[op] {
		return op
	}

	return "other"
}

// NormalizeCacheName returns name if allowed, otherwise "other".
func NormalizeCacheName(name string) string {
	if AllowedCacheNames[name] {
		return name
	}

	return "other"
}
