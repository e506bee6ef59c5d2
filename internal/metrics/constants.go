package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal    = "inventory_http_requests_total"
	MetricNameHTTPRequestDuration  = "inventory_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "inventory_http_requests_in_flight"

	MetricNameRowsStaged            = "inventory_rows_staged_total"
	MetricNameStagingSessionsClosed = "inventory_staging_sessions_closed_total"
	MetricNameImportsTotal          = "inventory_imports_total"
	MetricNameImportDuration        = "inventory_import_duration_seconds"
	MetricNameImportsInFlight       = "inventory_imports_in_flight"
	MetricNameRowsImported          = "inventory_rows_imported_total"
	MetricNameItemMutations         = "inventory_item_mutations_total"
	MetricNameImageListingCacheHits = "inventory_image_listing_cache_hits_total"
	MetricNameImageListingCacheMiss = "inventory_image_listing_cache_misses_total"
)

// Help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being processed"

	HelpTextRowsStaged            = "Total number of CSV rows staged for review"
	HelpTextStagingSessionsClosed = "Staging sessions removed by commit, discard or expiry"
	HelpTextImportsTotal          = "Import commits by outcome"
	HelpTextImportDuration        = "Time spent inserting an import batch"
	HelpTextImportsInFlight       = "Imports currently holding a limiter slot"
	HelpTextRowsImported          = "Total number of inventory rows inserted by imports"
	HelpTextItemMutations         = "Inventory updates, deletes and clears"
	HelpTextImageListingCacheHits = "Image directory listings served from cache"
	HelpTextImageListingCacheMiss = "Image directory listings read from disk"
)

// Labels
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelOutcome  = "outcome"
	LabelMutation = "mutation"
)

// Label values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	MutationUpdate = "update"
	MutationDelete = "delete"
	MutationClear  = "clear"
)

// Buckets
var (
	HTTPLatencyBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	ImportLatencyBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300}
)
