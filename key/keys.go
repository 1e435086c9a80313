// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite      = "logs.write"
	LogsLevel      = "logs.level"
	LogsJson       = "logs.json"
	LogsStderr     = "logs.stderr"
	LogsMaxSize    = "logs.max_size"
	LogsMaxBackups = "logs.max_backups"
	LogsMaxAge     = "logs.max_age"
	LogsCompress   = "logs.compress"
)

// CLI Execution Environment - these settings govern terminal output.
const (
	CliColored      = "cli.colored"
	CliIcons        = "cli.icons"
	CliVersionCheck = "cli.version_check"
)

// Resource Cache - these keys locate and shape the on-disk record store.
const (
	CachePath     = "cache.path"
	CacheKeepHTML = "cache.keep_html"
)

// Expiry windows for short-lived resource kinds.
const (
	TTLVideoServers = "ttl.video_servers"
	TTLIframeSource = "ttl.iframe_source"
)

// Stateless HTTP transport.
const (
	FetchTimeout     = "fetch.timeout"
	FetchFingerprint = "fetch.fingerprint"
)

// Browser automation transport.
const (
	BrowserBin       = "browser.bin"
	BrowserHeadless  = "browser.headless"
	BrowserUserAgent = "browser.user_agent"
	BrowserTimeout   = "browser.timeout"
)

// Concurrency of aggregated requests.
const (
	AggregateWorkers = "aggregate.workers"
	SearchWorkers    = "search.workers"
	SearchMaxPages   = "search.max_pages"
)

// Search Interaction - these keys define query suggestion behavior.
const (
	SearchSuggestions = "search.suggestions"
)

// History Tracking - these keys configure the persistence of consumption state.
const (
	HistorySaveOnWatch = "history.save_on_watch"
)

// HTTP surface.
const (
	ServerAddress        = "server.address"
	ServerIdentityHeader = "server.identity_header"
	ServerMetrics        = "server.metrics"
)
