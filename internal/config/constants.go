package config

import "time"

// EnvPrefix is prepended to every environment variable, e.g. BOOKSHELF_FEED_URL.
const EnvPrefix = "BOOKSHELF"

// Default paths
const (
	// DefaultCSVPath is where the Goodreads library export is expected
	DefaultCSVPath = "./data/goodreads_library.csv"

	// DefaultOutputPath is the library document consumed by the site
	DefaultOutputPath = "./data/books.json"
)

// HTTP defaults, also used when a configured value is not positive
const (
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultFeedMaxRetries = 3
)

// Viper keys, shared with the CLI flag bindings
const (
	KeyCSVPath         = "csv_path"
	KeyFeedURL         = "feed_url"
	KeyOutputPath      = "output_path"
	KeyDatabasePath    = "database_path"
	KeyRefreshSchedule = "refresh_schedule"
	KeyHTTPTimeout     = "http_timeout"
	KeyFeedMaxRetries  = "feed_max_retries"
	KeyCoverDelay      = "cover_delay"
	KeyCoverBaseURL    = "cover_base_url"
	KeyUserAgent       = "user_agent"
)
