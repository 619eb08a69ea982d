// Package config provides configuration management for fontindex.
package config

import "time"

// Default configuration values.
const (
	// DefaultRebuildThreshold is how long a scan is trusted outright.
	DefaultRebuildThreshold = 30 * time.Minute

	// DefaultDebounceWindow is how recent a concurrent rebuild must be to adopt it.
	DefaultDebounceWindow = 60 * time.Second

	// DefaultParallelThreshold is the path count above which scanning is parallel.
	DefaultParallelThreshold = 100

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is the number of rotated logs kept.
	DefaultLogMaxBackups = 5
)

// Store names.
const (
	SystemStore = "system"
	UserStore   = "user"
)

// DefaultExtensions are the font file extensions indexed by default.
var DefaultExtensions = []string{"ttf", "otf", "ttc", "otc"}

// DefaultExclusions are font files never worth indexing.
var DefaultExclusions = []string{
	"LastResort*",
	".*",
}
