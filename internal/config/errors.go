package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and identify exactly what is
// wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). Callers can use errors.Is()
// for programmatic handling while still getting human-readable messages.
var (
	// ErrInvalidProtocol is returned when the protocol is neither
	// "http" nor "https". The archiver only speaks HTTP.
	ErrInvalidProtocol = errors.New("invalid protocol: must be http or https")

	// ErrNoBaseDomain is returned when the base domain is empty.
	// Without a base domain the link filter cannot decide which links
	// belong to the site being archived.
	ErrNoBaseDomain = errors.New("no base domain specified")

	// ErrInvalidPort is returned when the port is outside 0-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 0 and 65535")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidDelay is returned when the inter-request delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidJitter is returned when the jitter factor is negative.
	// Use 0 to disable jitter.
	ErrInvalidJitter = errors.New("invalid jitter: must be non-negative")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would fail every fetch immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxRetries is returned when the retry bound is negative.
	// Use 0 to disable retries in the raw fetch tier.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidConcurrency is returned when the seed concurrency is not
	// positive. A concurrency of zero would archive nothing.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidProxy is returned when the proxy address cannot be parsed
	// as a URL.
	ErrInvalidProxy = errors.New("invalid proxy address")
)
