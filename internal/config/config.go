package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Every field of Config has a defined default so that a run is always
// constructible from partial input.
const (
	// DefaultProtocol is the scheme used to build the seed URL.
	DefaultProtocol = "https"

	// DefaultBaseDomain is the domain links must belong to in order to be
	// crawled. "localhost" makes the zero-flag invocation archive a local
	// development server, which is the most common fixture-capture case.
	DefaultBaseDomain = "localhost"

	// DefaultStartPath is the path the crawl starts from.
	DefaultStartPath = "/"

	// DefaultPort is appended to the start host when non-zero.
	// 8080 matches the typical local development server.
	DefaultPort = 8080

	// DefaultOutputDir is the root of the archive tree.
	DefaultOutputDir = "./site_archive"

	// DefaultDelay is the base inter-request delay. 5 seconds is
	// deliberately conservative: the archiver's goal is a faithful copy,
	// not speed, and slow pacing avoids tripping rate limits.
	DefaultDelay = 5000 * time.Millisecond

	// DefaultJitter is the fraction of the base delay added as random
	// jitter, so consecutive requests do not arrive on a fixed cadence.
	DefaultJitter = 0.5

	// DefaultTimeout bounds each individual fetch. 60 seconds is generous
	// enough for a rendered navigation on a slow page.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries bounds transient-failure retries inside the raw
	// fetch tier. The crawl engine itself never retries a URL.
	DefaultMaxRetries = 20

	// DefaultUserAgent identifies the archiver in HTTP requests.
	// A descriptive User-Agent lets operators recognize archiver traffic.
	DefaultUserAgent = "sitemirror/1.0 (+https://github.com/aoyama-dev/sitemirror)"

	// DefaultMaxPages of 0 means unlimited: the run ends when the queue
	// drains. Set a positive value to cap runaway crawls on
	// infinitely-generating sites.
	DefaultMaxPages = 0

	// AppName is the application name used for XDG directory paths.
	AppName = "sitemirror"
)

// Config holds all options for one archive run.
// It is populated from CLI flags and the optional config file, then passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested
// sub-structs. The number of options is manageable, and nesting would add
// complexity without benefit.
type Config struct {
	// Protocol is the scheme ("http" or "https") for the seed URL.
	Protocol string

	// BaseDomain is the domain admitted by the link filter. Links whose
	// host is neither this domain nor one of its subdomains are treated
	// as external and ignored.
	BaseDomain string

	// StartHost is the host the crawl starts from. Empty means BaseDomain.
	StartHost string

	// StartPath is the path component of the seed URL.
	StartPath string

	// Port is appended to the start host. 0 means no explicit port.
	Port int

	// OutputDir is the root directory of the archive tree.
	OutputDir string

	// Overwrite controls whether existing files in the archive tree are
	// rewritten. When false (default), existing files are skipped, which
	// makes repeated runs idempotent.
	Overwrite bool

	// Delay is the base inter-request delay.
	Delay time.Duration

	// Jitter is the fraction of Delay added as random jitter (0 disables).
	Jitter float64

	// Timeout bounds each individual fetch (navigation or raw).
	Timeout time.Duration

	// MaxRetries bounds transient-failure retries inside the raw fetch
	// tier.
	MaxRetries int

	// Proxy is an optional proxy URL ("http://host:port" or
	// "socks5://host:port") applied to both fetch tiers.
	Proxy string

	// UserAgent is sent with every request.
	UserAgent string

	// MaxPages caps the number of resources processed per run.
	// 0 means unlimited.
	MaxPages int

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// CaptureTraffic enables the SQLite traffic archive: every
	// request/response of the run is recorded for later audit and replay.
	CaptureTraffic bool

	// TrafficDBDir is the directory of the traffic archive database.
	// Defaults to the XDG data directory.
	TrafficDBDir string

	// ConfigFilePath is an explicit config file path. Empty means search
	// for .sitemirror in the current directory and then the home directory.
	ConfigFilePath string

	// Sites holds per-site overrides loaded from the config file.
	Sites *File

	// Seeds is the list of seed URLs to archive. When empty, a single seed
	// is built from Protocol, StartHost, Port, and StartPath.
	Seeds []string

	// Concurrency is the number of seeds archived in parallel when more
	// than one seed is given. Each seed still runs a strictly sequential
	// crawl with its own browser session.
	Concurrency int

	// DirResolve makes relative links resolve against the containing
	// directory of a base URL that ends in a filename, instead of being
	// joined to the full base path.
	DirResolve bool

	// DOMLinks switches link extraction to the parsed-DOM walker.
	DOMLinks bool

	// IgnorePatterns are URL path glob patterns never enqueued.
	IgnorePatterns []string

	// FollowPatterns restrict enqueueing to matching paths when non-empty.
	FollowPatterns []string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero (delay, timeout, port). The constructor
// also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Protocol:     DefaultProtocol,
		BaseDomain:   DefaultBaseDomain,
		StartPath:    DefaultStartPath,
		Port:         DefaultPort,
		OutputDir:    DefaultOutputDir,
		Delay:        DefaultDelay,
		Jitter:       DefaultJitter,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		UserAgent:    DefaultUserAgent,
		MaxPages:     DefaultMaxPages,
		Concurrency:  1,
		TrafficDBDir: XDGDataDir(),
	}
}

// SeedURL builds the seed URL from the protocol, host, port, and start path.
// A port of 0, or the protocol's default port, is omitted.
func (c *Config) SeedURL() string {
	host := c.StartHost
	if host == "" {
		host = c.BaseDomain
	}
	if c.Port > 0 && !isDefaultPort(c.Protocol, c.Port) {
		host = fmt.Sprintf("%s:%d", host, c.Port)
	}
	path := c.StartPath
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: c.Protocol, Host: host, Path: path}
	return u.String()
}

// isDefaultPort reports whether the port is implied by the scheme.
func isDefaultPort(protocol string, port int) bool {
	switch protocol {
	case "http":
		return port == 80
	case "https":
		return port == 443
	}
	return false
}

// XDGDataDir returns the XDG data directory for sitemirror.
// On Linux: ~/.local/share/sitemirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitemirror.
// On Linux: ~/.config/sitemirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks that the configuration is usable.
// It returns the first problem found; fixing one error often makes the
// rest irrelevant, so we do not collect them.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast, once, before any network or file-system work.
func (c *Config) Validate() error {
	if c.Protocol != "http" && c.Protocol != "https" {
		return ErrInvalidProtocol
	}
	if strings.TrimSpace(c.BaseDomain) == "" {
		return ErrNoBaseDomain
	}
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrNoOutputDir
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Jitter < 0 {
		return ErrInvalidJitter
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProxy, err)
		}
	}
	return nil
}
