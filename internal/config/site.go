package config

// SiteConfig holds per-site overrides for one archived domain.
// This allows customizing crawl behavior when archiving several sites
// from the same configuration file.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the global inter-request delay, in milliseconds.
	// If zero, the global delay is used.
	DelayMillis int `yaml:"delayMillis,omitempty"`

	// Overwrite overrides the global overwrite flag for this site.
	Overwrite *bool `yaml:"overwrite,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .sitemirror configuration file.
type File struct {
	// Sites maps base domains to their site-specific configurations.
	// Keys are bare domains without a protocol (e.g., "docs.example.org").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains configuration applied to every site unless
	// overridden in its site-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a base domain:
// defaults overlaid with the site-specific entry, if any.
//
// The result owns its Headers map. Merging into the map shared with
// Defaults would leak one site's headers (cookies, auth tokens) into
// every later lookup, and batch runs call this concurrently.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults
	if len(result.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if siteConfig, ok := cf.Sites[domain]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.DelayMillis != 0 {
			result.DelayMillis = siteConfig.DelayMillis
		}
		if siteConfig.Overwrite != nil {
			result.Overwrite = siteConfig.Overwrite
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.IgnorePatterns) > 0 {
			result.IgnorePatterns = siteConfig.IgnorePatterns
		}
		if len(siteConfig.FollowPatterns) > 0 {
			result.FollowPatterns = siteConfig.FollowPatterns
		}
	}

	return result
}
