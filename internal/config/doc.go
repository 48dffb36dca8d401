// Package config provides configuration structures and utilities for
// sitemirror. It defines the options for one archive run (seed, domain
// admission, pacing, persistence) and the optional YAML configuration file
// with per-site overrides.
package config
