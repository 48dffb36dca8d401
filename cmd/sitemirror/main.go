// Package main provides the entry point for the sitemirror CLI.
//
// sitemirror archives a website: starting from a seed URL it discovers
// every same-domain resource reachable through hyperlinks and embedded
// asset references, downloads each exactly once, and writes it into a
// directory tree mirroring the site's URL hierarchy.
//
// Usage:
//
//	sitemirror archive https://docs.example.org/
//	sitemirror archive --domain example.org --output ./mirror
//
// See --help for all available options.
package main

// main is the entry point for sitemirror.
func main() {
	Execute()
}
