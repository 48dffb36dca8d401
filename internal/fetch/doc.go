// Package fetch implements the two-tier fetch strategy and the fetch
// session behind it.
//
// Every URL is first loaded through a rendered navigation (headless Chrome
// via chromedp) so that dynamic pages expose their DOM-visible links. When
// neither the URL suffix nor the response content type looks HTML-like,
// the rendered result is discarded and the request is re-issued as a raw
// transport-level fetch, marked binary. Both tiers normalize into
// model.Resource.
//
// The crawl engine consumes this package only through the Fetcher-shaped
// Strategy and never sees which tier produced a result.
package fetch
