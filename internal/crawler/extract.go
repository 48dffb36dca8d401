package crawler

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Extractor produces the candidate link strings found in a textual payload.
// Candidates are returned verbatim, in document order, without dedup;
// deduplication belongs to the engine's visited set.
//
// Design decision: The extractor sits behind an interface so the default
// syntactic scan can be swapped for the structural parser (or a future one)
// without touching the crawl engine.
type Extractor interface {
	Extract(text string) []string
}

// attrPattern matches href/src attribute values in single or double quotes,
// case-insensitively.
var attrPattern = regexp.MustCompile(`(?i)(?:href|src)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// AttrExtractor scans text for href="…" and src="…" occurrences.
//
// This is a syntactic scan, not a structural document parse. It has false
// positives (attributes inside comments or scripts) and false negatives
// (unquoted attributes) versus a DOM walk; that is an accepted scope
// limitation of the heuristic tier, not a defect. Use DOMExtractor when
// structural accuracy matters more than speed on malformed markup.
type AttrExtractor struct{}

// Extract returns every quoted href/src attribute value in document order.
func (AttrExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	matches := attrPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		// Group 1 is the double-quoted alternative, group 2 single-quoted.
		v := m[1]
		if v == "" {
			v = m[2]
		}
		links = append(links, v)
	}
	return links
}

// linkAttrs maps element names to the attribute that carries their URL.
var linkAttrs = map[string]string{
	"a":      "href",
	"area":   "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"iframe": "src",
	"embed":  "src",
	"source": "src",
	"audio":  "src",
	"video":  "src",
}

// DOMExtractor walks a parsed HTML tree and collects link-bearing
// attributes. Unlike AttrExtractor it ignores commented-out markup and
// tolerates unquoted attributes, at the cost of a full parse per page.
type DOMExtractor struct{}

// Extract parses text as HTML and returns href/src values in tree order.
// Unparseable input yields no candidates; x/net/html recovers from most
// real-world markup, so this only happens for pathological payloads.
func (DOMExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						links = append(links, a.Val)
						break
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}
