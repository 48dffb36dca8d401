package crawler

import (
	"net/url"
	"strings"
)

// BlankPage is the sentinel URL browsers report for an empty tab.
// It shows up as a link target on pages that open windows via script and
// must never be enqueued.
const BlankPage = "about:blank"

// DomainFilter decides which canonical URLs belong to the site being
// archived. Everything else is external and ignored.
//
// Design decision: Admission is exact host or subdomain, not substring
// containment. A substring rule would admit "notexample.com" for base
// "example.com", silently leaking the crawl onto unrelated hosts; the
// suffix rule keeps subdomain assets (cdn.example.com) crawlable while
// isolating everything else.
type DomainFilter struct {
	baseDomain string
}

// NewDomainFilter creates a filter admitting baseDomain and its subdomains.
// The domain comparison is case-insensitive and ignores ports.
func NewDomainFilter(baseDomain string) *DomainFilter {
	return &DomainFilter{
		baseDomain: strings.ToLower(strings.TrimSpace(baseDomain)),
	}
}

// Admit reports whether the candidate URL is eligible for crawling.
// Blank-page sentinels and URLs without a parseable host are rejected.
func (f *DomainFilter) Admit(candidate string) bool {
	if candidate == "" || strings.EqualFold(candidate, BlankPage) {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	return host == f.baseDomain || strings.HasSuffix(host, "."+f.baseDomain)
}
