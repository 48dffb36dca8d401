package crawler

import (
	"errors"
	"testing"
)

func TestCanonicalizerCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		link string
		want string
	}{
		{
			name: "absolute link passes through",
			base: "http://site.example/",
			link: "http://other.example/page",
			want: "http://other.example/page",
		},
		{
			name: "absolute link scheme and host are lowercased",
			base: "http://site.example/",
			link: "HTTP://Site.Example/Page",
			want: "http://site.example/Page",
		},
		{
			name: "relative link joins the base path",
			base: "http://site.example/docs",
			link: "guide",
			want: "http://site.example/docs/guide",
		},
		{
			name: "root-relative link still joins the base path",
			base: "http://site.example/docs",
			link: "/guide",
			want: "http://site.example/docs/guide",
		},
		{
			name: "doubled separators collapse everywhere",
			base: "http://site.example//a//b",
			link: "//c",
			want: "http://site.example/a/b/c",
		},
		{
			name: "dot segments resolve during the join",
			base: "http://site.example/a/b",
			link: "../c",
			want: "http://site.example/a/c",
		},
		{
			name: "fragment is stripped",
			base: "http://site.example/",
			link: "page#section",
			want: "http://site.example/page",
		},
		{
			name: "fragment is stripped from absolute links",
			base: "http://site.example/",
			link: "http://site.example/page#top",
			want: "http://site.example/page",
		},
		{
			name: "query is preserved",
			base: "http://site.example/list",
			link: "items?page=2",
			want: "http://site.example/list/items?page=2",
		},
		{
			name: "explicit default http port is stripped",
			base: "http://site.example/",
			link: "http://site.example:80/page",
			want: "http://site.example/page",
		},
		{
			name: "explicit default https port is stripped",
			base: "https://site.example/",
			link: "https://site.example:443/page",
			want: "https://site.example/page",
		},
		{
			name: "non-default port is kept",
			base: "http://site.example:8080/",
			link: "page",
			want: "http://site.example:8080/page",
		},
		{
			name: "empty path becomes slash",
			base: "http://site.example/",
			link: "http://site.example",
			want: "http://site.example/",
		},
		{
			name: "trailing slash on a relative link survives the join",
			base: "http://site.example/docs",
			link: "guide/",
			want: "http://site.example/docs/guide/",
		},
		{
			name: "base query and fragment are ignored when joining",
			base: "http://site.example/list?page=1#top",
			link: "item",
			want: "http://site.example/list/item",
		},
		{
			name: "surrounding whitespace is trimmed",
			base: "http://site.example/",
			link: "  page  ",
			want: "http://site.example/page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &Canonicalizer{}
			got, err := c.Canonicalize(tt.base, tt.link)
			if err != nil {
				t.Fatalf("Canonicalize(%q, %q) returned error: %v", tt.base, tt.link, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q, %q) = %q, want %q", tt.base, tt.link, got, tt.want)
			}
		})
	}
}

func TestCanonicalizerCanonicalizeMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		link string
	}{
		{name: "empty link", base: "http://site.example/", link: ""},
		{name: "whitespace-only link", base: "http://site.example/", link: "   "},
		{name: "fragment-only link", base: "http://site.example/", link: "#section"},
		{name: "javascript pseudo-scheme", base: "http://site.example/", link: "javascript:void(0)"},
		{name: "mailto pseudo-scheme", base: "http://site.example/", link: "mailto:x@example.org"},
		{name: "tel pseudo-scheme", base: "http://site.example/", link: "tel:+1234567"},
		{name: "data pseudo-scheme", base: "http://site.example/", link: "data:text/plain,hi"},
		{name: "base without scheme", base: "site.example/page", link: "other"},
		{name: "base without host", base: "http:///page", link: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &Canonicalizer{}
			got, err := c.Canonicalize(tt.base, tt.link)
			if !errors.Is(err, ErrMalformedURL) {
				t.Errorf("Canonicalize(%q, %q) = (%q, %v), want ErrMalformedURL", tt.base, tt.link, got, err)
			}
		})
	}
}

func TestCanonicalizerDirResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		dirResolve bool
		base       string
		link       string
		want       string
	}{
		{
			name:       "default joins the full base path",
			dirResolve: false,
			base:       "http://site.example/docs/page.html",
			link:       "style.css",
			want:       "http://site.example/docs/page.html/style.css",
		},
		{
			name:       "directory resolve strips the filename",
			dirResolve: true,
			base:       "http://site.example/docs/page.html",
			link:       "style.css",
			want:       "http://site.example/docs/style.css",
		},
		{
			name:       "directory base is unchanged either way",
			dirResolve: true,
			base:       "http://site.example/docs/",
			link:       "style.css",
			want:       "http://site.example/docs/style.css",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &Canonicalizer{DirResolve: tt.dirResolve}
			got, err := c.Canonicalize(tt.base, tt.link)
			if err != nil {
				t.Fatalf("Canonicalize(%q, %q) returned error: %v", tt.base, tt.link, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q, %q) = %q, want %q", tt.base, tt.link, got, tt.want)
			}
		})
	}
}

// Two raw forms naming the same resource must canonicalize to the same
// string, because the canonical form is the dedup key.
func TestCanonicalizeEquivalentFormsCollapse(t *testing.T) {
	t.Parallel()

	base := "http://site.example/"
	forms := []string{
		"http://site.example/a/b",
		"http://site.example//a//b",
		"http://site.example/a/./b",
		"http://site.example/a/x/../b",
		"HTTP://SITE.EXAMPLE/a/b",
		"http://site.example:80/a/b",
		"http://site.example/a/b#frag",
	}

	c := &Canonicalizer{}
	want := "http://site.example/a/b"
	for _, form := range forms {
		got, err := c.Canonicalize(base, form)
		if err != nil {
			t.Fatalf("Canonicalize(%q) returned error: %v", form, err)
		}
		if got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", form, got, want)
		}
	}
}
