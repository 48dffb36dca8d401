package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aoyama-dev/sitemirror/internal/model"
)

func newTestRawFetcher(t *testing.T, opts Options) *rawFetcher {
	t.Helper()
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	f, err := newRawFetcher(opts)
	if err != nil {
		t.Fatalf("newRawFetcher() returned error: %v", err)
	}
	return f
}

func TestRawFetcherFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "hello")
	}))
	t.Cleanup(server.Close)

	f := newTestRawFetcher(t, Options{})
	res, err := f.fetch(context.Background(), server.URL+"/file.txt")
	if err != nil {
		t.Fatalf("fetch() returned error: %v", err)
	}

	if res.Kind != model.KindRaw {
		t.Errorf("Kind = %v, want KindRaw", res.Kind)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", res.StatusCode)
	}
	if string(res.Body) != "hello" {
		t.Errorf("Body = %q, want %q", res.Body, "hello")
	}
	if res.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want %q", res.ContentType, "text/plain")
	}
	if res.Text != "hello" {
		t.Errorf("Text = %q, want decoded %q", res.Text, "hello")
	}
}

func TestRawFetcherSendsConfiguredHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotCookie, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		gotAuth = r.Header.Get("X-Auth")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	f := newTestRawFetcher(t, Options{
		UserAgent: "archiver-test/1.0",
		Cookie:    "session=abc",
		Headers:   map[string]string{"X-Auth": "token"},
	})
	if _, err := f.fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("fetch() returned error: %v", err)
	}

	if gotUA != "archiver-test/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "archiver-test/1.0")
	}
	if gotCookie != "session=abc" {
		t.Errorf("Cookie = %q, want %q", gotCookie, "session=abc")
	}
	if gotAuth != "token" {
		t.Errorf("X-Auth = %q, want %q", gotAuth, "token")
	}
}

func TestRawFetcherErrorStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	f := newTestRawFetcher(t, Options{MaxRetries: 5})
	res, err := f.fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch() returned error: %v", err)
	}

	// A 404 is a result, not a transport failure: one request, no retries.
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", res.StatusCode)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestRawFetcherFollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "moved here")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	f := newTestRawFetcher(t, Options{})
	res, err := f.fetch(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("fetch() returned error: %v", err)
	}

	if res.FinalURL != server.URL+"/new" {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, server.URL+"/new")
	}
	if res.URL != server.URL+"/old" {
		t.Errorf("URL = %q, want the requested %q", res.URL, server.URL+"/old")
	}
	if string(res.Body) != "moved here" {
		t.Errorf("Body = %q, want %q", res.Body, "moved here")
	}
}

func TestRawFetcherBodyCap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 1000 {
			fmt.Fprint(w, "0123456789")
		}
	}))
	t.Cleanup(server.Close)

	f := newTestRawFetcher(t, Options{MaxBodyBytes: 100})
	res, err := f.fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch() returned error: %v", err)
	}

	if len(res.Body) != 100 {
		t.Errorf("Body length = %d, want capped at 100", len(res.Body))
	}
}

func TestRawFetcherInvalidProxy(t *testing.T) {
	t.Parallel()

	_, err := newRawFetcher(Options{Proxy: "://bad"})
	if err == nil {
		t.Error("newRawFetcher() with invalid proxy URL returned nil error")
	}
}
