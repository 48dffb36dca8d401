package fetch

import (
	"testing"

	"github.com/chromedp/cdproto/network"
)

func documentResponse(status int64, url, mimeType string) *network.EventResponseReceived {
	return &network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:   status,
			URL:      url,
			MimeType: mimeType,
			Headers:  network.Headers{"Content-Type": mimeType},
		},
	}
}

func TestNavCaptureLatchesFirstDocumentResponse(t *testing.T) {
	t.Parallel()

	c := newNavCapture()
	c.observe(documentResponse(200, "http://site.example/page", "text/html"))

	// A 404 ad iframe landing during the settle window must not
	// reclassify the page.
	c.observe(documentResponse(404, "http://ads.example/frame", "image/png"))

	status, url, mimeType, headers := c.snapshot()
	if status != 200 {
		t.Errorf("status = %d, want the main document's 200", status)
	}
	if url != "http://site.example/page" {
		t.Errorf("url = %q, want the main document's URL", url)
	}
	if mimeType != "text/html" {
		t.Errorf("mimeType = %q, want %q", mimeType, "text/html")
	}
	if got := headers["Content-Type"]; len(got) != 1 || got[0] != "text/html" {
		t.Errorf("Content-Type headers = %v, want only the main document's", got)
	}

	select {
	case <-c.committed:
	default:
		t.Error("committed not closed after the first document response")
	}
}

func TestNavCaptureIgnoresNonDocumentEvents(t *testing.T) {
	t.Parallel()

	c := newNavCapture()

	c.observe("not an event")
	c.observe(&network.EventResponseReceived{
		Type: network.ResourceTypeImage,
		Response: &network.Response{
			Status:   200,
			URL:      "http://site.example/logo.png",
			MimeType: "image/png",
		},
	})
	c.observe(&network.EventResponseReceived{Type: network.ResourceTypeDocument})

	select {
	case <-c.committed:
		t.Error("committed closed without a document response")
	default:
	}

	if status, _, _, _ := c.snapshot(); status != 0 {
		t.Errorf("status = %d, want 0 before any document response", status)
	}
}
