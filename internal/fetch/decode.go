package fetch

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// textualPrefixes identify content types whose bodies are meaningfully
// decodable to text (and therefore minable for links).
var textualPrefixes = []string{
	"text/",
	"application/xhtml",
	"application/xml",
	"application/json",
	"application/javascript",
	"image/svg",
}

// Textual reports whether a content type carries text.
func Textual(contentType string) bool {
	for _, p := range textualPrefixes {
		if strings.HasPrefix(contentType, p) {
			return true
		}
	}
	return false
}

// MediaType extracts the bare MIME type from a Content-Type header value,
// dropping parameters. Unparseable values are returned trimmed as-is; the
// tier decision degrades gracefully on garbage headers.
func MediaType(headerValue string) string {
	mt, _, err := mime.ParseMediaType(headerValue)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(headerValue))
	}
	return mt
}

// DecodeText converts a response body to a UTF-8 string using the charset
// declared in the Content-Type header. Unknown or missing charsets fall
// back to interpreting the bytes as UTF-8, which is correct for the vast
// majority of the web and loses nothing for link scanning on the rest.
func DecodeText(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}
	name := params["charset"]
	if name == "" || strings.EqualFold(name, "utf-8") {
		return string(body)
	}

	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return string(body)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
