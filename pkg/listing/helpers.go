package listing

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	HeaderUserAgent      = "User-Agent"
	HeaderAccept         = "Accept"
	HeaderAcceptLanguage = "Accept-Language"
)

// Headers builds the request headers sent to the listing and artifact hosts (skips empty values).
func Headers(userAgent string) map[string]string {
	headers := map[string]string{
		HeaderAccept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		HeaderAcceptLanguage: "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
	}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		headers[HeaderUserAgent] = ua
	}
	return headers
}

// ResolveURL resolves ref against base. Absolute references are returned as-is.
func ResolveURL(base *url.URL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	if base == nil || u.IsAbs() {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

// DefaultDateLayouts are tried in order when no layout is configured.
var DefaultDateLayouts = []string{"06.01.02", "2006.01.02", "2006-01-02"}

// NormalizeDate converts a listing date into ISO yyyy-mm-dd.
// An empty string is returned when raw matches none of the layouts.
func NormalizeDate(raw string, layouts ...string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if layout == "" {
			continue
		}
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
