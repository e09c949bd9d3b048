// Package safeurl validates and sanitizes URLs that arrive from playlists
// or configuration before they reach an HTTP client or a log line.
package safeurl

import (
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS reports whether u parses as a URL with scheme http or https.
// Rejects file://, ftp://, and other schemes that could reach local files.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// credentialParams are query keys whose values never belong in a log line.
// IPTV providers put the whole subscription in the playlist URL.
var credentialParams = []string{"username", "password", "token", "user", "pass"}

// Redacted returns u with credentials masked: userinfo in the authority and
// the values of known credential query keys. Input that does not parse is
// truncated at the query string instead. Masking re-encodes the query, so
// parameter order is not preserved.
func Redacted(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		if i := strings.IndexByte(u, '?'); i >= 0 {
			return u[:i] + "?..."
		}
		return u
	}
	if parsed.User != nil {
		parsed.User = url.User("xxx")
	}
	q := parsed.Query()
	changed := false
	for _, k := range credentialParams {
		if q.Has(k) {
			q.Set(k, "xxx")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
