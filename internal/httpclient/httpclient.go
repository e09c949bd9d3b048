package httpclient

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a whole request including the body read. Playlist
// pulls can run to tens of megabytes on slow provider links, so callers
// with a configured fetch timeout should build their client through
// WithTimeout instead of relying on this.
const DefaultTimeout = 30 * time.Second

// transport is shared by every client this package hands out. The process
// talks to one or two provider hosts in bursts spaced a refresh interval
// apart, so the pool stays small and idle connections are kept warm long
// enough to survive a full catalog rebuild between requests.
var transport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          32,
	MaxIdleConnsPerHost:   8,
	IdleConnTimeout:       4 * time.Minute,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 30 * time.Second,
}

var defaultClient = &http.Client{
	Timeout:   DefaultTimeout,
	Transport: transport,
}

// Default returns the shared client used when a caller passes no client of
// its own.
func Default() *http.Client {
	return defaultClient
}

// WithTimeout returns a client with its own overall timeout on the same
// transport tuning. The transport is cloned so nothing a caller does to the
// returned client leaks into the shared one.
func WithTimeout(d time.Duration) *http.Client {
	return &http.Client{
		Timeout:   d,
		Transport: transport.Clone(),
	}
}
