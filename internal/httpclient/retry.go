package httpclient

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy says which terminal responses earn the single retry that
// DoWithRetry performs. IPTV portals throttle hard and fall over routinely;
// one considered retry rides out most of it without hammering an upstream
// that is already down.
type RetryPolicy struct {
	Retry429   bool          // honor Retry-After on 429, capped at Max429Wait
	Max429Wait time.Duration // ceiling on the 429 wait
	Retry5xx   bool          // wait Backoff5xx on any 5xx
	Backoff5xx time.Duration
}

// DefaultRetryPolicy retries 429 with a 60s ceiling and 5xx after 1s.
var DefaultRetryPolicy = RetryPolicy{
	Retry429:   true,
	Max429Wait: 60 * time.Second,
	Retry5xx:   true,
	Backoff5xx: 1 * time.Second,
}

// SourceRetryPolicy is tuned for playlist providers, which rate-limit
// aggressively and serve multi-megabyte responses from slow backends.
var SourceRetryPolicy = RetryPolicy{
	Retry429:   true,
	Max429Wait: 120 * time.Second,
	Retry5xx:   true,
	Backoff5xx: 5 * time.Second,
}

// retryWait reports whether resp warrants the retry and how long to wait
// first. 4xx other than 429 never retry; neither does 304.
func (p RetryPolicy) retryWait(resp *http.Response) (time.Duration, bool) {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests && p.Retry429:
		return parseRetryAfter(resp.Header.Get("Retry-After"), p.Max429Wait), true
	case resp.StatusCode >= 500 && p.Retry5xx:
		return p.Backoff5xx, true
	}
	return 0, false
}

// DoWithRetry sends req and, when the policy allows, retries exactly once
// after draining the failed response. The second request reuses req's
// method, URL and headers; request bodies are not replayed, which is fine
// for the GET-only fetch paths here. The caller owns resp.Body on success.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	if client == nil {
		client = Default()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	wait, retry := policy.retryWait(resp)
	if !retry {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(wait):
	}
	again, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), nil)
	if err != nil {
		return nil, err
	}
	again.Header = req.Header.Clone()
	return client.Do(again)
}

// parseRetryAfter reads a Retry-After value in either the delta-seconds or
// the HTTP-date form. Missing or unparseable values fall back to one
// second; anything above max is clamped to max.
func parseRetryAfter(s string, max time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
		return clampWait(time.Duration(sec)*time.Second, max)
	}
	if t, err := time.Parse(time.RFC1123, s); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return clampWait(d, max)
	}
	return time.Second
}

func clampWait(d, max time.Duration) time.Duration {
	if d > max {
		return max
	}
	return d
}
