package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/m3ucat/m3ucat/internal/httpclient"
	"github.com/m3ucat/m3ucat/internal/safeurl"
)

// ErrNotModified is returned when the source has not changed since the
// validators passed in (ETag / Last-Modified / file mtime).
var ErrNotModified = errors.New("fetch: not modified")

// Result carries the cache validators of a successful fetch. In buffered mode
// (Fetch) Body holds the full playlist; in streaming mode (Open) Body is nil
// and ContentHash is filled in when the returned reader is closed.
type Result struct {
	Body         []byte
	ETag         string
	LastModified string
	// ContentHash is a short sha256 of the raw body, kept in state so
	// provider-side changes are detected even when ETag/LM are absent.
	ContentHash string
}

// Open returns a streaming reader over the playlist source, which is either an
// http(s) URL or a local file path. Prior etag / lastModified enable a
// conditional request; Open returns ErrNotModified when the source is
// unchanged. The validators in the returned Result are valid immediately;
// ContentHash only after the reader is closed.
func Open(ctx context.Context, client *http.Client, source, etag, lastModified string) (io.ReadCloser, *Result, error) {
	if isHTTP(source) {
		return openHTTP(ctx, client, source, etag, lastModified)
	}
	return openFile(source, lastModified)
}

// Fetch is the buffered form of Open: it drains the source into memory and
// returns the body together with its validators.
func Fetch(ctx context.Context, client *http.Client, source, etag, lastModified string) (*Result, error) {
	rc, res, err := Open(ctx, client, source, etag, lastModified)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(rc)
	cerr := rc.Close()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", safeurl.Redacted(source), err)
	}
	if cerr != nil {
		return nil, fmt.Errorf("fetch %s: close: %w", safeurl.Redacted(source), cerr)
	}
	res.Body = body
	return res, nil
}

func isHTTP(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func openHTTP(ctx context.Context, client *http.Client, src, etag, lastModified string) (io.ReadCloser, *Result, error) {
	if client == nil {
		client = httpclient.Default()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", "m3ucat/1.0")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	release := httpclient.GlobalHostSem.Acquire(src)
	resp, err := httpclient.DoWithRetry(ctx, client, req, httpclient.SourceRetryPolicy)
	if err != nil {
		release()
		// url.Error repeats the full request URL, credentials included;
		// keep only its cause under the redacted form.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, nil, fmt.Errorf("fetch %s: %w", safeurl.Redacted(src), err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		release()
		return nil, nil, ErrNotModified
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		release()
		return nil, nil, fmt.Errorf("fetch %s: unexpected status %d", safeurl.Redacted(src), resp.StatusCode)
	}

	res := &Result{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	return &hashReadCloser{r: resp.Body, h: sha256.New(), res: res, release: release}, res, nil
}

func openFile(path, lastModified string) (io.ReadCloser, *Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	mtime := fi.ModTime()
	if lastModified != "" {
		if prev, err := http.ParseTime(lastModified); err == nil && !mtime.Truncate(time.Second).After(prev) {
			return nil, nil, ErrNotModified
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	res := &Result{LastModified: mtime.UTC().Format(http.TimeFormat)}
	return &hashReadCloser{r: f, h: sha256.New(), res: res}, res, nil
}

// hashReadCloser tees reads through a running sha256 so the content hash is
// available after the caller drains the body, without buffering it. Close
// finalises the hash into res.ContentHash and releases the host slot if held.
type hashReadCloser struct {
	r       io.ReadCloser
	h       hash.Hash
	res     *Result
	release func()
}

func (hc *hashReadCloser) Read(p []byte) (int, error) {
	n, err := hc.r.Read(p)
	if n > 0 {
		hc.h.Write(p[:n])
	}
	return n, err
}

func (hc *hashReadCloser) Close() error {
	sum := hc.h.Sum(nil)
	hc.res.ContentHash = hex.EncodeToString(sum[:16])
	err := hc.r.Close()
	if hc.release != nil {
		hc.release()
		hc.release = nil
	}
	return err
}

// ContentHash returns a short hash of arbitrary bytes. Matches the hash
// recorded by the streaming reader for the same content.
func ContentHash(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:16])
}
