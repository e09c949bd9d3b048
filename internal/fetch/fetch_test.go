package fetch_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m3ucat/m3ucat/internal/fetch"
)

// ─── Helpers ─────────────────────────────────────────────────────────────────

func statePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "m3ucat.state.json")
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ─── Conditional GET ─────────────────────────────────────────────────────────

func TestOpen_304(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"abc"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "#EXTM3U\n")
	}))
	defer srv.Close()

	ctx := context.Background()

	// First request: no ETag → 200.
	rc, res, err := fetch.Open(ctx, srv.Client(), srv.URL+"/list.m3u", "", "")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "#EXTM3U\n" {
		t.Fatalf("body = %q, want #EXTM3U", body)
	}
	if res.ETag != `"abc"` {
		t.Fatalf("ETag = %q, want \"abc\"", res.ETag)
	}

	// Second request: ETag set → 304.
	_, _, err = fetch.Open(ctx, srv.Client(), srv.URL+"/list.m3u", res.ETag, "")
	if err != fetch.ErrNotModified {
		t.Fatalf("second open: expected ErrNotModified, got %v", err)
	}
}

func TestOpen_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := fetch.Open(context.Background(), srv.Client(), srv.URL+"/gone.m3u", "", "")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestOpen_ErrorRedactsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	source := srv.URL + "/get.php?username=u&password=supersecret"
	srv.Close()

	_, _, err := fetch.Open(context.Background(), nil, source, "", "")
	if err == nil {
		t.Fatal("expected connection error")
	}
	if strings.Contains(err.Error(), "supersecret") {
		t.Errorf("credentials leaked into error: %v", err)
	}
}

func TestFetch_Buffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "same content")
	}))
	defer srv.Close()

	res, err := fetch.Fetch(context.Background(), srv.Client(), srv.URL+"/f.m3u", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "same content" {
		t.Fatalf("body = %q", res.Body)
	}
	if res.ContentHash != fetch.ContentHash(res.Body) {
		t.Fatalf("streamed hash %q != buffered hash %q", res.ContentHash, fetch.ContentHash(res.Body))
	}
}

// ─── File sources ────────────────────────────────────────────────────────────

func TestOpen_FileSource(t *testing.T) {
	path := writeFile(t, "#EXTM3U\n")

	rc, res, err := fetch.Open(context.Background(), nil, path, "", "")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "#EXTM3U\n" {
		t.Fatalf("body = %q", body)
	}
	if res.LastModified == "" {
		t.Fatal("expected mtime-derived Last-Modified")
	}
	if res.ContentHash == "" {
		t.Fatal("expected content hash after close")
	}

	// Unchanged file: mtime validator → not modified.
	_, _, err = fetch.Open(context.Background(), nil, path, "", res.LastModified)
	if err != fetch.ErrNotModified {
		t.Fatalf("expected ErrNotModified, got %v", err)
	}

	// Touch the file into the future: must re-open.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	rc, _, err = fetch.Open(context.Background(), nil, path, "", res.LastModified)
	if err != nil {
		t.Fatalf("open after touch: %v", err)
	}
	rc.Close()
}

func TestOpen_FileMissing(t *testing.T) {
	_, _, err := fetch.Open(context.Background(), nil, filepath.Join(t.TempDir(), "nope.m3u"), "", "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

// ─── State: source-key invalidation ──────────────────────────────────────────

func TestState_InvalidatedOnSourceChange(t *testing.T) {
	sp := statePath(t)

	key1 := fetch.SourceKey("http://host1/get.php?u=a")
	s1, err := fetch.LoadState(sp, key1)
	if err != nil {
		t.Fatal(err)
	}
	s1.UpdateValidators("old-etag", "", "")
	if err := s1.Save(); err != nil {
		t.Fatal(err)
	}

	// Load with a different source key → fresh state.
	key2 := fetch.SourceKey("http://host2/get.php?u=b")
	s2, err := fetch.LoadState(sp, key2)
	if err != nil {
		t.Fatal(err)
	}
	if etag, _ := s2.Validators(); etag != "" {
		t.Fatalf("expected empty ETag after source change, got %q", etag)
	}
}

// ─── State: crash-safe atomic save ───────────────────────────────────────────

func TestState_AtomicSave(t *testing.T) {
	sp := statePath(t)
	s, _ := fetch.LoadState(sp, "sk")
	s.UpdateValidators("etag-v1", "", "")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(sp)
	if !strings.Contains(string(raw), "etag-v1") {
		t.Fatal("state not persisted")
	}
}

func TestState_CorruptFileStartsFresh(t *testing.T) {
	sp := statePath(t)
	if err := os.WriteFile(sp, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := fetch.LoadState(sp, "sk")
	if err != nil {
		t.Fatalf("corrupt state should not hard-fail: %v", err)
	}
	if etag, _ := s.Validators(); etag != "" {
		t.Fatalf("expected fresh state, got ETag %q", etag)
	}
}

// ─── State: first-seen stamps ────────────────────────────────────────────────

func TestState_StampKeepsFirstSeen(t *testing.T) {
	sp := statePath(t)
	s, _ := fetch.LoadState(sp, "sk")

	t1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Hour)

	if got := s.Stamp("http://x/movie.mkv", t1); !got.Equal(t1) {
		t.Fatalf("first stamp = %v, want %v", got, t1)
	}
	// Same URL on a later refresh keeps the original stamp.
	if got := s.Stamp("http://x/movie.mkv", t2); !got.Equal(t1) {
		t.Fatalf("second stamp = %v, want %v", got, t1)
	}
	// New URL gets the refresh time.
	if got := s.Stamp("http://x/new.mkv", t2); !got.Equal(t2) {
		t.Fatalf("new url stamp = %v, want %v", got, t2)
	}

	// Stamps survive a save/load cycle.
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	s2, _ := fetch.LoadState(sp, "sk")
	if got := s2.Stamp("http://x/movie.mkv", t2); !got.Equal(t1) {
		t.Fatalf("reloaded stamp = %v, want %v", got, t1)
	}
}

func TestState_RetainDropsStale(t *testing.T) {
	s, _ := fetch.LoadState(statePath(t), "sk")
	now := time.Now()
	s.Stamp("http://x/a", now)
	s.Stamp("http://x/b", now)

	s.Retain(map[string]struct{}{"http://x/a": {}})

	if got := s.Stamp("http://x/b", now.Add(time.Hour)); !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("dropped url should re-stamp, got %v", got)
	}
	if got := s.Stamp("http://x/a", now.Add(time.Hour)); !got.Equal(now) {
		t.Fatalf("retained url lost its stamp, got %v", got)
	}
}
