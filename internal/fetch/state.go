// Package fetch retrieves the playlist source with conditional requests and
// keeps a durable checkpoint between runs.
//
// Design goals:
//   - Conditional GET (ETag/If-Modified-Since) on every request; 304 skips entirely
//   - Local file sources use mtime as the freshness validator
//   - Content-hash fallback for providers with absent or unreliable ETags
//   - First-seen timestamps survive restarts so refreshed catalogs keep stable
//     ordering and recency flags
//   - Crash-safe: state is written via temp file + rename
package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// State is the durable checkpoint file for a single playlist source.
type State struct {
	mu sync.Mutex

	// SourceKey identifies the source URL or path. If the configured source
	// changes, prior validators and timestamps no longer apply.
	SourceKey string `json:"source_key"`

	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at,omitempty"`
	// ContentHash is a short sha256 of the raw body so provider-side changes
	// are detected even when ETag/Last-Modified are absent.
	ContentHash string `json:"content_hash,omitempty"`

	// FirstSeen maps stream URL → when that URL first appeared in the source.
	// Refreshes stamp new URLs and carry prior stamps forward so entry age is
	// stable across runs.
	FirstSeen map[string]time.Time `json:"first_seen,omitempty"`

	path string // file path; not serialised
}

// SourceKey computes a stable non-secret key for a source. Credentials
// embedded in provider URLs never land in the state file.
func SourceKey(source string) string {
	h := sha256.Sum256([]byte(source))
	return hex.EncodeToString(h[:8])
}

// LoadState loads State from path, or returns a fresh empty state if the file
// does not exist. Returns an error only when the file exists but cannot be
// read.
func LoadState(path, sourceKey string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newState(path, sourceKey), nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch state load %s: %w", path, err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		// Corrupt state: start fresh rather than hard-failing.
		return newState(path, sourceKey), nil
	}
	s.path = path
	// Invalidate if the configured source changed.
	if s.SourceKey != sourceKey {
		return newState(path, sourceKey), nil
	}
	if s.FirstSeen == nil {
		s.FirstSeen = make(map[string]time.Time)
	}
	return &s, nil
}

func newState(path, sourceKey string) *State {
	return &State{
		path:      path,
		SourceKey: sourceKey,
		FirstSeen: make(map[string]time.Time),
	}
}

// Save atomically writes state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *State) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(s.path))
	tmp, err := os.CreateTemp(dir, ".m3ucat-state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("fetch state save: create temp: %w", err)
	}
	name := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(name)
		if werr != nil {
			return fmt.Errorf("fetch state save: write: %w", werr)
		}
		return fmt.Errorf("fetch state save: close: %w", cerr)
	}
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("fetch state save: rename: %w", err)
	}
	return nil
}

// Stamp returns the first-seen time for url, recording now when the URL is
// new. The returned time is what catalog entries should carry as their age.
func (s *State) Stamp(url string, now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.FirstSeen[url]; ok {
		return t
	}
	s.FirstSeen[url] = now
	return now
}

// Retain drops first-seen stamps for URLs no longer present in the source,
// keeping the state file bounded across provider churn.
func (s *State) Retain(present map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for url := range s.FirstSeen {
		if _, ok := present[url]; !ok {
			delete(s.FirstSeen, url)
		}
	}
}

// UpdateValidators records the validators of a completed fetch.
func (s *State) UpdateValidators(etag, lastModified, contentHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ETag = etag
	s.LastModified = lastModified
	s.ContentHash = contentHash
	s.FetchedAt = time.Now()
}

// Validators returns the stored validators for the next conditional request.
func (s *State) Validators() (etag, lastModified string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ETag, s.LastModified
}

// LastContentHash returns the body hash recorded by the previous fetch, for
// detecting unchanged content behind a provider that always answers 200.
func (s *State) LastContentHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ContentHash
}
