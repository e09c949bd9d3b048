package browse

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3ucat/m3ucat/internal/catalog"
	"github.com/m3ucat/m3ucat/internal/fetch"
	"github.com/m3ucat/m3ucat/internal/playlist"
	"github.com/m3ucat/m3ucat/internal/prefs"
	"github.com/m3ucat/m3ucat/internal/safeurl"
)

// Refresher rebuilds the catalog from the playlist source and publishes
// each new tree through Apply. Rebuilds are skipped when the provider
// answers 304 or when the body hash matches the previous fetch.
type Refresher struct {
	Source    string
	Client    *http.Client
	State     *fetch.State
	Prefs     *prefs.Store
	HotWindow time.Duration
	Apply     func(*catalog.Tree)
}

// Run refreshes once immediately, then on every interval tick. SIGHUP
// forces an off-schedule refresh. Blocks until ctx is cancelled.
func (rf *Refresher) Run(ctx context.Context, interval time.Duration) {
	if err := rf.RefreshOnce(ctx); err != nil {
		log.Printf("refresh: initial load: %v", err)
	}
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-hup:
			log.Print("refresh: SIGHUP received, refreshing now")
		}
		if err := rf.RefreshOnce(ctx); err != nil {
			log.Printf("refresh: %v", err)
		}
	}
}

// RefreshOnce fetches the source, rebuilds the tree, and publishes it.
// On any skip or error the previously published tree stays in service.
func (rf *Refresher) RefreshOnce(ctx context.Context) error {
	start := time.Now()

	etag, lastMod := rf.State.Validators()
	rc, res, err := fetch.Open(ctx, rf.Client, rf.Source, etag, lastMod)
	if err == fetch.ErrNotModified {
		refreshRuns.WithLabelValues("not_modified").Inc()
		log.Print("refresh: source not modified, keeping catalog")
		return nil
	}
	if err != nil {
		refreshRuns.WithLabelValues("error").Inc()
		return err
	}

	entries, perr := playlist.Parse(rc)
	cerr := rc.Close()
	if perr != nil {
		refreshRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("parse %s: %w", safeurl.Redacted(rf.Source), perr)
	}
	if cerr != nil {
		log.Printf("refresh: close body: %v", cerr)
	}

	// The hash is known only after Close has drained the reader. Providers
	// that never send validators still answer 200 with identical bodies;
	// skip the rebuild when nothing changed.
	if res.ContentHash != "" && res.ContentHash == rf.State.LastContentHash() {
		rf.State.UpdateValidators(res.ETag, res.LastModified, res.ContentHash)
		if err := rf.State.Save(); err != nil {
			log.Printf("refresh: save state: %v", err)
		}
		refreshRuns.WithLabelValues("unchanged").Inc()
		log.Printf("refresh: content unchanged (%d entries), keeping catalog", len(entries))
		return nil
	}

	now := time.Now()
	present := make(map[string]struct{}, len(entries))
	tree := catalog.New()
	tree.SetHotWindow(rf.HotWindow)
	skipped := 0
	for i := range entries {
		e := entries[i]
		if e.URL != "" {
			present[e.URL] = struct{}{}
			e.AddedAt = rf.State.Stamp(e.URL, now)
		}
		if _, err := tree.Add(e); err != nil {
			skipped++
		}
	}
	rf.State.Retain(present)

	if rf.Prefs != nil {
		pinned, err := rf.Prefs.PinnedGroups()
		if err != nil {
			log.Printf("refresh: load pinned groups: %v", err)
		} else if len(pinned) > 0 {
			for _, gid := range tree.Group(catalog.Root).Groups {
				if pinned[tree.Group(gid).Name] {
					tree.SetSticky(gid, true)
				}
			}
		}
	}

	tree.Finalize()

	rf.State.UpdateValidators(res.ETag, res.LastModified, res.ContentHash)
	if err := rf.State.Save(); err != nil {
		log.Printf("refresh: save state: %v", err)
	}

	if rf.Apply != nil {
		rf.Apply(tree)
	}

	refreshRuns.WithLabelValues("ok").Inc()
	refreshDuration.Observe(time.Since(start).Seconds())
	groups, items := tree.Len()
	log.Printf("refresh: catalog rebuilt: %d entries (%d skipped) groups=%d items=%d in %s",
		len(entries), skipped, groups, items, time.Since(start).Round(time.Millisecond))
	return nil
}
