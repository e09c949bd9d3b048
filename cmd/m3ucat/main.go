// Command m3ucat: browse an IPTV playlist as a catalog (serve), or index / search / mount one-shot.
//
//	index   Fetch the playlist, parse, build the catalog, print stats
//	serve   Run the browse API with scheduled refresh. For systemd; SIGHUP forces a refresh
//	search  One-shot catalog search from the command line
//	mount   Mount the catalog as a read-only tree of .strm files (linux)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/m3ucat/m3ucat/internal/browse"
	"github.com/m3ucat/m3ucat/internal/catalog"
	"github.com/m3ucat/m3ucat/internal/catalogfs"
	"github.com/m3ucat/m3ucat/internal/config"
	"github.com/m3ucat/m3ucat/internal/fetch"
	"github.com/m3ucat/m3ucat/internal/httpclient"
	"github.com/m3ucat/m3ucat/internal/match"
	"github.com/m3ucat/m3ucat/internal/playlist"
	"github.com/m3ucat/m3ucat/internal/prefs"
	"github.com/m3ucat/m3ucat/internal/safeurl"
)

// buildResult holds the output of buildTree.
type buildResult struct {
	Tree    *catalog.Tree
	Entries int
	Skipped int
}

// buildTree fetches and parses the playlist once and returns the finalized
// tree. Used by the one-shot commands; serve goes through browse.Refresher
// instead so it gets conditional requests and pin handling.
func buildTree(ctx context.Context, cfg *config.Config, source string) (buildResult, error) {
	var res buildResult
	if source == "" {
		source = cfg.SourceOrBuild()
	}
	if source == "" {
		return res, fmt.Errorf("need -source URL/path or M3UCAT_SOURCE in .env")
	}
	if strings.Contains(source, "://") && !safeurl.IsHTTPOrHTTPS(source) {
		return res, fmt.Errorf("source %s: only http(s) URLs and local paths are supported", safeurl.Redacted(source))
	}

	client := httpclient.WithTimeout(cfg.FetchTimeout)
	rc, _, err := fetch.Open(ctx, client, source, "", "")
	if err != nil {
		return res, err
	}
	entries, perr := playlist.Parse(rc)
	rc.Close()
	if perr != nil {
		return res, fmt.Errorf("parse %s: %w", safeurl.Redacted(source), perr)
	}

	tree := catalog.New()
	tree.SetHotWindow(cfg.HotWindow)
	for _, e := range entries {
		if _, err := tree.Add(e); err != nil {
			res.Skipped++
		}
	}
	tree.Finalize()
	res.Tree = tree
	res.Entries = len(entries)
	return res, nil
}

func main() {
	_ = config.LoadEnvFile(".env")
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[m3ucat] ")

	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)
	indexSource := indexCmd.String("source", "", "Playlist URL or path (default: M3UCAT_SOURCE)")

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	serveSource := serveCmd.String("source", "", "Playlist URL or path (default: M3UCAT_SOURCE)")
	serveAddr := serveCmd.String("addr", "", "Listen address (default: M3UCAT_LISTEN or :5260)")
	serveRefresh := serveCmd.Duration("refresh", 0, "Refresh interval, e.g. 6h (default: M3UCAT_REFRESH_INTERVAL)")

	searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
	searchSource := searchCmd.String("source", "", "Playlist URL or path (default: M3UCAT_SOURCE)")
	searchLimit := searchCmd.Int("limit", 20, "Max results to print")

	mountCmd := flag.NewFlagSet("mount", flag.ExitOnError)
	mountSource := mountCmd.String("source", "", "Playlist URL or path (default: M3UCAT_SOURCE)")
	mountPoint := mountCmd.String("mount", "", "Mount point (default: first argument or M3UCAT_MOUNT)")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index|serve|search|mount> [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  index   Fetch playlist, build catalog, print stats\n")
		fmt.Fprintf(os.Stderr, "  serve   Run the browse API with scheduled refresh\n")
		fmt.Fprintf(os.Stderr, "  search  One-shot catalog search (m3ucat search heat 1995)\n")
		fmt.Fprintf(os.Stderr, "  mount   Mount the catalog as read-only .strm files (linux)\n")
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "index":
		_ = indexCmd.Parse(os.Args[2:])
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.FetchTimeout)
		defer cancel()
		res, err := buildTree(ctx, cfg, *indexSource)
		if err != nil {
			log.Printf("Index failed: %v", err)
			os.Exit(1)
		}
		st := res.Tree.StatsFor(catalog.Root)
		fmt.Printf("%-10s %d\n", "total", st.Total)
		fmt.Printf("%-10s %d\n", "movies", st.Movies)
		fmt.Printf("%-10s %d\n", "live", st.Live)
		fmt.Printf("%-10s %d\n", "tv shows", st.TvShows)
		fmt.Printf("%-10s %d\n", "seasons", st.Seasons)
		fmt.Printf("%-10s %d\n", "episodes", st.Episodes)
		if res.Skipped > 0 {
			log.Printf("Indexed %d entries, %d skipped (missing title or url)", res.Entries, res.Skipped)
		}

	case "serve":
		_ = serveCmd.Parse(os.Args[2:])
		source := *serveSource
		if source == "" {
			source = cfg.SourceOrBuild()
		}
		if source == "" {
			log.Print("Serve failed: need -source URL/path or M3UCAT_SOURCE in .env")
			os.Exit(1)
		}
		if strings.Contains(source, "://") && !safeurl.IsHTTPOrHTTPS(source) {
			log.Printf("Serve failed: source %s is not an http(s) URL or local path", safeurl.Redacted(source))
			os.Exit(1)
		}
		addr := *serveAddr
		if addr == "" {
			addr = cfg.Listen
		}
		interval := cfg.RefreshInterval
		if *serveRefresh > 0 {
			interval = *serveRefresh
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := prefs.Open(cfg.PrefsDB)
		if err != nil {
			log.Printf("Open prefs %s: %v", cfg.PrefsDB, err)
			os.Exit(1)
		}
		defer store.Close()

		state, err := fetch.LoadState(cfg.StateFile, fetch.SourceKey(source))
		if err != nil {
			log.Printf("Load fetch state failed: %v", err)
			os.Exit(1)
		}

		srv := &browse.Server{
			Addr:       addr,
			CoverLimit: cfg.CoverLimit,
			RateRPS:    cfg.RateRPS,
			RateBurst:  cfg.RateBurst,
			Prefs:      store,
		}
		ref := &browse.Refresher{
			Source:    source,
			Client:    httpclient.WithTimeout(cfg.FetchTimeout),
			State:     state,
			Prefs:     store,
			HotWindow: cfg.HotWindow,
			Apply:     srv.SetTree,
		}
		go ref.Run(ctx, interval)

		if err := srv.Run(ctx); err != nil {
			log.Printf("Serve failed: %v", err)
			os.Exit(1)
		}

	case "search":
		_ = searchCmd.Parse(os.Args[2:])
		query := strings.TrimSpace(strings.Join(searchCmd.Args(), " "))
		if query == "" {
			fmt.Fprintf(os.Stderr, "Usage: %s search [flags] <query>\n", os.Args[0])
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.FetchTimeout)
		defer cancel()
		res, err := buildTree(ctx, cfg, *searchSource)
		if err != nil {
			log.Printf("Search failed: %v", err)
			os.Exit(1)
		}

		var acc catalog.SearchResults
		res.Tree.SearchInto(ctx, &acc, match.Tokens(query), match.AllTokens)
		if acc.Empty() {
			fmt.Printf("no matches for %q\n", query)
			os.Exit(0)
		}
		shown := 0
		for _, gid := range acc.Groups {
			if shown >= *searchLimit {
				break
			}
			g := res.Tree.Group(gid)
			st := res.Tree.StatsFor(gid)
			fmt.Printf("%-7s %s (%d entries)\n", g.Kind, g.Name, st.Total)
			shown++
		}
		for _, iid := range acc.Items {
			if shown >= *searchLimit {
				break
			}
			it := res.Tree.Item(iid)
			fmt.Printf("%-7s %s  %s\n", it.Category, it.Name, it.URL)
			shown++
		}
		if total := len(acc.Groups) + len(acc.Items); total > shown {
			fmt.Printf("... and %d more (use -limit)\n", total-shown)
		}

	case "mount":
		_ = mountCmd.Parse(os.Args[2:])
		mp := *mountPoint
		if mp == "" && mountCmd.NArg() > 0 {
			mp = mountCmd.Arg(0)
		}
		if mp == "" {
			mp = cfg.MountPoint
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bctx, cancel := context.WithTimeout(ctx, 2*cfg.FetchTimeout)
		res, err := buildTree(bctx, cfg, *mountSource)
		cancel()
		if err != nil {
			log.Printf("Mount failed: %v", err)
			os.Exit(1)
		}

		server, err := catalogfs.Mount(mp, res.Tree)
		if err != nil {
			log.Printf("Mount %s: %v", mp, err)
			os.Exit(1)
		}
		groups, items := res.Tree.Len()
		log.Printf("Mounted catalog at %s (%d groups, %d streams); Ctrl-C or fusermount -u to unmount", mp, groups, items)
		go func() {
			<-ctx.Done()
			if err := server.Unmount(); err != nil {
				log.Printf("Unmount: %v", err)
			}
		}()
		server.Wait()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\nUsage: %s <index|serve|search|mount> [flags]\n", os.Args[1], os.Args[0])
		os.Exit(1)
	}
}
