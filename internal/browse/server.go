// Package browse serves the catalog over a small JSON API: folder
// navigation, cover sampling, search, resolve, and durable per-item
// preferences. The refresh loop replaces the published tree wholesale;
// handlers never mutate it except for cover memoization, which runs under
// the write lock.
package browse

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/m3ucat/m3ucat/internal/catalog"
	"github.com/m3ucat/m3ucat/internal/prefs"
)

// Server exposes one published catalog tree over HTTP. Exported fields are
// set once before Run; the tree arrives later via SetTree.
type Server struct {
	Addr       string
	CoverLimit int
	RateRPS    int
	RateBurst  int
	Prefs      *prefs.Store

	mu         sync.RWMutex
	tree       *catalog.Tree
	candidates []string
	refreshed  time.Time

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

// SetTree publishes a finalized tree, replacing the previous one. Safe to
// call while the server is running; in-flight handlers finish against the
// tree they started with.
func (s *Server) SetTree(t *catalog.Tree) {
	names := collectCandidates(t)
	total := t.TotalCount(catalog.Root)

	s.mu.Lock()
	s.tree = t
	s.candidates = names
	s.refreshed = time.Now()
	s.mu.Unlock()

	catalogEntries.Set(float64(total))
}

// collectCandidates gathers every reachable folder and series name for the
// did-you-mean suggester. Season groups are skipped; "Season 3" is useless
// as a suggestion.
func collectCandidates(t *catalog.Tree) []string {
	var names []string
	stack := []catalog.GroupID{catalog.Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, gid := range t.Group(id).Groups {
			child := t.Group(gid)
			if child.Kind == catalog.KindSeason {
				continue
			}
			names = append(names, child.Name)
			stack = append(stack, gid)
		}
	}
	return names
}

// Handler builds the full route table. The API subtree is rate limited and
// compressed; health and metrics stay outside both so probes never 429.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/stats", s.serveStats)
	api.HandleFunc("/api/folders", s.serveFolders)
	api.HandleFunc("/api/covers", s.serveCovers)
	api.HandleFunc("/api/search", s.serveSearch)
	api.HandleFunc("/api/resolve", s.serveResolve)
	api.HandleFunc("/api/prefs/item", s.serveItemPrefs)
	api.HandleFunc("/api/prefs/group", s.serveGroupPrefs)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.rateLimit(compress(api)))
	mux.Handle("/healthz", s.serveHealth())
	mux.Handle("/metrics", promhttp.Handler())
	return logRequests(mux)
}

// Run blocks until ctx is cancelled or the server fails to start. On
// shutdown it stops accepting new connections and waits briefly for
// in-flight requests to finish.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = ":5260"
	}

	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Browse API listening on %s", addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Print("Shutting down browse API ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Browse API shutdown: %v", err)
		}
		<-serverErr
		return nil
	}
}

// serveHealth returns an http.Handler for GET /healthz.
// Returns 200 {"status":"ok",...} once a catalog has been published, 503
// {"status":"loading"} before.
func (s *Server) serveHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		t := s.tree
		refreshed := s.refreshed
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if t == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		body, _ := json.Marshal(map[string]interface{}{
			"status":       "ok",
			"entries":      t.TotalCount(catalog.Root),
			"last_refresh": refreshed.Format(time.RFC3339),
		})
		_, _ = w.Write(body)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *loggingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		status := lw.status
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(pathLabel(r.URL.Path), strconv.Itoa(status)).Inc()
		log.Printf(
			"http: %s %s status=%d bytes=%d dur=%s ua=%q remote=%s",
			r.Method, r.URL.Path, status, lw.bytes, time.Since(start).Round(time.Millisecond), r.UserAgent(), r.RemoteAddr,
		)
	})
}

// pathLabel maps request paths onto the fixed route set so metric label
// cardinality stays bounded no matter what clients probe.
func pathLabel(p string) string {
	switch p {
	case "/api/stats", "/api/folders", "/api/covers", "/api/search", "/api/resolve",
		"/api/prefs/item", "/api/prefs/group", "/healthz", "/metrics":
		return p
	}
	return "other"
}

// compress negotiates brotli or gzip from Accept-Encoding and wraps the
// response body. Identity requests pass through untouched.
func compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := brotli.HTTPCompressor(w, r)
		defer cw.Close()
		next.ServeHTTP(&compressResponseWriter{ResponseWriter: w, body: cw}, r)
	})
}

type compressResponseWriter struct {
	http.ResponseWriter
	body io.Writer
}

func (w *compressResponseWriter) Write(p []byte) (int, error) {
	return w.body.Write(p)
}

// maxTrackedClients bounds the per-IP limiter map. Reset rather than evict;
// the map only grows past this when something is scanning.
const maxTrackedClients = 4096

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiterFor(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(ip string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	if len(s.limiters) > maxTrackedClients {
		s.limiters = nil
	}
	if s.limiters == nil {
		s.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := s.limiters[ip]
	if !ok {
		rps := s.RateRPS
		if rps <= 0 {
			rps = 20
		}
		burst := s.RateBurst
		if burst < rps {
			burst = 2 * rps
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
		s.limiters[ip] = lim
	}
	return lim
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
