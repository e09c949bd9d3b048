package browse

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m3ucat/m3ucat/internal/catalog"
	"github.com/m3ucat/m3ucat/internal/match"
	"github.com/m3ucat/m3ucat/internal/prefs"
)

type statsResponse struct {
	catalog.Stats
	Refreshed string `json:"refreshed,omitempty"`
}

type folderResponse struct {
	ID     int           `json:"id"`
	Name   string        `json:"name,omitempty"`
	Kind   string        `json:"kind"`
	Stats  catalog.Stats `json:"stats"`
	Groups []childGroup  `json:"groups"`
	Items  []childItem   `json:"items"`
}

type childGroup struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Season int    `json:"season,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`
	Logo   string `json:"logo,omitempty"`
	Total  int    `json:"total"`
}

type childItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Logo     string  `json:"logo,omitempty"`
	Category string  `json:"category"`
	Year     int     `json:"year,omitempty"`
	Season   int     `json:"season,omitempty"`
	Episode  int     `json:"episode,omitempty"`
	Hot      bool    `json:"hot,omitempty"`
	Favorite bool    `json:"favorite,omitempty"`
	Hidden   bool    `json:"hidden,omitempty"`
	Watched  bool    `json:"watched,omitempty"`
	Progress float64 `json:"progress,omitempty"`
}

type coversResponse struct {
	ID     int             `json:"id"`
	Covers []catalog.Cover `json:"covers"`
}

type searchResponse struct {
	Query      string       `json:"query"`
	Groups     []childGroup `json:"groups"`
	Items      []childItem  `json:"items"`
	Suggestion string       `json:"suggestion,omitempty"`
}

type resolveResponse struct {
	childItem
	Path         []string `json:"path"`
	PossibleLive bool     `json:"possible_live,omitempty"`
}

type itemPrefsRequest struct {
	URL      string   `json:"url"`
	Favorite *bool    `json:"favorite,omitempty"`
	Hidden   *bool    `json:"hidden,omitempty"`
	Watched  *bool    `json:"watched,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

type groupPrefsRequest struct {
	Name   string `json:"name"`
	Pinned *bool  `json:"pinned,omitempty"`
	Hidden *bool  `json:"hidden,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("browse: encode response: %v", err)
	}
}

// groupParam parses the optional ?id= query, defaulting to the root.
// Caller must hold s.mu with s.tree non-nil.
func (s *Server) groupParam(r *http.Request) (catalog.GroupID, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return catalog.Root, true
	}
	n, err := strconv.Atoi(raw)
	groups, _ := s.tree.Len()
	if err != nil || n < 0 || n >= groups {
		return 0, false
	}
	return catalog.GroupID(n), true
}

// itemPrefs loads the whole overlay map, nil when no store is attached.
// One query per request; the store stays small enough that this is cheaper
// than keeping a cache coherent.
func (s *Server) itemPrefs() map[string]prefs.ItemPrefs {
	if s.Prefs == nil {
		return nil
	}
	m, err := s.Prefs.Items()
	if err != nil {
		log.Printf("browse: load item prefs: %v", err)
		return nil
	}
	return m
}

func (s *Server) childGroupView(id catalog.GroupID) childGroup {
	g := s.tree.Group(id)
	return childGroup{
		ID:     int(id),
		Name:   g.Name,
		Kind:   g.Kind.String(),
		Season: g.Season,
		Pinned: g.Sticky,
		Logo:   g.Logo,
		Total:  s.tree.TotalCount(id),
	}
}

func (s *Server) childItemView(id catalog.ItemID, overlay map[string]prefs.ItemPrefs) childItem {
	it := s.tree.Item(id)
	ci := childItem{
		ID:       int(id),
		Name:     it.Name,
		URL:      it.URL,
		Logo:     it.Logo,
		Category: it.Category.String(),
		Year:     it.Year,
		Season:   it.Season,
		Episode:  it.Episode,
		Hot:      s.tree.Hot(id),
	}
	if p, ok := overlay[it.URL]; ok {
		ci.Favorite = p.Favorite
		ci.Hidden = p.Hidden
		ci.Watched = p.Watched
		ci.Progress = p.Progress
	}
	return ci
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
		return
	}
	id, ok := s.groupParam(r)
	if !ok {
		http.Error(w, "bad group id", http.StatusBadRequest)
		return
	}
	resp := statsResponse{Stats: s.tree.StatsFor(id)}
	if !s.refreshed.IsZero() {
		resp.Refreshed = s.refreshed.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// serveFolders lists one folder's children. Hidden groups are filtered at
// the root only (that is where provider categories live); hidden items are
// filtered everywhere. ?all=1 bypasses both so a client can manage them.
func (s *Server) serveFolders(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
		return
	}
	id, ok := s.groupParam(r)
	if !ok {
		http.Error(w, "bad group id", http.StatusBadRequest)
		return
	}
	showHidden := r.URL.Query().Get("all") == "1"

	g := s.tree.Group(id)
	resp := folderResponse{
		ID:     int(id),
		Kind:   g.Kind.String(),
		Stats:  s.tree.StatsFor(id),
		Groups: make([]childGroup, 0, len(g.Groups)),
		Items:  make([]childItem, 0, len(g.Items)),
	}
	if id != catalog.Root {
		resp.Name = g.Name
	}

	var hiddenGroups map[string]bool
	if id == catalog.Root && !showHidden && s.Prefs != nil {
		m, err := s.Prefs.HiddenGroups()
		if err != nil {
			log.Printf("browse: load hidden groups: %v", err)
		} else {
			hiddenGroups = m
		}
	}
	for _, gid := range g.Groups {
		cg := s.childGroupView(gid)
		if hiddenGroups[cg.Name] {
			continue
		}
		resp.Groups = append(resp.Groups, cg)
	}

	overlay := s.itemPrefs()
	for _, iid := range g.Items {
		ci := s.childItemView(iid, overlay)
		if ci.Hidden && !showHidden {
			continue
		}
		resp.Items = append(resp.Items, ci)
	}
	// Favorites bubble up without disturbing canonical order among equals.
	sort.SliceStable(resp.Items, func(i, j int) bool {
		return resp.Items[i].Favorite && !resp.Items[j].Favorite
	})

	writeJSON(w, http.StatusOK, resp)
}

// serveCovers samples covers for one folder. Sampling memoizes on the tree,
// so this handler takes the write lock. ?fresh=1 clears the subtree's memo
// for a reshuffle; ?limit= overrides the configured sample size.
func (s *Server) serveCovers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
		return
	}
	id, ok := s.groupParam(r)
	if !ok {
		http.Error(w, "bad group id", http.StatusBadRequest)
		return
	}
	limit := s.CoverLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if r.URL.Query().Get("fresh") == "1" {
		s.tree.ClearCovers(id)
	}
	writeJSON(w, http.StatusOK, coversResponse{
		ID:     int(id),
		Covers: s.tree.CoverImages(id, limit),
	})
}

func (s *Server) serveSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "missing q", http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	var acc catalog.SearchResults
	s.tree.SearchInto(r.Context(), &acc, match.Tokens(q), match.AllTokens)
	searchDuration.Observe(time.Since(start).Seconds())

	overlay := s.itemPrefs()
	resp := searchResponse{
		Query:  q,
		Groups: make([]childGroup, 0, len(acc.Groups)),
		Items:  make([]childItem, 0, len(acc.Items)),
	}
	for _, gid := range acc.Groups {
		resp.Groups = append(resp.Groups, s.childGroupView(gid))
	}
	for _, iid := range acc.Items {
		ci := s.childItemView(iid, overlay)
		if ci.Hidden {
			continue
		}
		resp.Items = append(resp.Items, ci)
	}
	if acc.Empty() {
		resp.Suggestion = match.Closest(q, s.candidates)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) serveResolve(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
		return
	}
	id, ok := s.tree.FindByURL(u)
	if !ok {
		http.Error(w, "unknown url", http.StatusNotFound)
		return
	}
	// LikelyLiveURL, not PossibleLive: the latter caches on the node and
	// this handler only holds the read lock.
	writeJSON(w, http.StatusOK, resolveResponse{
		childItem:    s.childItemView(id, s.itemPrefs()),
		Path:         s.folderPath(id),
		PossibleLive: catalog.LikelyLiveURL(u),
	})
}

// folderPath walks parent links up from an item, outermost folder first.
// Caller must hold s.mu.
func (s *Server) folderPath(id catalog.ItemID) []string {
	segs := []string{}
	for g := s.tree.Item(id).Parent; g != catalog.Root; g = s.tree.Group(g).Parent {
		segs = append(segs, s.tree.Group(g).Name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

// serveItemPrefs reads (GET ?url=) or updates (POST) the flags for one
// stream. POST merges: only fields present in the body change.
func (s *Server) serveItemPrefs(w http.ResponseWriter, r *http.Request) {
	if s.Prefs == nil {
		http.Error(w, "prefs store disabled", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		u := r.URL.Query().Get("url")
		if u == "" {
			http.Error(w, "missing url", http.StatusBadRequest)
			return
		}
		p, err := s.Prefs.Item(u)
		if err != nil {
			log.Printf("browse: read item prefs: %v", err)
			http.Error(w, "prefs read failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPost:
		var req itemPrefsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		cur, err := s.Prefs.Item(req.URL)
		if err != nil {
			log.Printf("browse: read item prefs: %v", err)
			http.Error(w, "prefs read failed", http.StatusInternalServerError)
			return
		}
		if req.Favorite != nil {
			cur.Favorite = *req.Favorite
		}
		if req.Hidden != nil {
			cur.Hidden = *req.Hidden
		}
		if req.Watched != nil {
			cur.Watched = *req.Watched
		}
		if req.Progress != nil {
			cur.Progress = *req.Progress
		}
		if err := s.Prefs.SetItem(req.URL, cur); err != nil {
			log.Printf("browse: write item prefs: %v", err)
			http.Error(w, "prefs write failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// serveGroupPrefs lists (GET) or updates (POST) pinned and hidden top-level
// groups. A pin takes effect on the live tree immediately; its ordering
// catches up at the next refresh, when siblings are re-sorted.
func (s *Server) serveGroupPrefs(w http.ResponseWriter, r *http.Request) {
	if s.Prefs == nil {
		http.Error(w, "prefs store disabled", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		pinned, err := s.Prefs.PinnedGroups()
		if err != nil {
			log.Printf("browse: read group prefs: %v", err)
			http.Error(w, "prefs read failed", http.StatusInternalServerError)
			return
		}
		hidden, err := s.Prefs.HiddenGroups()
		if err != nil {
			log.Printf("browse: read group prefs: %v", err)
			http.Error(w, "prefs read failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{
			"pinned": sortedNames(pinned),
			"hidden": sortedNames(hidden),
		})
	case http.MethodPost:
		var req groupPrefsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		if req.Pinned != nil {
			var err error
			if *req.Pinned {
				err = s.Prefs.PinGroup(req.Name)
			} else {
				err = s.Prefs.UnpinGroup(req.Name)
			}
			if err != nil {
				log.Printf("browse: write group prefs: %v", err)
				http.Error(w, "prefs write failed", http.StatusInternalServerError)
				return
			}
			s.applySticky(req.Name, *req.Pinned)
		}
		if req.Hidden != nil {
			var err error
			if *req.Hidden {
				err = s.Prefs.HideGroup(req.Name)
			} else {
				err = s.Prefs.UnhideGroup(req.Name)
			}
			if err != nil {
				log.Printf("browse: write group prefs: %v", err)
				http.Error(w, "prefs write failed", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// applySticky flips the pin flag on the live tree's matching root child so
// clients see it without waiting for a rebuild.
func (s *Server) applySticky(name string, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return
	}
	for _, gid := range s.tree.Group(catalog.Root).Groups {
		if s.tree.Group(gid).Name == name {
			s.tree.SetSticky(gid, pinned)
			return
		}
	}
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
