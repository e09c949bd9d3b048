// Package catalog builds a navigable in-memory hierarchy from a flat stream
// of playlist entries: plain folders for movies and live streams, and a
// series → season nesting for episodic content.
//
// The tree is rebuilt from scratch on every source load and discarded on the
// next one. It assumes a single writer: ingestion and Finalize must not run
// concurrently with reads, and the package takes no locks of its own. Callers
// that serve a tree to concurrent readers swap whole *Tree values instead of
// mutating a shared one.
package catalog

import (
	"fmt"
	"strings"
	"time"
)

// GroupID and ItemID are handles into the tree's node arenas. Handles stay
// valid for the life of the Tree; pruning detaches a group from its parent
// but never reuses its slot.
type (
	GroupID int
	ItemID  int
)

// Root is the implicit top folder created by New.
const Root GroupID = 0

// Kind discriminates the three folder roles.
type Kind int

const (
	KindFolder Kind = iota // generic folder
	KindSeries             // one show; children are season groups only
	KindSeason             // one season; children are episode leaves only
)

func (k Kind) String() string {
	switch k {
	case KindSeries:
		return "series"
	case KindSeason:
		return "season"
	default:
		return "folder"
	}
}

// group is the arena record for a folder node. Child collections are owning
// and ordered; parent is the non-owning back-reference (the root points at
// itself).
type group struct {
	name    string
	logo    string
	kind    Kind
	season  int // season number, season groups only
	sticky  bool
	addedAt time.Time
	parent  GroupID
	groups  []GroupID
	items   []ItemID

	// Memoized cover sample. Never invalidated by mutation; callers clear
	// it explicitly via ClearCovers.
	covers    []Cover
	coversSet bool
}

// item is the arena record for a leaf. live caches the URL-shape heuristic:
// 0 unknown, 1 likely live, -1 not.
type item struct {
	name       string
	url        string
	logo       string
	groupLabel string
	category   Category
	series     string
	year       int
	season     int
	episode    int
	sticky     bool
	addedAt    time.Time
	parent     GroupID
	live       int8
}

// DefaultHotWindow is how recent an AddedAt must be for a cover to carry the
// hot flag.
const DefaultHotWindow = 7 * 24 * time.Hour

// Tree is the catalog hierarchy. Zero value is not usable; call New.
type Tree struct {
	groups    []group
	items     []item
	hotWindow time.Duration
}

// New returns an empty tree holding only the root folder.
func New() *Tree {
	t := &Tree{hotWindow: DefaultHotWindow}
	t.groups = append(t.groups, group{kind: KindFolder, parent: Root})
	return t
}

// SetHotWindow overrides the recency window used for cover hot flags.
// Non-positive d disables the flag entirely.
func (t *Tree) SetHotWindow(d time.Duration) { t.hotWindow = d }

// Group is a read-only view of one folder node. Groups and Items alias the
// tree's own slices; callers must not modify them.
type Group struct {
	ID      GroupID
	Name    string
	Logo    string
	Kind    Kind
	Season  int
	Sticky  bool
	AddedAt time.Time
	Parent  GroupID
	Groups  []GroupID
	Items   []ItemID
}

// Item is a read-only view of one leaf node.
type Item struct {
	ID         ItemID
	Name       string
	URL        string
	Logo       string
	GroupLabel string
	Category   Category
	Series     string
	Year       int
	Season     int
	Episode    int
	Sticky     bool
	AddedAt    time.Time
	Parent     GroupID
}

// Group returns the view for id. id must be a handle obtained from this tree.
func (t *Tree) Group(id GroupID) Group {
	g := &t.groups[id]
	return Group{
		ID:      id,
		Name:    g.name,
		Logo:    g.logo,
		Kind:    g.kind,
		Season:  g.season,
		Sticky:  g.sticky,
		AddedAt: g.addedAt,
		Parent:  g.parent,
		Groups:  g.groups,
		Items:   g.items,
	}
}

// Item returns the view for id.
func (t *Tree) Item(id ItemID) Item {
	it := &t.items[id]
	return Item{
		ID:         id,
		Name:       it.name,
		URL:        it.url,
		Logo:       it.logo,
		GroupLabel: it.groupLabel,
		Category:   it.category,
		Series:     it.series,
		Year:       it.year,
		Season:     it.season,
		Episode:    it.episode,
		Sticky:     it.sticky,
		AddedAt:    it.addedAt,
		Parent:     it.parent,
	}
}

// Len reports how many groups and items the arenas hold, pruned or not.
func (t *Tree) Len() (groups, items int) { return len(t.groups), len(t.items) }

// PossibleLive reports whether the item's URL looks like a live stream.
// Computed once per item from the URL shape and cached on the node.
func (t *Tree) PossibleLive(id ItemID) bool {
	it := &t.items[id]
	if it.live == 0 {
		if LikelyLiveURL(it.url) {
			it.live = 1
		} else {
			it.live = -1
		}
	}
	return it.live == 1
}

// SetSticky pins or unpins a group in its sibling ordering. Takes effect at
// the next Finalize.
func (t *Tree) SetSticky(id GroupID, sticky bool) { t.groups[id].sticky = sticky }

// Add ingests one entry. Movies and live streams land in the folder chain
// named by the entry's group label; series entries land under a root-level
// series group keyed by show title, inside the season group for their
// (normalized) season number.
//
// A movie/live URL already present directly under its resolved folder makes
// the call a no-op returning the existing handle. Episode URLs are assumed
// unique by the caller and are always appended.
func (t *Tree) Add(e Entry) (ItemID, error) {
	if strings.TrimSpace(e.Title) == "" {
		return 0, ErrNoTitle
	}
	if strings.TrimSpace(e.URL) == "" {
		return 0, ErrNoURL
	}
	if e.Category == Series {
		return t.addEpisode(e), nil
	}

	folder := t.resolveChain(splitGroupLabel(e.Group), e.AddedAt)
	if id, ok := t.findDirectURL(folder, e.URL); ok {
		return id, nil
	}
	return t.appendItem(folder, item{
		name:       e.Title,
		url:        e.URL,
		logo:       e.Logo,
		groupLabel: e.Group,
		category:   e.Category,
		year:       e.Year,
		addedAt:    e.AddedAt,
	}), nil
}

func (t *Tree) addEpisode(e Entry) ItemID {
	title := strings.TrimSpace(e.Series)
	if title == "" {
		title = DefaultSeriesName
	}
	show := t.resolveChild(Root, title, KindSeries, 0, e.AddedAt)
	season := normalizeSeason(e.Season)
	sg := t.resolveChild(show, seasonName(season), KindSeason, season, e.AddedAt)
	// Episodes of a show share artwork often enough that the first one seen
	// makes a fine show/season thumbnail.
	if e.Logo != "" {
		if t.groups[show].logo == "" {
			t.groups[show].logo = e.Logo
		}
		if t.groups[sg].logo == "" {
			t.groups[sg].logo = e.Logo
		}
	}
	return t.appendItem(sg, item{
		name:       e.Title,
		url:        e.URL,
		logo:       e.Logo,
		groupLabel: e.Group,
		category:   Series,
		series:     title,
		year:       e.Year,
		season:     season,
		episode:    e.Episode,
		addedAt:    e.AddedAt,
	})
}

func (t *Tree) appendItem(parent GroupID, it item) ItemID {
	it.parent = parent
	id := ItemID(len(t.items))
	t.items = append(t.items, it)
	t.groups[parent].items = append(t.groups[parent].items, id)
	return id
}

// resolveChain walks/creates a folder chain below the root, one segment per
// tier. Resolution is idempotent: an existing name at a tier is reused.
func (t *Tree) resolveChain(segments []string, addedAt time.Time) GroupID {
	cur := Root
	for _, seg := range segments {
		cur = t.resolveChild(cur, seg, KindFolder, 0, addedAt)
	}
	return cur
}

// resolveChild finds the direct child of parent with the given name, or
// creates it. Names are unique among siblings, so the first match wins. A
// freshly created group takes the timestamp of the entry that caused it;
// later entries never bump it.
func (t *Tree) resolveChild(parent GroupID, name string, kind Kind, season int, addedAt time.Time) GroupID {
	for _, gid := range t.groups[parent].groups {
		if t.groups[gid].name == name {
			return gid
		}
	}
	id := GroupID(len(t.groups))
	t.groups = append(t.groups, group{
		name:    name,
		kind:    kind,
		season:  season,
		parent:  parent,
		addedAt: addedAt,
	})
	t.groups[parent].groups = append(t.groups[parent].groups, id)
	return id
}

func (t *Tree) findDirectURL(parent GroupID, url string) (ItemID, bool) {
	for _, iid := range t.groups[parent].items {
		if t.items[iid].url == url {
			return iid, true
		}
	}
	return 0, false
}

// FindByURL locates a leaf by URL anywhere in the tree: depth-first, child
// folders before this folder's own items, first match wins.
func (t *Tree) FindByURL(url string) (ItemID, bool) {
	return t.findByURL(Root, url)
}

func (t *Tree) findByURL(g GroupID, url string) (ItemID, bool) {
	for _, gid := range t.groups[g].groups {
		if id, ok := t.findByURL(gid, url); ok {
			return id, true
		}
	}
	return t.findDirectURL(g, url)
}

// splitGroupLabel breaks a playlist group label into folder tiers. Provider
// labels pack hierarchy into one string ("US | Sports HD", "VOD/Action");
// both separators open a tier. Blank labels get the default folder.
func splitGroupLabel(label string) []string {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return r == '|' || r == '/'
	})
	segs := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			segs = append(segs, f)
		}
	}
	if len(segs) == 0 {
		return []string{DefaultGroupName}
	}
	return segs
}

func normalizeSeason(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func seasonName(n int) string {
	return fmt.Sprintf("Season %02d", n)
}
