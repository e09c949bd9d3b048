package catalog

import (
	"errors"
	"strings"
	"time"
)

// Category classifies what a playlist entry points at.
type Category int

const (
	Movie      Category = iota // one-off VOD title
	Series                     // episode of a show
	LiveStream                 // continuous live feed
)

func (c Category) String() string {
	switch c {
	case Movie:
		return "movie"
	case Series:
		return "series"
	case LiveStream:
		return "live"
	default:
		return "unknown"
	}
}

// Entry is one parsed playlist record, the unit of ingestion.
// Title and URL are required; everything else is optional metadata.
type Entry struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Group    string   `json:"group,omitempty"` // raw group-title label from the playlist
	Logo     string   `json:"logo,omitempty"`
	Category Category `json:"category"`
	Year     int      `json:"year,omitempty"`
	// Series metadata, set when Category == Series. Season 0 is unknown and
	// normalized to 1 on insert; Episode 0 is unknown.
	Series  string `json:"series,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
	// AddedAt is when the entry first appeared in the source, when known.
	AddedAt time.Time `json:"added_at,omitempty"`
}

// Rejected-entry sentinels. Callers decide whether a rejected entry skips
// or aborts the whole load.
var (
	ErrNoTitle = errors.New("catalog: entry has no title")
	ErrNoURL   = errors.New("catalog: entry has no url")
)

// Cover is the minimal projection handed to summary views: enough to draw
// a thumbnail tile, never the full item.
type Cover struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
	Hot  bool   `json:"hot,omitempty"` // added within the hot window
}

// Default labels substituted when a playlist omits them.
const (
	DefaultGroupName  = "unnamed group"
	DefaultSeriesName = "unnamed tvshow"
)

// LikelyLiveURL reports whether a URL looks like a continuous stream rather
// than a downloadable file: the last path segment, query string stripped,
// carries no extension dot. URLs without any path separator don't qualify.
func LikelyLiveURL(rawURL string) bool {
	i := strings.LastIndexByte(rawURL, '/')
	if i < 0 {
		return false
	}
	seg := rawURL[i+1:]
	if q := strings.IndexByte(seg, '?'); q >= 0 {
		seg = seg[:q]
	}
	return !strings.Contains(seg, ".")
}
