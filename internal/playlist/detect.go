package playlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

// episodePatterns are tried in order, first hit wins. Each captures
// (season, episode): S01E01, 1x01, "Season 1 Episode 1", "S 01 E 01".
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,2})`),
	regexp.MustCompile(`(?i)(\d{1,2})x(\d{1,2})`),
	regexp.MustCompile(`(?i)season\s*(\d{1,2})\s*episode\s*(\d{1,2})`),
	regexp.MustCompile(`(?i)s\s*(\d{1,2})\s*e\s*(\d{1,2})`),
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// EpisodeInfo is the result of a successful episode-marker detection.
type EpisodeInfo struct {
	Series  string
	Season  int
	Episode int
}

// DetectEpisode scans a title for season/episode markers. The series name is
// everything before the marker, or the whole title when the marker leads.
func DetectEpisode(title string) (EpisodeInfo, bool) {
	for _, p := range episodePatterns {
		m := p.FindStringSubmatchIndex(title)
		if m == nil {
			continue
		}
		season, err1 := strconv.Atoi(title[m[2]:m[3]])
		episode, err2 := strconv.Atoi(title[m[4]:m[5]])
		if err1 != nil || err2 != nil {
			continue
		}
		series := strings.TrimSpace(title[:m[0]])
		if series == "" {
			series = title
		}
		return EpisodeInfo{Series: series, Season: season, Episode: episode}, true
	}
	return EpisodeInfo{}, false
}

// DetectYear finds the first 19xx/20xx run in a title. cleaned is the title
// with that run and its immediately surrounding bracket or parenthesis
// removed, whitespace collapsed; only the first occurrence is stripped.
func DetectYear(title string) (year int, cleaned string, ok bool) {
	loc := yearPattern.FindStringIndex(title)
	if loc == nil {
		return 0, title, false
	}
	year, _ = strconv.Atoi(title[loc[0]:loc[1]])
	start, end := loc[0], loc[1]
	if start > 0 && (title[start-1] == '(' || title[start-1] == '[') {
		start--
	}
	if end < len(title) && (title[end] == ')' || title[end] == ']') {
		end++
	}
	cleaned = strings.Join(strings.Fields(title[:start]+title[end:]), " ")
	return year, cleaned, true
}

// Categorize derives the category and metadata for one title/URL pair.
// URL shape alone decides live streams; otherwise the year is stripped
// first and episode markers are matched against the cleaned title, so
// "Show (2020) S01E01" detects season 1, not season 20.
func Categorize(title, url string) catalog.Entry {
	e := catalog.Entry{Title: title, URL: url}
	if catalog.LikelyLiveURL(url) {
		e.Category = catalog.LiveStream
		return e
	}
	working := title
	if y, cleaned, ok := DetectYear(title); ok {
		e.Year = y
		working = cleaned
	}
	if ep, ok := DetectEpisode(working); ok {
		e.Category = catalog.Series
		e.Series = ep.Series
		e.Season = ep.Season
		e.Episode = ep.Episode
		return e
	}
	e.Category = catalog.Movie
	return e
}
