package playlist

import (
	"testing"

	"github.com/m3ucat/m3ucat/internal/catalog"
)

func TestDetectEpisode_formats(t *testing.T) {
	cases := []struct {
		title   string
		series  string
		season  int
		episode int
	}{
		{"Show Name S01E01", "Show Name", 1, 1},
		{"show s1e1", "show", 1, 1},
		{"Another Show 1x05", "Another Show", 1, 5},
		{"Cool Series Season 2 Episode 10", "Cool Series", 2, 10},
		{"Spaced S 01 E 02", "Spaced", 1, 2},
	}
	for _, c := range cases {
		got, ok := DetectEpisode(c.title)
		if !ok {
			t.Errorf("DetectEpisode(%q): no match", c.title)
			continue
		}
		if got.Series != c.series || got.Season != c.season || got.Episode != c.episode {
			t.Errorf("DetectEpisode(%q) = %+v, want %s S%02dE%02d", c.title, got, c.series, c.season, c.episode)
		}
	}
}

func TestDetectEpisode_noMatch(t *testing.T) {
	for _, title := range []string{"Just a Movie", "Live Channel", ""} {
		if _, ok := DetectEpisode(title); ok {
			t.Errorf("DetectEpisode(%q) matched unexpectedly", title)
		}
	}
}

func TestDetectEpisode_leadingMarkerKeepsFullTitle(t *testing.T) {
	got, ok := DetectEpisode("S01E01 Cold Open")
	if !ok {
		t.Fatal("no match")
	}
	if got.Series != "S01E01 Cold Open" {
		t.Errorf("series = %q, want the full title when the marker leads", got.Series)
	}
}

func TestDetectYear(t *testing.T) {
	cases := []struct {
		title   string
		year    int
		cleaned string
	}{
		{"Movie Name (2022)", 2022, "Movie Name"},
		{"Old Movie [1999]", 1999, "Old Movie"},
		{"Movie 2023 Title", 2023, "Movie Title"},
		{"Some Film 2020", 2020, "Some Film"},
		{"Classic (1950)", 1950, "Classic"},
		{"Türkçe Film (2021)", 2021, "Türkçe Film"},
	}
	for _, c := range cases {
		year, cleaned, ok := DetectYear(c.title)
		if !ok {
			t.Errorf("DetectYear(%q): no match", c.title)
			continue
		}
		if year != c.year || cleaned != c.cleaned {
			t.Errorf("DetectYear(%q) = %d %q, want %d %q", c.title, year, cleaned, c.year, c.cleaned)
		}
	}
}

func TestDetectYear_outOfRange(t *testing.T) {
	for _, title := range []string{"Future 2100", "Ancient 1899", "No Year Movie"} {
		if _, _, ok := DetectYear(title); ok {
			t.Errorf("DetectYear(%q) matched unexpectedly", title)
		}
	}
}

func TestDetectYear_firstOccurrenceOnly(t *testing.T) {
	year, cleaned, ok := DetectYear("Movie (2020) Remake of (1980)")
	if !ok || year != 2020 {
		t.Fatalf("year = %d ok=%v", year, ok)
	}
	if cleaned != "Movie Remake of (1980)" {
		t.Errorf("cleaned = %q, second year must stay", cleaned)
	}
}

func TestCategorize(t *testing.T) {
	e := Categorize("ESPN HD", "http://host/live/espn")
	if e.Category != catalog.LiveStream {
		t.Errorf("live URL: got %v", e.Category)
	}

	e = Categorize("Die Hard (1988)", "http://host/die-hard.mkv")
	if e.Category != catalog.Movie || e.Year != 1988 {
		t.Errorf("movie: %+v", e)
	}
	if e.Title != "Die Hard (1988)" {
		t.Errorf("title must stay untouched, got %q", e.Title)
	}

	e = Categorize("Show (2020) S01E01", "http://host/ep.mkv")
	if e.Category != catalog.Series || e.Series != "Show" || e.Season != 1 || e.Episode != 1 {
		t.Errorf("year-first stripping: %+v", e)
	}
	if e.Year != 2020 {
		t.Errorf("year = %d, want 2020", e.Year)
	}
}

func TestCategorize_liveWinsOverMarkers(t *testing.T) {
	// URL shape decides first; an episode-looking title on an extensionless
	// URL is still a live stream.
	e := Categorize("Show S01E01", "http://host/stream/123")
	if e.Category != catalog.LiveStream {
		t.Errorf("got %v, want live", e.Category)
	}
	if e.Season != 0 || e.Series != "" {
		t.Errorf("live entries carry no episode metadata: %+v", e)
	}
}
