package catalog

import "testing"

func buildMixedTree(t *testing.T) *Tree {
	t.Helper()
	tr := New()
	mustAdd(t, tr, Entry{Title: "Die Hard", URL: "http://x/dh", Group: "Action", Category: Movie})
	mustAdd(t, tr, Entry{Title: "Alien", URL: "http://x/al", Group: "Action|SciFi", Category: Movie})
	mustAdd(t, tr, Entry{Title: "CNN", URL: "http://x/cnn", Group: "News", Category: LiveStream})
	mustAdd(t, tr, Entry{Title: "BB S01E01", URL: "http://x/bb11", Category: Series, Series: "Breaking Bad", Season: 1, Episode: 1})
	mustAdd(t, tr, Entry{Title: "BB S01E02", URL: "http://x/bb12", Category: Series, Series: "Breaking Bad", Season: 1, Episode: 2})
	mustAdd(t, tr, Entry{Title: "BB S02E01", URL: "http://x/bb21", Category: Series, Series: "Breaking Bad", Season: 2, Episode: 1})
	return tr
}

func TestCounts_root(t *testing.T) {
	tr := buildMixedTree(t)
	if n := tr.TotalCount(Root); n != 6 {
		t.Errorf("TotalCount = %d, want 6", n)
	}
	if n := tr.MovieCount(Root); n != 2 {
		t.Errorf("MovieCount = %d, want 2", n)
	}
	if n := tr.LiveStreamCount(Root); n != 1 {
		t.Errorf("LiveStreamCount = %d, want 1", n)
	}
	if n := tr.TvShowCount(Root); n != 1 {
		t.Errorf("TvShowCount = %d, want 1", n)
	}
	if n := tr.SeasonCount(Root); n != 2 {
		t.Errorf("SeasonCount = %d, want 2", n)
	}
	if n := tr.EpisodeCount(Root); n != 3 {
		t.Errorf("EpisodeCount = %d, want 3", n)
	}
}

func TestCounts_movieSkipsSeriesSubtree(t *testing.T) {
	tr := buildMixedTree(t)
	// Episode leaves carry the Series category, but even a mislabelled
	// movie inside a season must not count: MovieCount never descends into
	// series subtrees.
	show := findGroup(t, tr, Root, "Breaking Bad")
	season, ok := tr.Season(show, 1)
	if !ok {
		t.Fatal("season 1 missing")
	}
	tr.items[tr.groups[season].items[0]].category = Movie

	if n := tr.MovieCount(Root); n != 2 {
		t.Errorf("MovieCount = %d, want 2 (series subtree excluded)", n)
	}
	// TotalCount still sees every leaf.
	if n := tr.TotalCount(Root); n != 6 {
		t.Errorf("TotalCount = %d, want 6", n)
	}
}

func TestCounts_seriesScenario(t *testing.T) {
	tr := New()
	mustAdd(t, tr, Entry{Title: "S01E01", URL: "http://x/1", Category: Series, Series: "Show", Season: 1, Episode: 1})
	second := mustAdd(t, tr, Entry{Title: "S01E02", URL: "http://x/2", Category: Series, Series: "Show", Season: 1, Episode: 2})
	mustAdd(t, tr, Entry{Title: "S02E01", URL: "http://x/3", Category: Series, Series: "Show", Season: 2, Episode: 1})

	show := findGroup(t, tr, Root, "Show")
	if n := tr.SeasonCount(show); n != 2 {
		t.Errorf("SeasonCount(show) = %d, want 2", n)
	}
	if n := tr.EpisodeCount(show); n != 3 {
		t.Errorf("EpisodeCount(show) = %d, want 3", n)
	}
	if got, ok := tr.Episode(show, 1, 2); !ok || got != second {
		t.Errorf("Episode(1,2) = %d,%v; want %d,true", got, ok, second)
	}
}

func TestCounts_recurseThroughPlainFolders(t *testing.T) {
	tr := New()
	// A show nested in the default root tier next to a folder holding more
	// folders; folder recursion must still find the series below root.
	mustAdd(t, tr, Entry{Title: "E1", URL: "http://x/1", Category: Series, Series: "Deep Show", Season: 1, Episode: 1})
	mustAdd(t, tr, Entry{Title: "M", URL: "http://x/m", Group: "A|B|C", Category: Movie})

	if n := tr.TvShowCount(Root); n != 1 {
		t.Errorf("TvShowCount = %d, want 1", n)
	}
	a := findGroup(t, tr, Root, "A")
	if n := tr.TvShowCount(a); n != 0 {
		t.Errorf("TvShowCount(A) = %d, want 0", n)
	}
	if n := tr.MovieCount(a); n != 1 {
		t.Errorf("MovieCount(A) = %d, want 1 via B/C recursion", n)
	}
}

func TestStatsFor(t *testing.T) {
	tr := buildMixedTree(t)
	got := tr.StatsFor(Root)
	want := Stats{Total: 6, Movies: 2, Live: 1, TvShows: 1, Seasons: 2, Episodes: 3}
	if got != want {
		t.Errorf("StatsFor(Root) = %+v, want %+v", got, want)
	}
}
