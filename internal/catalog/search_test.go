package catalog

import (
	"context"
	"strings"
	"testing"
)

// containsAll is the stand-in matcher for engine tests: every token must
// appear case-insensitively, and no tokens match nothing.
func containsAll(name string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	ln := strings.ToLower(name)
	for _, tok := range tokens {
		if !strings.Contains(ln, strings.ToLower(tok)) {
			return false
		}
	}
	return true
}

func buildSearchTree(t *testing.T) *Tree {
	t.Helper()
	tr := New()
	mustAdd(t, tr, Entry{Title: "Die Hard", URL: "http://x/dh", Group: "Action", Category: Movie})
	mustAdd(t, tr, Entry{Title: "Hard Target", URL: "http://x/ht", Group: "Action", Category: Movie})
	mustAdd(t, tr, Entry{Title: "Ozymandias", URL: "http://x/bb", Category: Series, Series: "Breaking Bad", Season: 5, Episode: 14})
	return tr
}

func TestSearchInto_seriesByTitle(t *testing.T) {
	tr := buildSearchTree(t)
	var acc SearchResults
	tr.SearchInto(context.Background(), &acc, []string{"bad"}, containsAll)

	if len(acc.Items) != 0 {
		t.Errorf("expected no leaf matches, got %d", len(acc.Items))
	}
	if len(acc.Groups) != 1 || tr.Group(acc.Groups[0]).Name != "Breaking Bad" {
		t.Fatalf("expected the series group, got %v", acc.Groups)
	}
}

func TestSearchInto_leafInPlainFolder(t *testing.T) {
	tr := buildSearchTree(t)
	var acc SearchResults
	tr.SearchInto(context.Background(), &acc, []string{"die", "hard"}, containsAll)

	if len(acc.Groups) != 0 {
		t.Errorf("expected no group matches, got %v", acc.Groups)
	}
	if len(acc.Items) != 1 || tr.Item(acc.Items[0]).Name != "Die Hard" {
		t.Fatalf("expected only Die Hard, got %v", acc.Items)
	}
}

func TestSearchInto_andSemantics(t *testing.T) {
	tr := buildSearchTree(t)
	var acc SearchResults
	tr.SearchInto(context.Background(), &acc, []string{"hard"}, containsAll)
	if len(acc.Items) != 2 {
		t.Errorf("single token should match both hard titles, got %d", len(acc.Items))
	}

	acc = SearchResults{}
	tr.SearchInto(context.Background(), &acc, []string{"hard", "target"}, containsAll)
	if len(acc.Items) != 1 || tr.Item(acc.Items[0]).Name != "Hard Target" {
		t.Errorf("AND semantics: got %v", acc.Items)
	}
}

func TestSearchInto_emptyTokensMatchNothing(t *testing.T) {
	tr := buildSearchTree(t)
	var acc SearchResults
	// Even a match-everything matcher must not fire for an empty token
	// list; the engine guards this case itself.
	tr.SearchInto(context.Background(), &acc, nil, func(string, []string) bool { return true })
	if !acc.Empty() {
		t.Errorf("empty tokens matched: %+v", acc)
	}
}

func TestSearchInto_seriesNeverDecomposed(t *testing.T) {
	tr := buildSearchTree(t)
	var acc SearchResults
	// "ozymandias" matches an episode title but not the show title; the
	// series node is atomic, so nothing surfaces.
	tr.SearchInto(context.Background(), &acc, []string{"ozymandias"}, containsAll)
	if !acc.Empty() {
		t.Errorf("series subtree was decomposed: %+v", acc)
	}
}

func TestSearchInto_cancelledBeforeStart(t *testing.T) {
	tr := buildSearchTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var acc SearchResults
	tr.SearchInto(ctx, &acc, []string{"hard"}, containsAll)
	if !acc.Empty() {
		t.Errorf("pre-cancelled search appended results: %+v", acc)
	}
}

func TestSearchInto_cancelKeepsPartialResults(t *testing.T) {
	tr := New()
	mustAdd(t, tr, Entry{Title: "match one", URL: "http://x/1", Group: "A", Category: Movie})
	mustAdd(t, tr, Entry{Title: "match two", URL: "http://x/2", Group: "A", Category: Movie})
	mustAdd(t, tr, Entry{Title: "match three", URL: "http://x/3", Group: "B", Category: Movie})
	mustAdd(t, tr, Entry{Title: "match four", URL: "http://x/4", Group: "B", Category: Movie})

	ctx, cancel := context.WithCancel(context.Background())
	var acc SearchResults
	// Cancel on the first hit. The current leaf batch still completes (the
	// poll sits before each batch, not inside it), but the second folder is
	// never visited.
	tr.SearchInto(ctx, &acc, []string{"match"}, func(name string, tokens []string) bool {
		ok := containsAll(name, tokens)
		if ok {
			cancel()
		}
		return ok
	})

	if len(acc.Items) != 2 {
		t.Fatalf("got %d items, want the first folder's 2", len(acc.Items))
	}
	for _, iid := range acc.Items {
		if got := tr.Group(tr.Item(iid).Parent).Name; got != "A" {
			t.Errorf("item from folder %q, want only A", got)
		}
	}
}

func TestSeasonEpisode_absence(t *testing.T) {
	tr := buildSearchTree(t)
	show := findGroup(t, tr, Root, "Breaking Bad")

	if _, ok := tr.Season(show, 99); ok {
		t.Error("Season(99) should be absent")
	}
	if _, ok := tr.Episode(show, 5, 99); ok {
		t.Error("Episode(5,99) should be absent")
	}
	if _, ok := tr.Episode(show, 1, 1); ok {
		t.Error("Episode in absent season should be absent")
	}
	if got, ok := tr.Episode(show, 5, 14); !ok || tr.Item(got).Name != "Ozymandias" {
		t.Errorf("Episode(5,14) = %v,%v", got, ok)
	}
}
