package catalog

import (
	"reflect"
	"testing"
	"time"
)

// shape captures the structural layout of a subtree for equality checks.
type shape struct {
	Name   string
	Groups []shape
	Items  []string
}

func snapshot(tr *Tree, g GroupID) shape {
	gv := tr.Group(g)
	s := shape{Name: gv.Name}
	for _, gid := range gv.Groups {
		s.Groups = append(s.Groups, snapshot(tr, gid))
	}
	for _, iid := range gv.Items {
		s.Items = append(s.Items, tr.Item(iid).URL)
	}
	return s
}

func TestFinalize_prunesEmptyFolders(t *testing.T) {
	tr := New()
	mustAdd(t, tr, Entry{Title: "Keep", URL: "http://x/keep", Group: "Full", Category: Movie})
	// Empty chains cannot be produced through Add, so build one directly.
	tr.resolveChain([]string{"Empty", "Sub"}, time.Time{})

	tr.Finalize()

	root := tr.Group(Root)
	if len(root.Groups) != 1 {
		t.Fatalf("root has %d groups after Finalize, want 1", len(root.Groups))
	}
	if got := tr.Group(root.Groups[0]).Name; got != "Full" {
		t.Errorf("surviving group = %q, want Full", got)
	}
}

func TestFinalize_prunesBottomUp(t *testing.T) {
	tr := New()
	// A folder whose only child chain is empty must itself disappear once
	// the chain is gone.
	tr.resolveChain([]string{"Hollow", "Deep", "Deeper"}, time.Time{})
	mustAdd(t, tr, Entry{Title: "X", URL: "http://x/x", Group: "Solid", Category: Movie})

	tr.Finalize()

	for _, gid := range tr.Group(Root).Groups {
		if tr.Group(gid).Name == "Hollow" {
			t.Fatal("empty chain survived Finalize")
		}
	}
}

func TestFinalize_noEmptyGroupsInvariant(t *testing.T) {
	tr := New()
	mustAdd(t, tr, Entry{Title: "A", URL: "http://x/a", Group: "G1|G2", Category: Movie})
	mustAdd(t, tr, Entry{Title: "E1", URL: "http://x/e1", Category: Series, Series: "Show", Season: 1, Episode: 1})
	tr.resolveChain([]string{"Ghost"}, time.Time{})

	tr.Finalize()

	var walk func(GroupID)
	walk = func(g GroupID) {
		for _, gid := range tr.Group(g).Groups {
			if tr.TotalCount(gid) == 0 {
				t.Errorf("group %q has TotalCount 0 after Finalize", tr.Group(gid).Name)
			}
			walk(gid)
		}
	}
	walk(Root)
}

func TestFinalize_idempotent(t *testing.T) {
	tr := New()
	ts := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	mustAdd(t, tr, Entry{Title: "zulu", URL: "http://x/z", Group: "Mixed", Category: Movie})
	mustAdd(t, tr, Entry{Title: "Alpha", URL: "http://x/a", Group: "Mixed", Category: Movie, AddedAt: ts})
	mustAdd(t, tr, Entry{Title: "mike", URL: "http://x/m", Group: "Mixed", Category: Movie, AddedAt: ts.Add(time.Hour)})
	mustAdd(t, tr, Entry{Title: "E1", URL: "http://x/e1", Category: Series, Series: "Show", Season: 2, Episode: 1})
	mustAdd(t, tr, Entry{Title: "E2", URL: "http://x/e2", Category: Series, Series: "Show", Season: 1, Episode: 1})
	tr.SetSticky(findGroup(t, tr, Root, "Show"), true)

	tr.Finalize()
	first := snapshot(tr, Root)
	tr.Finalize()
	second := snapshot(tr, Root)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second Finalize changed the tree:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestFinalize_sortContract(t *testing.T) {
	tr := New()
	t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	// A: timestamped, not sticky. B: sticky, untimed. C: plain.
	mustAdd(t, tr, Entry{Title: "a", URL: "http://x/1", Group: "A", Category: Movie, AddedAt: t1})
	mustAdd(t, tr, Entry{Title: "b", URL: "http://x/2", Group: "B", Category: Movie})
	mustAdd(t, tr, Entry{Title: "c", URL: "http://x/3", Group: "C", Category: Movie})
	tr.SetSticky(findGroup(t, tr, Root, "B"), true)

	// Groups created by an untimed entry carry no timestamp, so only A has
	// one. Expected tier order: sticky B, timestamped A, plain C.
	tr.Finalize()

	var names []string
	for _, gid := range tr.Group(Root).Groups {
		names = append(names, tr.Group(gid).Name)
	}
	want := []string{"B", "A", "C"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("sibling order = %v, want %v", names, want)
	}
}

func TestFinalize_itemOrder(t *testing.T) {
	tr := New()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nu := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mustAdd(t, tr, Entry{Title: "banana", URL: "http://x/1", Group: "G", Category: Movie})
	mustAdd(t, tr, Entry{Title: "Cherry", URL: "http://x/2", Group: "G", Category: Movie})
	mustAdd(t, tr, Entry{Title: "apple", URL: "http://x/3", Group: "G", Category: Movie})
	mustAdd(t, tr, Entry{Title: "older", URL: "http://x/4", Group: "G", Category: Movie, AddedAt: old})
	mustAdd(t, tr, Entry{Title: "newer", URL: "http://x/5", Group: "G", Category: Movie, AddedAt: nu})

	tr.Finalize()

	g := findGroup(t, tr, Root, "G")
	var names []string
	for _, iid := range tr.Group(g).Items {
		names = append(names, tr.Item(iid).Name)
	}
	// Timestamped first (newer before older), then case-aware ascending.
	want := []string{"newer", "older", "apple", "banana", "Cherry"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("item order = %v, want %v", names, want)
	}
}

func TestNameLess_caseAware(t *testing.T) {
	if !nameLess("apple", "Banana") {
		t.Error("case-folded compare should put apple before Banana")
	}
	if !nameLess("ABC", "abc") {
		t.Error("equal folds fall back to raw order: ABC before abc")
	}
	if nameLess("abc", "ABC") {
		t.Error("raw tie-break must be asymmetric")
	}
}
