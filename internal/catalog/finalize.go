package catalog

import (
	"sort"
	"strings"
	"time"
)

// Finalize prunes empty folders and imposes the canonical sibling order at
// every tier. Strictly post-order: each child folder is finalized first,
// then dropped from its parent when its TotalCount reached zero. Call once
// after ingestion completes; a second call on a finalized tree changes
// nothing.
func (t *Tree) Finalize() {
	t.finalize(Root)
}

func (t *Tree) finalize(g GroupID) {
	kept := t.groups[g].groups[:0]
	for _, gid := range t.groups[g].groups {
		t.finalize(gid)
		if t.TotalCount(gid) == 0 {
			continue
		}
		kept = append(kept, gid)
	}
	t.groups[g].groups = kept

	// Stable sorts keep fully tied siblings in place, which is what makes a
	// second Finalize a structural no-op.
	gs := t.groups[g].groups
	sort.SliceStable(gs, func(i, j int) bool {
		return t.groupSortKey(gs[i]).less(t.groupSortKey(gs[j]))
	})
	is := t.groups[g].items
	sort.SliceStable(is, func(i, j int) bool {
		return t.itemSortKey(is[i]).less(t.itemSortKey(is[j]))
	})
}

// sortKey is the canonical comparator input shared by groups and items.
type sortKey struct {
	sticky bool
	added  time.Time
	name   string
}

func (t *Tree) groupSortKey(id GroupID) sortKey {
	g := &t.groups[id]
	return sortKey{sticky: g.sticky, added: g.addedAt, name: g.name}
}

func (t *Tree) itemSortKey(id ItemID) sortKey {
	it := &t.items[id]
	return sortKey{sticky: it.sticky, added: it.addedAt, name: it.name}
}

// less orders siblings: sticky first; timestamped before untimed; newer
// timestamp first; then ascending case-aware name order.
func (k sortKey) less(o sortKey) bool {
	if k.sticky != o.sticky {
		return k.sticky
	}
	kt, ot := !k.added.IsZero(), !o.added.IsZero()
	if kt != ot {
		return kt
	}
	if kt && ot && !k.added.Equal(o.added) {
		return k.added.After(o.added)
	}
	return nameLess(k.name, o.name)
}

// nameLess compares case-folded first so "apple" and "Banana" order
// naturally, with the raw string as the final tie-break.
func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
