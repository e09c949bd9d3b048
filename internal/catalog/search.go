package catalog

import "context"

// Matcher decides whether a candidate name satisfies all query tokens.
// Supplied by the caller so the engine stays independent of matching rules;
// see the match package for the stock implementation.
type Matcher func(name string, tokens []string) bool

// SearchResults is the caller-owned accumulator for SearchInto, shaped like
// a folder: matched series groups whole, matched leaves individually.
// Partial contents survive cancellation; nothing is rolled back.
type SearchResults struct {
	Groups []GroupID
	Items  []ItemID
}

// Empty reports whether the search matched nothing.
func (r *SearchResults) Empty() bool { return len(r.Groups) == 0 && len(r.Items) == 0 }

// SearchInto walks the whole tree appending matches to acc. The context is
// polled before each child-folder visit and before each direct-leaf batch;
// once it is done the walk returns immediately with acc as-is.
//
// Series groups are atomic: matched against their own title only, appended
// whole on a hit, skipped whole on a miss, never decomposed into seasons or
// episodes. Plain folders are decomposed. An empty token list matches
// nothing, by contract.
func (t *Tree) SearchInto(ctx context.Context, acc *SearchResults, tokens []string, match Matcher) {
	if len(tokens) == 0 || match == nil {
		return
	}
	t.searchInto(ctx, acc, tokens, match, Root)
}

func (t *Tree) searchInto(ctx context.Context, acc *SearchResults, tokens []string, match Matcher, g GroupID) {
	for _, gid := range t.groups[g].groups {
		if ctx.Err() != nil {
			return
		}
		child := &t.groups[gid]
		if child.kind == KindSeries {
			if match(child.name, tokens) {
				acc.Groups = append(acc.Groups, gid)
			}
			continue
		}
		t.searchInto(ctx, acc, tokens, match, gid)
	}
	if ctx.Err() != nil {
		return
	}
	for _, iid := range t.groups[g].items {
		if match(t.items[iid].name, tokens) {
			acc.Items = append(acc.Items, iid)
		}
	}
}

// Season returns the season group numbered n under a series group. Absence
// is a normal outcome, not an error.
func (t *Tree) Season(series GroupID, n int) (GroupID, bool) {
	for _, gid := range t.groups[series].groups {
		if t.groups[gid].kind == KindSeason && t.groups[gid].season == n {
			return gid, true
		}
	}
	return 0, false
}

// Episode resolves (season, episode) under a series group.
func (t *Tree) Episode(series GroupID, season, episode int) (ItemID, bool) {
	sg, ok := t.Season(series, season)
	if !ok {
		return 0, false
	}
	for _, iid := range t.groups[sg].items {
		if t.items[iid].episode == episode {
			return iid, true
		}
	}
	return 0, false
}
