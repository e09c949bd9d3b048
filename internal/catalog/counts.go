package catalog

// Aggregator queries. All of these are pure recursive folds over the current
// tree shape: never cached, never mutating, cost proportional to the subtree.

// TotalCount is the number of leaves anywhere under g, regardless of kind.
func (t *Tree) TotalCount(g GroupID) int {
	n := len(t.groups[g].items)
	for _, gid := range t.groups[g].groups {
		n += t.TotalCount(gid)
	}
	return n
}

// LiveStreamCount counts live-stream leaves anywhere under g.
func (t *Tree) LiveStreamCount(g GroupID) int {
	n := 0
	for _, iid := range t.groups[g].items {
		if t.items[iid].category == LiveStream {
			n++
		}
	}
	for _, gid := range t.groups[g].groups {
		n += t.LiveStreamCount(gid)
	}
	return n
}

// MovieCount counts movie leaves under g, recursing through plain folders
// only. Series and season subtrees never contribute, whatever their leaves
// claim as category.
func (t *Tree) MovieCount(g GroupID) int {
	n := 0
	for _, iid := range t.groups[g].items {
		if t.items[iid].category == Movie {
			n++
		}
	}
	for _, gid := range t.groups[g].groups {
		if t.groups[gid].kind == KindFolder {
			n += t.MovieCount(gid)
		}
	}
	return n
}

// TvShowCount counts series groups strictly below g, recursing through
// plain folders.
func (t *Tree) TvShowCount(g GroupID) int {
	n := 0
	for _, gid := range t.groups[g].groups {
		switch t.groups[gid].kind {
		case KindSeries:
			n++
		case KindFolder:
			n += t.TvShowCount(gid)
		}
	}
	return n
}

// SeasonCount counts seasons. A series group answers with its own season
// children; plain folders recurse to find series below them.
func (t *Tree) SeasonCount(g GroupID) int {
	gr := &t.groups[g]
	switch gr.kind {
	case KindSeries:
		return len(gr.groups)
	case KindSeason:
		return 0
	}
	n := 0
	for _, gid := range gr.groups {
		n += t.SeasonCount(gid)
	}
	return n
}

// EpisodeCount counts episodes, credited through the season children of
// series groups. A season group answers with its own direct leaf count.
func (t *Tree) EpisodeCount(g GroupID) int {
	gr := &t.groups[g]
	switch gr.kind {
	case KindSeries:
		n := 0
		for _, sid := range gr.groups {
			n += len(t.groups[sid].items)
		}
		return n
	case KindSeason:
		return len(gr.items)
	}
	n := 0
	for _, gid := range gr.groups {
		n += t.EpisodeCount(gid)
	}
	return n
}

// Stats bundles the root-level aggregates the browse API serves.
type Stats struct {
	Total    int `json:"total"`
	Movies   int `json:"movies"`
	Live     int `json:"live"`
	TvShows  int `json:"tv_shows"`
	Seasons  int `json:"seasons"`
	Episodes int `json:"episodes"`
}

// StatsFor computes every aggregate for one subtree in a single call.
func (t *Tree) StatsFor(g GroupID) Stats {
	return Stats{
		Total:    t.TotalCount(g),
		Movies:   t.MovieCount(g),
		Live:     t.LiveStreamCount(g),
		TvShows:  t.TvShowCount(g),
		Seasons:  t.SeasonCount(g),
		Episodes: t.EpisodeCount(g),
	}
}
