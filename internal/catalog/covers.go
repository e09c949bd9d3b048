package catalog

import (
	"math/rand"
	"time"
)

// DefaultCoverLimit is the sample size used by Covers.
const DefaultCoverLimit = 9

// Covers returns the memoized cover sample for g at the default limit.
func (t *Tree) Covers(g GroupID) []Cover { return t.CoverImages(g, DefaultCoverLimit) }

// CoverImages returns up to limit representative covers for g. The draw is
// randomized but memoized: repeated calls return the identical slice until
// ClearCovers. The sample first draws from g's own leaves without
// replacement; if still short, it pools each child folder's own capped
// sample (at most limit per child) and draws the remaining slots from that
// pool, again without replacement.
func (t *Tree) CoverImages(g GroupID, limit int) []Cover {
	gr := &t.groups[g]
	if gr.coversSet {
		return gr.covers
	}
	if limit <= 0 {
		limit = DefaultCoverLimit
	}

	out := make([]Cover, 0, limit)
	pool := newIndexPool(len(gr.items))
	for len(out) < limit && pool.remaining() > 0 {
		out = append(out, t.coverFor(gr.items[pool.draw()]))
	}

	if len(out) < limit && len(gr.groups) > 0 {
		var merged []Cover
		for _, gid := range gr.groups {
			merged = append(merged, t.CoverImages(gid, limit)...)
		}
		pool = newIndexPool(len(merged))
		for len(out) < limit && pool.remaining() > 0 {
			out = append(out, merged[pool.draw()])
		}
	}

	gr.covers = out
	gr.coversSet = true
	return out
}

// ClearCovers drops the memoized sample for g and for every ancestor, whose
// own samples may have pooled covers from g.
func (t *Tree) ClearCovers(g GroupID) {
	for {
		gr := &t.groups[g]
		gr.covers = nil
		gr.coversSet = false
		if g == Root {
			return
		}
		g = gr.parent
	}
}

// Hot reports whether the item's first-seen time falls inside the recency
// window. Always false when the window is disabled or the time is unknown.
func (t *Tree) Hot(id ItemID) bool {
	it := &t.items[id]
	return t.hotWindow > 0 && !it.addedAt.IsZero() && time.Since(it.addedAt) < t.hotWindow
}

func (t *Tree) coverFor(id ItemID) Cover {
	it := &t.items[id]
	return Cover{Name: it.name, Logo: it.logo, Hot: t.Hot(id)}
}

// indexPool draws indices from [0,n) uniformly without replacement: pick a
// random live slot, swap-remove it, repeat. Exactly n draws, no rejection
// loop.
type indexPool struct {
	idx []int
}

func newIndexPool(n int) *indexPool {
	p := &indexPool{idx: make([]int, n)}
	for i := range p.idx {
		p.idx[i] = i
	}
	return p
}

func (p *indexPool) remaining() int { return len(p.idx) }

func (p *indexPool) draw() int {
	k := rand.Intn(len(p.idx))
	v := p.idx[k]
	last := len(p.idx) - 1
	p.idx[k] = p.idx[last]
	p.idx = p.idx[:last]
	return v
}
