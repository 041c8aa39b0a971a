// Package traversal implements the recursive, coverage-aware meta-tile
// descent: the hard part of the seeding engine. It walks a quad-tree of
// meta-tiles from a low to a high zoom level, short-circuiting subtrees the
// target bbox already fully contains, and emits one WorkItem per frame in
// post-order (children before their parent).
package traversal

import (
	"math"

	"github.com/omniscale/tileseed/internal/coverage"
	"github.com/omniscale/tileseed/internal/grid"
	"github.com/omniscale/tileseed/internal/progress"
	"github.com/omniscale/tileseed/internal/types"
)

// Emit receives one WorkItem per traversal frame, deepest first.
type Emit func(types.WorkItem)

// RelateFunc classifies a candidate bbox against a target bbox. Exposed so
// tests can wrap coverage.Relate and count calls, verifying the CONTAINED
// short-circuit never re-evaluates a subtree it has already proven covered.
type RelateFunc func(target, candidate types.BBox) coverage.Relation

// Option customizes a Traverse call.
type Option func(*traverser)

// WithRelateFunc overrides the coverage predicate used for non-short-circuited
// frames. Intended for tests; production callers should leave this unset.
func WithRelateFunc(fn RelateFunc) Option {
	return func(t *traverser) { t.relate = fn }
}

// Traverse pushes WorkItems into emit covering every meta-tile at level hi
// whose footprint intersects targetBBox, plus every ancestor meta-tile on
// the path from lo down to those leaves.
func Traverse(mg *grid.MetaGrid, targetBBox types.BBox, lo, hi int, sink progress.Sink, emit Emit, opts ...Option) {
	if sink == nil {
		sink = progress.NullSink{}
	}
	numLevels := hi - lo + 1
	reportCutoff := lo + int(math.Floor(0.7*float64(numLevels)))

	t := &traverser{mg: mg, target: targetBBox, hi: hi, reportCutoff: reportCutoff, sink: sink, emit: emit, relate: coverage.Relate}
	for _, opt := range opts {
		opt(t)
	}
	t.seed(targetBBox, lo, "", false)
}

type traverser struct {
	mg           *grid.MetaGrid
	target       types.BBox
	hi           int
	reportCutoff int
	sink         progress.Sink
	emit         Emit
	relate       RelateFunc
}

type child struct {
	bbox      types.BBox
	contained bool
}

// seed visits one meta-tile frame at level, descending into children before
// emitting its own batch (post-order). A meta-tile whose own bbox is
// disjoint from the target is dropped from the emitted batch even when it
// was swept up by a coarser meta-tile's AffectedLevelTiles call — the
// coverage guarantee is stated per meta-tile, not per frame.
func (t *traverser) seed(curBBox types.BBox, level int, id string, fullIntersect bool) {
	_, _, metatiles := t.mg.AffectedLevelTiles(curBBox, level)

	if level <= t.reportCutoff {
		t.sink.Printf("%2d %s full:%v", level, curBBox, fullIntersect)
	}

	kept := make([]types.MetaTile, 0, len(metatiles))
	var children []child
	for _, mt := range metatiles {
		subBBox := t.mg.MetaBBox(mt)

		var rel coverage.Relation
		if fullIntersect {
			rel = coverage.Contained
		} else {
			rel = t.relate(t.target, subBBox)
		}
		if rel == coverage.Disjoint {
			continue
		}
		kept = append(kept, mt)
		if level < t.hi {
			children = append(children, child{bbox: subBBox, contained: rel == coverage.Contained})
		}
	}

	total := len(children)
	for i, c := range children {
		childID := id + string(StatusSymbol(i, total))
		t.seed(c.bbox, level+1, childID, c.contained)
	}

	if len(kept) == 0 {
		return
	}
	t.emit(types.WorkItem{SeedID: id, MetaTiles: kept})
}
