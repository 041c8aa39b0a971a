package traversal_test

import (
	"fmt"
	"testing"

	"github.com/omniscale/tileseed/internal/coverage"
	"github.com/omniscale/tileseed/internal/grid"
	"github.com/omniscale/tileseed/internal/progress"
	"github.com/omniscale/tileseed/internal/traversal"
	"github.com/omniscale/tileseed/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func worldGrid() *grid.Grid {
	return grid.NewGrid(types.CRS("EPSG:4326"), types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, 1, 18)
}

func TestTraverseEmitsRootLast(t *testing.T) {
	mg := grid.NewMetaGrid(worldGrid(), 2)
	target := types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

	var order []string
	traversal.Traverse(mg, target, 0, 2, progress.NullSink{}, func(wi types.WorkItem) {
		order = append(order, wi.SeedID)
	})

	require.NotEmpty(t, order)
	assert.Equal(t, "", order[len(order)-1], "root frame (empty seed id) must be emitted last")
}

func TestTraverseCoversWholeWorldExactlyOnce(t *testing.T) {
	g := worldGrid()
	mg := grid.NewMetaGrid(g, 2)
	target := types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

	seen := map[int]map[string]int{}
	traversal.Traverse(mg, target, 0, 3, progress.NullSink{}, func(wi types.WorkItem) {
		for _, mt := range wi.MetaTiles {
			if seen[mt.Level] == nil {
				seen[mt.Level] = map[string]int{}
			}
			key := fmt.Sprintf("%d/%d", mt.GridX, mt.GridY)
			seen[mt.Level][key]++
		}
	})

	for level := 0; level <= 3; level++ {
		nx, ny := g.Dimensions(level)
		mnx := (nx + 1) / 2
		mny := (ny + 1) / 2
		expected := mnx * mny
		total := 0
		for _, c := range seen[level] {
			assert.Equal(t, 1, c, "meta-tile emitted more than once at level %d", level)
			total++
		}
		assert.Equal(t, expected, total, "level %d: expected %d meta-tiles covering whole world, saw %d", level, expected, total)
	}
}

func TestTraverseSkipsDisjointRegion(t *testing.T) {
	g := worldGrid()
	mg := grid.NewMetaGrid(g, 1)
	// Target only the eastern hemisphere.
	target := types.BBox{MinX: 0, MinY: -90, MaxX: 180, MaxY: 90}

	traversal.Traverse(mg, target, 0, 3, progress.NullSink{}, func(wi types.WorkItem) {
		for _, mt := range wi.MetaTiles {
			bb := mg.MetaBBox(mt)
			rel := coverage.Relate(target, bb)
			assert.NotEqual(t, coverage.Disjoint, rel, "disjoint meta-tile %v emitted", bb)
		}
	})
}

func TestTraverseShortCircuitsContainedSubtree(t *testing.T) {
	g := worldGrid()
	mg := grid.NewMetaGrid(g, 1)
	target := types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

	calls := 0
	counting := func(tgt, cand types.BBox) coverage.Relation {
		calls++
		return coverage.Relate(tgt, cand)
	}

	traversal.Traverse(mg, target, 0, 4, progress.NullSink{}, func(types.WorkItem) {},
		traversal.WithRelateFunc(counting))

	// The whole-world target contains every subtile from the very first
	// frame (meta size 1 on a stretch-1 grid, so level 0's single meta-tile
	// IS the whole world).
	// Once that first CONTAINED verdict is reached no further frame should
	// re-invoke the predicate.
	assert.LessOrEqual(t, calls, 1, "relation should not be re-evaluated inside a CONTAINED subtree")
}

func TestTraverseReportsOnlyUpToCutoff(t *testing.T) {
	mg := grid.NewMetaGrid(worldGrid(), 1)
	target := types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

	var reported []int
	sink := &recordingSink{fn: func(level int) { reported = append(reported, level) }}

	traversal.Traverse(mg, target, 0, 9, sink, func(types.WorkItem) {})

	// report_cutoff = lo + floor(0.7*(hi-lo+1)) = 0 + floor(7.0) = 7
	for _, lvl := range reported {
		assert.LessOrEqual(t, lvl, 7)
	}
	assert.Contains(t, reported, 7)
	assert.NotContains(t, reported, 8)
}

type recordingSink struct {
	fn func(level int)
}

func (r *recordingSink) Printf(format string, args ...any) {
	if len(args) > 0 {
		if lvl, ok := args[0].(int); ok {
			r.fn(lvl)
		}
	}
}
