package grid_test

import (
	"testing"

	"github.com/omniscale/tileseed/internal/grid"
	"github.com/omniscale/tileseed/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func worldGrid() *grid.Grid {
	return grid.NewGrid(types.CRS("EPSG:4326"), types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, 1, 18)
}

func TestDimensions(t *testing.T) {
	g := worldGrid()
	nx, ny := g.Dimensions(0)
	assert.Equal(t, 1, nx)
	assert.Equal(t, 1, ny)

	nx, ny = g.Dimensions(3)
	assert.Equal(t, 8, nx)
	assert.Equal(t, 8, ny)
}

func TestTileBBoxRoundTrip(t *testing.T) {
	g := worldGrid()
	c := types.TileCoord{X: 1, Y: 1, Level: 2}
	bb := g.TileBBox(c)

	// level 2 -> 4x4 grid over 360x180, each cell 90deg x 45deg
	assert.InDelta(t, -90, bb.MinX, 1e-9)
	assert.InDelta(t, 0, bb.MaxX, 1e-9)
	assert.InDelta(t, 0, bb.MinY, 1e-9)
	assert.InDelta(t, 45, bb.MaxY, 1e-9)
}

func TestValidRejectsOutOfRange(t *testing.T) {
	g := worldGrid()
	assert.True(t, g.Valid(types.TileCoord{X: 0, Y: 0, Level: 0}))
	assert.False(t, g.Valid(types.TileCoord{X: 1, Y: 0, Level: 0}))
	assert.False(t, g.Valid(types.TileCoord{X: -1, Y: 0, Level: 1}))
	assert.False(t, g.Valid(types.TileCoord{X: 0, Y: 0, Level: 99}))
}

func TestAffectedLevelTilesCoversWholeWorld(t *testing.T) {
	g := worldGrid()
	mg := grid.NewMetaGrid(g, 2)

	world := types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}
	aligned, dims, tiles := mg.AffectedLevelTiles(world, 2)

	require.Equal(t, [2]int{2, 2}, dims)
	require.Len(t, tiles, 4)
	assert.InDelta(t, -180, aligned.MinX, 1e-9)
	assert.InDelta(t, 180, aligned.MaxX, 1e-9)
	assert.InDelta(t, -90, aligned.MinY, 1e-9)
	assert.InDelta(t, 90, aligned.MaxY, 1e-9)
}

func TestAffectedLevelTilesSkipsAbsentEdgeSlots(t *testing.T) {
	g := worldGrid()
	mg := grid.NewMetaGrid(g, 4)

	// level 1 has only a 2x2 grid, so a 4x4 meta-tile has 12 absent slots.
	world := types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}
	_, _, tiles := mg.AffectedLevelTiles(world, 1)
	require.Len(t, tiles, 1)

	present := 0
	for _, c := range tiles[0].Coords {
		if c != nil {
			present++
		}
	}
	assert.Equal(t, 4, present)
	assert.Len(t, tiles[0].Coords, 16)
}

func TestMetaBBoxMatchesAffectedLevelTiles(t *testing.T) {
	g := worldGrid()
	mg := grid.NewMetaGrid(g, 2)

	_, _, tiles := mg.AffectedLevelTiles(types.BBox{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, 2)
	for _, mt := range tiles {
		bb := mg.MetaBBox(mt)
		assert.True(t, bb.Valid())
	}
}
