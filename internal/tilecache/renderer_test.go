package tilecache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniscale/tileseed/internal/tilecache"
	"github.com/omniscale/tileseed/internal/types"
)

func metaTile(level, gx, gy, size int) types.MetaTile {
	coords := make([]*types.TileCoord, size*size)
	for i := range coords {
		dx := i % size
		dy := i / size
		coords[i] = &types.TileCoord{Level: level, X: gx*size + dx, Y: gy*size + dy}
	}
	return types.MetaTile{Level: level, Coords: coords, GridX: gx, GridY: gy, MetaSize: size}
}

func TestRenderMetaTileIsDeterministicForSameInput(t *testing.T) {
	r := tilecache.NewRenderer(16)
	mt := metaTile(4, 2, 3, 2)

	a := r.RenderMetaTile(mt)
	b := r.RenderMetaTile(mt)

	require.Equal(t, a.Bounds(), b.Bounds())
	assert.Equal(t, a.Pix, b.Pix)
}

func TestRenderMetaTileDiffersAcrossGridPositions(t *testing.T) {
	r := tilecache.NewRenderer(16)
	a := r.RenderMetaTile(metaTile(4, 0, 0, 2))
	b := r.RenderMetaTile(metaTile(4, 1, 0, 2))

	assert.NotEqual(t, a.Pix, b.Pix)
}

func TestRenderMetaTileSizeMatchesMetaSize(t *testing.T) {
	r := tilecache.NewRenderer(32)
	mt := metaTile(2, 0, 0, 3)

	canvas := r.RenderMetaTile(mt)

	assert.Equal(t, 32*3, canvas.Bounds().Dx())
	assert.Equal(t, 32*3, canvas.Bounds().Dy())
}

func TestSliceMetaTileSkipsNilSlots(t *testing.T) {
	r := tilecache.NewRenderer(8)
	mt := metaTile(5, 0, 0, 2)
	mt.Coords[3] = nil // drop the last slot, as AffectedLevelTiles would at a grid edge

	canvas := r.RenderMetaTile(mt)
	tiles := tilecache.SliceMetaTile(canvas, mt, 8)

	assert.Len(t, tiles, 3)
	for _, c := range mt.Coords {
		if c == nil {
			continue
		}
		img, ok := tiles[*c]
		require.True(t, ok)
		assert.Equal(t, 8, img.Bounds().Dx())
		assert.Equal(t, 8, img.Bounds().Dy())
	}
}

func TestSliceMetaTilePartitionsDistinctCoords(t *testing.T) {
	r := tilecache.NewRenderer(4)
	mt := metaTile(1, 0, 0, 2)

	canvas := r.RenderMetaTile(mt)
	tiles := tilecache.SliceMetaTile(canvas, mt, 4)

	assert.Len(t, tiles, 4)
	seen := map[types.TileCoord]bool{}
	for c := range tiles {
		assert.False(t, seen[c], "duplicate coord %s in slice output", c)
		seen[c] = true
	}
}

func TestNewRendererDefaultsNonPositiveTileSize(t *testing.T) {
	r := tilecache.NewRenderer(0)
	assert.Equal(t, tilecache.DefaultTileSize, r.TileSize)

	r = tilecache.NewRenderer(-5)
	assert.Equal(t, tilecache.DefaultTileSize, r.TileSize)
}
