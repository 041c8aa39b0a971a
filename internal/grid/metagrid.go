package grid

import (
	"github.com/omniscale/tileseed/internal/types"
)

// MetaGrid groups a Grid's tiles into M*M meta-tiles, the unit the upstream
// renders as a single image.
type MetaGrid struct {
	Grid     *Grid
	MetaSize int
}

// NewMetaGrid builds a MetaGrid over grid, defaulting metaSize to 1 (no
// grouping) when given a non-positive value.
func NewMetaGrid(g *Grid, metaSize int) *MetaGrid {
	if metaSize <= 0 {
		metaSize = 1
	}
	return &MetaGrid{Grid: g, MetaSize: metaSize}
}

// AffectedLevelTiles returns the union bbox of every meta-tile that
// intersects bbox at level, the meta-grid dimensions at that level, and the
// meta-tiles themselves in row-major order (north to south, west to east).
func (mg *MetaGrid) AffectedLevelTiles(bbox types.BBox, level int) (aligned types.BBox, dims [2]int, tiles []types.MetaTile) {
	minX, maxX, minY, maxY := mg.Grid.TilesForBBox(bbox, level)
	m := mg.MetaSize

	metaMinX, metaMaxX := minX/m, maxX/m
	metaMinY, metaMaxY := minY/m, maxY/m

	nx, ny := mg.Grid.Dimensions(level)
	mnx := (nx + m - 1) / m
	mny := (ny + m - 1) / m
	dims = [2]int{mnx, mny}

	first := true
	for gy := metaMinY; gy <= metaMaxY; gy++ {
		for gx := metaMinX; gx <= metaMaxX; gx++ {
			mt := mg.buildMetaTile(gx, gy, level)
			tiles = append(tiles, mt)

			mb := mg.MetaBBox(mt)
			if first {
				aligned = mb
				first = false
			} else {
				aligned = aligned.Union(mb)
			}
		}
	}
	return aligned, dims, tiles
}

// buildMetaTile constructs the MetaTile at meta-grid position (gx, gy),
// leaving absent slots nil for tile indices outside the grid's valid range.
func (mg *MetaGrid) buildMetaTile(gx, gy, level int) types.MetaTile {
	m := mg.MetaSize
	coords := make([]*types.TileCoord, 0, m*m)

	baseX, baseY := gx*m, gy*m
	for dy := 0; dy < m; dy++ {
		for dx := 0; dx < m; dx++ {
			c := types.TileCoord{X: baseX + dx, Y: baseY + dy, Level: level}
			if mg.Grid.Valid(c) {
				cc := c
				coords = append(coords, &cc)
			} else {
				coords = append(coords, nil)
			}
		}
	}

	return types.MetaTile{
		Level:    level,
		Coords:   coords,
		GridX:    gx,
		GridY:    gy,
		MetaSize: m,
	}
}

// MetaBBox returns the projected bounding box covering an entire meta-tile,
// computed from its corner cells regardless of which individual tiles are
// present.
func (mg *MetaGrid) MetaBBox(mt types.MetaTile) types.BBox {
	m := mt.MetaSize
	topLeft := types.TileCoord{X: mt.GridX * m, Y: mt.GridY * m, Level: mt.Level}
	bottomRight := types.TileCoord{X: mt.GridX*m + m - 1, Y: mt.GridY*m + m - 1, Level: mt.Level}

	tl := mg.Grid.TileBBox(topLeft)
	br := mg.Grid.TileBBox(bottomRight)

	return types.BBox{
		MinX: tl.MinX,
		MaxX: br.MaxX,
		MinY: br.MinY,
		MaxY: tl.MaxY,
		SRS:  mg.Grid.SRS,
	}
}
