// Package grid provides the pure-geometry mapping between (x, y, level) tile
// coordinates and projected bounding boxes, and groups adjacent tiles into
// meta-tiles for upstream rendering. A grid-stretch factor makes non-square
// pyramids (e.g. a geodetic grid spanning 360x180 degrees) representable
// alongside the standard square Web Mercator pyramid.
package grid

import (
	"fmt"
	"math"

	"github.com/omniscale/tileseed/internal/types"
)

// Grid maps tile coordinates to projected bounding boxes within a fixed
// pyramid Origin. Tile (0, 0) at every level sits at the Origin's
// northwest corner, matching the XYZ slippy-map convention.
type Grid struct {
	SRS types.CRS
	// Origin is the bbox covered by the level-0 tiles together (one tile,
	// or StretchX tiles side by side).
	Origin types.BBox
	// StretchX multiplies the level-0 tile count on the X axis relative to Y,
	// so non-square origins (e.g. 360x180 degrees) still divide into
	// square-ish cells. 1 means a standard square pyramid.
	StretchX int
	MaxLevel int
}

// NewGrid builds a Grid, defaulting StretchX to 1 when unset.
func NewGrid(srs types.CRS, origin types.BBox, stretchX, maxLevel int) *Grid {
	if stretchX <= 0 {
		stretchX = 1
	}
	return &Grid{SRS: srs, Origin: origin, StretchX: stretchX, MaxLevel: maxLevel}
}

// Dimensions returns the number of tiles along X and Y at the given level.
func (g *Grid) Dimensions(level int) (nx, ny int) {
	ny = 1 << uint(level)
	nx = ny * g.StretchX
	return
}

// Valid reports whether coord falls within this grid's coordinate range at
// its level. Out-of-range coordinates become the "absent" placeholder
// slots in a meta-tile, which consumers skip.
func (g *Grid) Valid(c types.TileCoord) bool {
	if c.Level < 0 || c.Level > g.MaxLevel {
		return false
	}
	nx, ny := g.Dimensions(c.Level)
	return c.X >= 0 && c.X < nx && c.Y >= 0 && c.Y < ny
}

// TileBBox returns the projected bounding box for coord, regardless of
// whether it is in range (callers check Valid first).
func (g *Grid) TileBBox(c types.TileCoord) types.BBox {
	nx, ny := g.Dimensions(c.Level)
	cellW := g.Origin.Width() / float64(nx)
	cellH := g.Origin.Height() / float64(ny)

	minX := g.Origin.MinX + float64(c.X)*cellW
	maxY := g.Origin.MaxY - float64(c.Y)*cellH

	return types.BBox{
		MinX: minX,
		MaxX: minX + cellW,
		MinY: maxY - cellH,
		MaxY: maxY,
		SRS:  g.SRS,
	}
}

// LevelLocation returns the on-disk directory name for a level, used by
// CacheStorage and Cleanup to address a level's files without depending on
// this package.
func (g *Grid) LevelLocation(level int) string {
	return fmt.Sprintf("%02d", level)
}

// tileIndexRange returns the inclusive [minIdx, maxIdx] tile index range a
// bbox covers along one axis, given the axis origin/extent and tile count.
func tileIndexRange(bboxMin, bboxMax, originMin, originExtent float64, n int) (int, int) {
	cell := originExtent / float64(n)
	minIdx := int(math.Floor((bboxMin - originMin) / cell))
	maxIdx := int(math.Ceil((bboxMax-originMin)/cell)) - 1
	if minIdx < 0 {
		minIdx = 0
	}
	if maxIdx > n-1 {
		maxIdx = n - 1
	}
	if maxIdx < minIdx {
		maxIdx = minIdx
	}
	return minIdx, maxIdx
}

// TilesForBBox returns the [minX,maxX] and [minY,maxY] tile index ranges
// (clamped to the grid) that bbox touches at level.
func (g *Grid) TilesForBBox(bbox types.BBox, level int) (minX, maxX, minY, maxY int) {
	nx, ny := g.Dimensions(level)
	minX, maxX = tileIndexRange(bbox.MinX, bbox.MaxX, g.Origin.MinX, g.Origin.Width(), nx)
	// Y grows downward (north to south) in tile-index space but bbox.MaxY is
	// the northern edge, so the row range is derived from the flipped axis.
	minRow, maxRow := tileIndexRange(g.Origin.MaxY-bbox.MaxY, g.Origin.MaxY-bbox.MinY, 0, g.Origin.Height(), ny)
	minY, maxY = minRow, maxRow
	return
}
