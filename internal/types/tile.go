// Package types holds the value types shared across the seeding engine:
// tile coordinates, bounding boxes, and the work units that flow from the
// traversal into the seed pool.
package types

import "fmt"

// TileCoord identifies a single tile in a pyramid: (x, y) at a zoom level.
// Immutable value type; 0 <= Y < 2^Level and 0 <= X < 2^Level times the
// grid's X stretch factor.
type TileCoord struct {
	X, Y  int
	Level int
}

// String renders the coordinate the way progress lines and log fields expect.
func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Level, c.X, c.Y)
}

// CRS identifies a coordinate reference system by authority code, e.g. "EPSG:4326".
type CRS string

// BBox is an axis-aligned rectangle tagged with the CRS it is expressed in.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
	SRS                    CRS
}

// Valid reports whether the box is well-formed (min <= max on both axes).
func (b BBox) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

func (b BBox) String() string {
	return fmt.Sprintf("(%.5f, %.5f, %.5f, %.5f)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Union returns the smallest box containing both a and b. The SRS of a wins;
// callers are responsible for only unioning boxes already in the same CRS.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
		SRS:  b.SRS,
	}
}

// MetaTile is an ordered M*M group of tile coordinates that the upstream
// renders as a single image. Entries are nil where the grid position falls
// outside the valid coordinate range at this level ("absent" placeholders).
type MetaTile struct {
	Level    int
	Coords   []*TileCoord // row-major, length MetaSize*MetaSize
	GridX    int          // meta-grid column this tile occupies
	GridY    int          // meta-grid row this tile occupies
	MetaSize int
}

// Tiles returns the non-absent coordinates in this meta-tile.
func (m MetaTile) Tiles() []TileCoord {
	out := make([]TileCoord, 0, len(m.Coords))
	for _, c := range m.Coords {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// SeedTask describes one (layer, view) seed request parsed from the seed
// configuration document.
type SeedTask struct {
	Bbox         BBox
	BboxSRS      CRS
	LevelMin     int
	LevelMax     int
	CacheSRS     []CRS  // optional filter; empty means "all caches"
	RemoveBefore *int64 // unix seconds; nil means no expiry pass
	DryRun       bool
	Layer, View  string
}

// WorkItem is one unit of traversal output: a seed id (a short printable
// progress label) paired with the meta-tiles to render for it.
type WorkItem struct {
	SeedID    string
	MetaTiles []MetaTile
}
