// Package srs resolves the spatial reference systems a seed configuration
// and its caches are expressed in, and reprojects bounding boxes between
// them through paulmach/orb's project package.
package srs

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/omniscale/tileseed/internal/types"
)

// WGS84 and WebMercator are the two reference systems the seeding engine
// understands: the lon/lat system seed configurations are typically
// authored in, and the projected system tile grids are addressed in.
const (
	WGS84       types.CRS = "EPSG:4326"
	WebMercator types.CRS = "EPSG:3857"
)

// maxMercatorLat is the latitude at which Web Mercator's Y coordinate
// diverges; inputs are clamped to this band before projecting.
const maxMercatorLat = 85.0511287798

// TransformBBox reprojects b into the to CRS. A box already expressed in
// to is returned unchanged. Only the WGS84 <-> WebMercator pair is
// supported; any other combination is an error naming both systems.
func TransformBBox(b types.BBox, to types.CRS) (types.BBox, error) {
	if b.SRS == to {
		return b, nil
	}

	switch {
	case b.SRS == WGS84 && to == WebMercator:
		return forward(b), nil
	case b.SRS == WebMercator && to == WGS84:
		return inverse(b), nil
	default:
		return types.BBox{}, fmt.Errorf("srs: unsupported transform %s -> %s", b.SRS, to)
	}
}

func forward(b types.BBox) types.BBox {
	minY := clampLat(b.MinY)
	maxY := clampLat(b.MaxY)

	min := project.WGS84.ToMercator(orb.Point{b.MinX, minY})
	max := project.WGS84.ToMercator(orb.Point{b.MaxX, maxY})

	return types.BBox{MinX: min[0], MinY: min[1], MaxX: max[0], MaxY: max[1], SRS: WebMercator}
}

func inverse(b types.BBox) types.BBox {
	min := project.Mercator.ToWGS84(orb.Point{b.MinX, b.MinY})
	max := project.Mercator.ToWGS84(orb.Point{b.MaxX, b.MaxY})

	return types.BBox{MinX: min[0], MinY: min[1], MaxX: max[0], MaxY: max[1], SRS: WGS84}
}

func clampLat(lat float64) float64 {
	return math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
}
