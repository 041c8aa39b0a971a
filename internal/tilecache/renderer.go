package tilecache

import (
	"image"
	"image/color"

	"github.com/aquilax/go-perlin"
	"github.com/disintegration/gift"
	"golang.org/x/image/vector"

	"github.com/omniscale/tileseed/internal/types"
)

// DefaultTileSize is the pixel width/height of one rendered tile.
const DefaultTileSize = 256

// levelPalette gives each zoom level a distinct base tint so adjacent
// levels are visually distinguishable in the placeholder output.
var levelPalette = []color.NRGBA{
	{R: 198, G: 214, B: 190, A: 255},
	{R: 190, G: 205, B: 224, A: 255},
	{R: 224, G: 210, B: 180, A: 255},
	{R: 205, G: 190, B: 214, A: 255},
	{R: 214, G: 202, B: 170, A: 255},
}

// Renderer stands in for an upstream map-rendering service: it synthesizes
// a deterministic, seamless-looking meta-tile image so the rest of the
// pipeline (slicing, storage, cleanup) has real pixel data to move around.
type Renderer struct {
	TileSize int
}

// NewRenderer returns a Renderer producing tileSize-pixel tiles (falling
// back to DefaultTileSize when tileSize is non-positive).
func NewRenderer(tileSize int) *Renderer {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &Renderer{TileSize: tileSize}
}

// RenderMetaTile synthesizes one meta-tile-sized canvas: per-level Perlin
// terrain noise, a vector-rasterized grid overlay marking each constituent
// tile's boundary, and a gift brightness/contrast pass.
func (r *Renderer) RenderMetaTile(mt types.MetaTile) *image.NRGBA {
	side := r.TileSize * mt.MetaSize
	canvas := image.NewNRGBA(image.Rect(0, 0, side, side))

	seed := int64(mt.Level)*1_000_003 + int64(mt.GridX)*97 + int64(mt.GridY)
	noise := perlin.NewPerlin(2.0, 2.0, 3, seed)
	base := levelPalette[((mt.Level%len(levelPalette))+len(levelPalette))%len(levelPalette)]

	for y := 0; y < side; y++ {
		ny := float64(y) / float64(side) * 4
		for x := 0; x < side; x++ {
			nx := float64(x) / float64(side) * 4
			shade := (noise.Noise2D(nx, ny) + 1) / 2 // [-1,1] -> [0,1]
			canvas.SetNRGBA(x, y, tint(base, shade))
		}
	}

	r.drawGridOverlay(canvas, mt.MetaSize)

	g := gift.New(gift.Contrast(6), gift.Brightness(2))
	out := image.NewNRGBA(g.Bounds(canvas.Bounds()))
	g.Draw(out, canvas)
	return out
}

func tint(base color.NRGBA, shade float64) color.NRGBA {
	mix := func(c uint8) uint8 {
		v := float64(c) * (0.75 + 0.25*shade)
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return color.NRGBA{R: mix(base.R), G: mix(base.G), B: mix(base.B), A: 255}
}

// drawGridOverlay rasterizes a 1px separator along every internal tile
// boundary of the meta-tile canvas.
func (r *Renderer) drawGridOverlay(dst *image.NRGBA, metaSize int) {
	if metaSize <= 1 {
		return
	}
	w := dst.Bounds().Dx()
	h := dst.Bounds().Dy()
	ras := vector.NewRasterizer(w, h)

	for i := 1; i < metaSize; i++ {
		pos := float32(i * r.TileSize)
		addThinRect(ras, pos-0.5, 0, pos+0.5, float32(h))
		addThinRect(ras, 0, pos-0.5, float32(w), pos+0.5)
	}

	src := image.NewUniform(color.NRGBA{A: 40})
	ras.Draw(dst, dst.Bounds(), src, image.Point{})
}

func addThinRect(ras *vector.Rasterizer, x0, y0, x1, y1 float32) {
	ras.MoveTo(x0, y0)
	ras.LineTo(x1, y0)
	ras.LineTo(x1, y1)
	ras.LineTo(x0, y1)
	ras.ClosePath()
}

// SliceMetaTile splits a rendered meta-tile canvas into its constituent
// tile images, skipping slots AffectedLevelTiles left nil (tiles outside
// the grid's valid range).
func SliceMetaTile(canvas *image.NRGBA, mt types.MetaTile, tileSize int) map[types.TileCoord]*image.NRGBA {
	out := make(map[types.TileCoord]*image.NRGBA, len(mt.Coords))
	for i, c := range mt.Coords {
		if c == nil {
			continue
		}
		dx := i % mt.MetaSize
		dy := i / mt.MetaSize
		rect := image.Rect(dx*tileSize, dy*tileSize, (dx+1)*tileSize, (dy+1)*tileSize)
		sub := canvas.SubImage(rect).(*image.NRGBA)

		tile := image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize))
		for y := 0; y < tileSize; y++ {
			for x := 0; x < tileSize; x++ {
				tile.Set(x, y, sub.At(rect.Min.X+x, rect.Min.Y+y))
			}
		}
		out[*c] = tile
	}
	return out
}
