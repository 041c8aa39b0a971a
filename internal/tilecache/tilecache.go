package tilecache

import (
	"bytes"
	"fmt"
	"image/png"
	"time"

	"github.com/omniscale/tileseed/internal/types"
)

// ExpireFunc is the overridable staleness predicate: a non-nil return
// value t means any stored tile with mtime < t must be treated as stale
// and re-rendered.
type ExpireFunc func(c types.TileCoord) *time.Time

// NeverExpire always reports a tile as fresh once rendered.
func NeverExpire(types.TileCoord) *time.Time { return nil }

// ExpireBefore returns an ExpireFunc that reports every coordinate stale
// once its stored copy predates cutoff.
func ExpireBefore(cutoff time.Time) ExpireFunc {
	return func(types.TileCoord) *time.Time { return &cutoff }
}

// TileCache is the engine-facing TileCache capability: a placeholder
// Renderer backed by a CacheStorage, with an overridable expiry predicate.
// It implements seedpool.Cache.
type TileCache struct {
	Renderer *Renderer
	Storage  CacheStorage
	Expire   ExpireFunc
	TileSize int
}

// NewTileCache wires a Renderer and CacheStorage into a TileCache. expire
// defaults to NeverExpire when nil.
func NewTileCache(renderer *Renderer, storage CacheStorage, expire ExpireFunc) *TileCache {
	if expire == nil {
		expire = NeverExpire
	}
	tileSize := DefaultTileSize
	if renderer != nil {
		tileSize = renderer.TileSize
	}
	return &TileCache{Renderer: renderer, Storage: storage, Expire: expire, TileSize: tileSize}
}

// LoadTileCoords renders and persists every meta-tile in metaTiles that has
// at least one missing or stale tile, storing all of its present tiles
// (fresh ones included). Meta-tiles whose tiles are all fresh are left
// untouched.
// It implements seedpool.Cache.
func (tc *TileCache) LoadTileCoords(metaTiles []types.MetaTile) error {
	now := time.Now()
	for _, mt := range metaTiles {
		stale, err := tc.anyTileStale(mt, now)
		if err != nil {
			return fmt.Errorf("checking meta-tile %d/%d/%d freshness: %w", mt.Level, mt.GridX, mt.GridY, err)
		}
		if !stale {
			continue
		}

		canvas := tc.Renderer.RenderMetaTile(mt)
		for coord, tileImg := range SliceMetaTile(canvas, mt, tc.TileSize) {
			var buf bytes.Buffer
			if err := png.Encode(&buf, tileImg); err != nil {
				return fmt.Errorf("encoding tile %s: %w", coord, err)
			}
			if err := tc.Storage.Store(coord, buf.Bytes(), now); err != nil {
				return fmt.Errorf("storing tile %s: %w", coord, err)
			}
		}
	}
	return nil
}

// anyTileStale reports whether at least one present slot of mt needs
// (re-)rendering: either absent, or present but older than the expiry cutoff.
func (tc *TileCache) anyTileStale(mt types.MetaTile, now time.Time) (bool, error) {
	for _, c := range mt.Coords {
		if c == nil {
			continue
		}
		exists, modTime, err := tc.Storage.Stat(*c)
		if err != nil {
			return false, err
		}
		if !exists {
			return true, nil
		}
		if cutoff := tc.Expire(*c); cutoff != nil && modTime.Before(*cutoff) {
			return true, nil
		}
	}
	return false, nil
}
