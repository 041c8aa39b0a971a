// Package cleanup removes cached tiles that fall outside a retention
// predicate: tiles whose mtime precedes a cutoff, whose level isn't in a
// kept set, or whose projected bbox doesn't lie within a coverage area.
// Grounded on the directory-walk pattern the tilecache storage backends
// expose (FolderStorage.Walk, MBTilesStorage.Walk), generalized here to
// drive removal decisions through a composable Keep predicate rather than
// a single hard-coded cutoff.
package cleanup

import (
	"time"

	"github.com/omniscale/tileseed/internal/coverage"
	"github.com/omniscale/tileseed/internal/progress"
	"github.com/omniscale/tileseed/internal/types"
)

// Storage is the subset of CacheStorage cleanup needs: enumerate a level's
// tiles and remove one.
type Storage interface {
	Walk(level int, fn func(c types.TileCoord, modTime time.Time) error) error
	Remove(c types.TileCoord) error
}

// TileBBoxer resolves a tile coordinate to its projected bounding box,
// satisfied by *grid.Grid.
type TileBBoxer interface {
	TileBBox(c types.TileCoord) types.BBox
}

// Keep reports whether a tile survives a cleanup pass.
type Keep func(c types.TileCoord, modTime time.Time) bool

// Task describes one cleanup pass over a set of level directories.
type Task struct {
	Storage Storage
	Levels  []int // level directories to scan
	Keep    Keep
	DryRun  bool
	Sink    progress.Sink
}

// Run walks every configured level, removing any tile Keep rejects. A
// per-file Storage error is logged and does not stop the rest of the walk
// or the remaining levels.
func (t Task) Run() {
	sink := t.Sink
	if sink == nil {
		sink = progress.NullSink{}
	}

	for _, level := range t.Levels {
		sink.Printf("cleanup: scanning level %d", level)
		err := t.Storage.Walk(level, func(c types.TileCoord, modTime time.Time) error {
			if t.Keep != nil && t.Keep(c, modTime) {
				return nil
			}
			if t.DryRun {
				sink.Printf("cleanup: would remove %s", c)
				return nil
			}
			if err := t.Storage.Remove(c); err != nil {
				sink.Printf("cleanup: failed to remove %s: %v", c, err)
				return nil
			}
			sink.Printf("cleanup: removed %s", c)
			return nil
		})
		if err != nil {
			sink.Printf("cleanup: level %d: %v", level, err)
		}
	}
}

// CutoffKeep keeps tiles whose modTime is at or after cutoff. A nil cutoff
// keeps every tile.
func CutoffKeep(cutoff *time.Time) Keep {
	return func(_ types.TileCoord, modTime time.Time) bool {
		if cutoff == nil {
			return true
		}
		return !modTime.Before(*cutoff)
	}
}

// LevelKeep keeps tiles whose level is in levels. An empty levels keeps
// every level.
func LevelKeep(levels []int) Keep {
	if len(levels) == 0 {
		return func(types.TileCoord, time.Time) bool { return true }
	}
	set := make(map[int]bool, len(levels))
	for _, l := range levels {
		set[l] = true
	}
	return func(c types.TileCoord, _ time.Time) bool { return set[c.Level] }
}

// CoverageKeep keeps tiles whose projected bbox lies entirely within area
// (boundary inclusive); a tile that only partly overlaps area is removed.
// A nil area keeps every tile.
func CoverageKeep(grid TileBBoxer, area *types.BBox) Keep {
	if area == nil {
		return func(types.TileCoord, time.Time) bool { return true }
	}
	return func(c types.TileCoord, _ time.Time) bool {
		return coverage.Relate(*area, grid.TileBBox(c)) == coverage.Contained
	}
}

// All combines keeps: a tile survives only if every non-nil keep accepts it.
func All(keeps ...Keep) Keep {
	return func(c types.TileCoord, modTime time.Time) bool {
		for _, k := range keeps {
			if k == nil {
				continue
			}
			if !k(c, modTime) {
				return false
			}
		}
		return true
	}
}
