// Package seeder implements TileSeeder, the orchestrator that binds a set
// of target caches to a seed request: it transforms the request bbox into
// each cache's native CRS, runs the traversal against a SeedPool per
// cache, and triggers the expiry cleanup pass once the pool drains.
package seeder

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/omniscale/tileseed/internal/cleanup"
	"github.com/omniscale/tileseed/internal/grid"
	"github.com/omniscale/tileseed/internal/progress"
	"github.com/omniscale/tileseed/internal/seedpool"
	"github.com/omniscale/tileseed/internal/srs"
	"github.com/omniscale/tileseed/internal/tilecache"
	"github.com/omniscale/tileseed/internal/traversal"
	"github.com/omniscale/tileseed/internal/types"
)

// TransformFunc reprojects a bbox into the to CRS; satisfied by
// srs.TransformBBox. Exposed so tests can stub CRS transforms without
// routing literal coordinates through the real projection math.
type TransformFunc func(b types.BBox, to types.CRS) (types.BBox, error)

// Cache binds one target tile cache to the orchestrator: its native grid
// (which fixes the CRS traversal runs in), the meta-tile size the upstream
// renders at, and the TileCache capability itself.
type Cache struct {
	Name     string
	Grid     *grid.Grid
	MetaSize int
	Tiles    *tilecache.TileCache
}

// Config configures a TileSeeder.
type Config struct {
	Caches []Cache

	// PoolSize is the worker count per cache's SeedPool; default 2.
	PoolSize int
	// QueueCap bounds each SeedPool's queue; default 16.
	QueueCap int

	MaxRepeat    int
	BackoffStart time.Duration

	Sink progress.Sink

	// Transform overrides the CRS reprojection used between a task's bbox
	// CRS and a cache's native CRS; defaults to srs.TransformBBox.
	Transform TransformFunc
}

// TileSeeder seeds and expires a set of tile caches, one SeedTask at a time.
type TileSeeder struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a TileSeeder over the configured caches.
func New(cfg Config, logger *slog.Logger) *TileSeeder {
	if cfg.Transform == nil {
		cfg.Transform = srs.TransformBBox
	}
	if cfg.Sink == nil {
		cfg.Sink = progress.NullSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TileSeeder{cfg: cfg, logger: logger}
}

// SeedLocation runs one SeedTask against every bound cache whose CRS
// matches the task's cache filter. A CRS-transform failure is fatal for
// that cache only; the remaining caches are still seeded.
func (s *TileSeeder) SeedLocation(task types.SeedTask) error {
	var errs []error
	for _, c := range s.cfg.Caches {
		if !cacheMatchesFilter(c, task.CacheSRS) {
			continue
		}
		if err := s.seedCache(c, task); err != nil {
			s.logger.Error("seed cache failed", "cache", c.Name, "layer", task.Layer, "view", task.View, "error", err)
			errs = append(errs, fmt.Errorf("cache %s: %w", c.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("seed_location %s/%s: %w", task.Layer, task.View, errors.Join(errs...))
	}
	return nil
}

func (s *TileSeeder) seedCache(c Cache, task types.SeedTask) error {
	taskBBox := task.Bbox
	if taskBBox.SRS == "" {
		// a view without bbox_srs is expressed in the cache's own CRS
		taskBBox.SRS = c.Grid.SRS
	}
	bbox, err := s.cfg.Transform(taskBBox, c.Grid.SRS)
	if err != nil {
		return fmt.Errorf("transform bbox %s -> %s: %w", taskBBox.SRS, c.Grid.SRS, err)
	}

	if task.RemoveBefore != nil {
		c.Tiles.Expire = tilecache.ExpireBefore(time.Unix(*task.RemoveBefore, 0))
	} else {
		c.Tiles.Expire = tilecache.NeverExpire
	}

	mg := grid.NewMetaGrid(c.Grid, c.MetaSize)

	pool := seedpool.New(seedpool.Config{
		Cache:        c.Tiles,
		Size:         s.cfg.PoolSize,
		QueueCap:     s.cfg.QueueCap,
		DryRun:       task.DryRun,
		Sink:         s.cfg.Sink,
		MaxRepeat:    s.cfg.MaxRepeat,
		BackoffStart: s.cfg.BackoffStart,
	})

	traversal.Traverse(mg, bbox, task.LevelMin, task.LevelMax, s.cfg.Sink, func(wi types.WorkItem) {
		pool.Submit(wi)
	})

	if workerErrs := pool.Stop(); len(workerErrs) > 0 {
		for _, werr := range workerErrs {
			s.logger.Warn("seed worker gave up", "cache", c.Name, "error", werr)
		}
	}

	if task.RemoveBefore != nil {
		s.cleanup(c, *task.RemoveBefore, task.DryRun)
	}
	return nil
}

// cleanup walks every level of c's grid, removing tiles whose mtime
// precedes removeBefore. In dry-run it only logs what would be removed.
func (s *TileSeeder) cleanup(c Cache, removeBefore int64, dryRun bool) {
	cutoff := time.Unix(removeBefore, 0)
	levels := make([]int, 0, c.Grid.MaxLevel+1)
	for l := 0; l <= c.Grid.MaxLevel; l++ {
		levels = append(levels, l)
	}

	cleanup.Task{
		Storage: c.Tiles.Storage,
		Levels:  levels,
		Keep:    cleanup.CutoffKeep(&cutoff),
		DryRun:  dryRun,
		Sink:    s.cfg.Sink,
	}.Run()
}

func cacheMatchesFilter(c Cache, filter []types.CRS) bool {
	if len(filter) == 0 {
		return true
	}
	for _, srsFilter := range filter {
		if c.Grid.SRS == srsFilter {
			return true
		}
	}
	return false
}
