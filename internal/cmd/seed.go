package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/omniscale/tileseed/internal/grid"
	"github.com/omniscale/tileseed/internal/mbtiles"
	"github.com/omniscale/tileseed/internal/progress"
	"github.com/omniscale/tileseed/internal/seedconfig"
	"github.com/omniscale/tileseed/internal/seeder"
	"github.com/omniscale/tileseed/internal/tilecache"
)

// closer is the subset of io.Closer storage backends that hold an open
// handle (MBTiles) need released once a run completes.
type closer interface {
	Close() error
}

func runSeed(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seedConfPath := args[0]
	proxyConfigPath := viper.GetString("proxy-config")
	if proxyConfigPath == "" {
		return fmt.Errorf("-f/--proxy-config is required")
	}
	quiet := viper.GetBool("quiet")
	forceDryRun := viper.GetBool("dry-run")

	doc, err := seedconfig.Load(seedConfPath)
	if err != nil {
		return err
	}
	tasks, err := doc.Tasks(time.Now())
	if err != nil {
		return fmt.Errorf("expanding seed tasks: %w", err)
	}

	proxyDoc, err := seedconfig.LoadProxyConfig(proxyConfigPath)
	if err != nil {
		return err
	}
	if servicesPath := viper.GetString("services-config"); servicesPath != "" {
		overlay, err := seedconfig.LoadProxyConfig(servicesPath)
		if err != nil {
			return err
		}
		proxyDoc.Merge(overlay)
	}

	caches, closers, err := buildCaches(proxyDoc)
	defer closeAll(closers)
	if err != nil {
		return fmt.Errorf("wiring caches: %w", err)
	}
	if len(caches) == 0 {
		return fmt.Errorf("proxy configuration declares no caches")
	}

	var sink progress.Sink = progress.NewDefault()
	if quiet {
		sink = progress.NullSink{}
	}

	s := seeder.New(seeder.Config{Caches: caches, Sink: sink}, logger)

	var failed int
	for _, task := range tasks {
		if forceDryRun {
			task.DryRun = true
		}
		logger.Info("seeding", "layer", task.Layer, "view", task.View, "dry_run", task.DryRun)
		if err := s.SeedLocation(task); err != nil {
			logger.Error("seed task failed", "layer", task.Layer, "view", task.View, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d seed tasks failed", failed, len(tasks))
	}
	return nil
}

// buildCaches wires every cache in doc into a seeder.Cache, opening its
// storage backend. Callers must close the returned closers even on error,
// since some caches may have opened successfully before a later one fails.
func buildCaches(doc *seedconfig.ProxyDocument) ([]seeder.Cache, []closer, error) {
	names := doc.Names()
	caches := make([]seeder.Cache, 0, len(names))
	var closers []closer

	for _, name := range names {
		cc := doc.Caches[name]

		stretchX := cc.StretchX
		if stretchX <= 0 {
			stretchX = 1
		}
		metaSize := cc.MetaSize
		if metaSize <= 0 {
			metaSize = 4
		}

		g := grid.NewGrid(cc.SRS, cc.Origin, stretchX, cc.MaxLevel)

		storage, cl, err := buildStorage(name, cc.Storage, g)
		if err != nil {
			return caches, closers, fmt.Errorf("cache %q: %w", name, err)
		}
		if cl != nil {
			closers = append(closers, cl)
		}

		tc := tilecache.NewTileCache(tilecache.NewRenderer(tilecache.DefaultTileSize), storage, nil)
		caches = append(caches, seeder.Cache{
			Name:     name,
			Grid:     g,
			MetaSize: metaSize,
			Tiles:    tc,
		})
	}
	return caches, closers, nil
}

func buildStorage(name string, sc seedconfig.StorageConfig, g *grid.Grid) (tilecache.CacheStorage, closer, error) {
	switch sc.Type {
	case "folder":
		return tilecache.NewFolderStorage(sc.Path), nil, nil
	case "mbtiles":
		meta := mbtiles.Metadata{
			Name:        name,
			Format:      "png",
			Type:        "baselayer",
			Attribution: "tileseed",
		}.WithExtent(g.Origin.MinX, g.Origin.MinY, g.Origin.MaxX, g.Origin.MaxY, g.MaxLevel)
		store, err := tilecache.OpenMBTilesStorage(sc.File, meta)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type %q", sc.Type)
	}
}

func closeAll(closers []closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close cache storage", "error", err)
		}
	}
}
