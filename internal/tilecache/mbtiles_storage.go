package tilecache

import (
	"fmt"
	"sync"
	"time"

	"github.com/omniscale/tileseed/internal/mbtiles"
	"github.com/omniscale/tileseed/internal/types"
)

// MBTilesStorage adapts an MBTiles database to CacheStorage. A single
// mutex serializes access to the writer and reader handles, which hold
// independent connections to the same database file.
type MBTilesStorage struct {
	mu     sync.Mutex
	writer *mbtiles.Writer
	reader *mbtiles.Reader
}

// OpenMBTilesStorage creates (or reopens) an MBTiles database at path and
// returns a CacheStorage backed by it.
func OpenMBTilesStorage(path string, meta mbtiles.Metadata) (*MBTilesStorage, error) {
	w, err := mbtiles.New(path, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to open mbtiles writer: %w", err)
	}
	if err := w.Flush(); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to initialize mbtiles database: %w", err)
	}

	r, err := mbtiles.OpenReader(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to open mbtiles reader: %w", err)
	}

	return &MBTilesStorage{writer: w, reader: r}, nil
}

// Stat implements CacheStorage.
func (m *MBTilesStorage) Stat(c types.TileCoord) (bool, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exists, err := m.reader.TileExists(c.Level, c.X, c.Y)
	if err != nil || !exists {
		return false, time.Time{}, err
	}
	modTime, err := m.reader.TileModTime(c.Level, c.X, c.Y)
	if err != nil {
		return false, time.Time{}, err
	}
	return true, modTime, nil
}

// Store implements CacheStorage, flushing immediately so a concurrent Stat
// or Walk observes the write (the writer's internal batching is meant for
// bulk import, not the seeding engine's per-tile cadence).
func (m *MBTilesStorage) Store(c types.TileCoord, data []byte, modTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writer.WriteTileAt(c.Level, c.X, c.Y, data, modTime); err != nil {
		return err
	}
	return m.writer.Flush()
}

// Remove implements CacheStorage.
func (m *MBTilesStorage) Remove(c types.TileCoord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writer.DeleteTile(c.Level, c.X, c.Y)
}

// Walk implements CacheStorage.
func (m *MBTilesStorage) Walk(level int, fn func(types.TileCoord, time.Time) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reader.WalkLevel(level, func(x, y int, modTime time.Time) error {
		return fn(types.TileCoord{X: x, Y: y, Level: level}, modTime)
	})
}

// Close releases the underlying database handles.
func (m *MBTilesStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rErr := m.reader.Close()
	wErr := m.writer.Close()
	if wErr != nil {
		return wErr
	}
	return rErr
}
