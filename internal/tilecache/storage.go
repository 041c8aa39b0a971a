// Package tilecache provides the tile cache the seeding engine renders
// through: a placeholder renderer standing in for an upstream map-rendering
// service, plus two CacheStorage backends it can persist through. Both
// halves are collaborators the engine only ever touches through their
// interfaces.
package tilecache

import (
	"time"

	"github.com/omniscale/tileseed/internal/types"
)

// CacheStorage is the on-disk (or off-process) tile persistence capability.
// The engine treats every method as safe for concurrent invocation.
// FolderStorage keeps each tile in its own file and takes no locks;
// MBTilesStorage serializes every call behind a single mutex.
type CacheStorage interface {
	// Stat reports whether a tile is present and, if so, its stored
	// modification time.
	Stat(c types.TileCoord) (exists bool, modTime time.Time, err error)
	// Store persists an encoded tile image, stamped with modTime.
	Store(c types.TileCoord, data []byte, modTime time.Time) error
	// Remove deletes a tile if present; removing an absent tile is not an error.
	Remove(c types.TileCoord) error
	// Walk visits every tile stored at level, in implementation-defined order.
	Walk(level int, fn func(c types.TileCoord, modTime time.Time) error) error
}
