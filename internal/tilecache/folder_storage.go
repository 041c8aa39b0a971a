package tilecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/omniscale/tileseed/internal/types"
)

// FolderStorage persists tiles as PNG files under level/x/y.png, one file
// per tile. Stored mtimes drive the staleness cutoff, so Store stamps the
// file with the caller's timestamp instead of relying on write time.
type FolderStorage struct {
	Root string
}

// NewFolderStorage returns a FolderStorage rooted at dir.
func NewFolderStorage(dir string) *FolderStorage {
	return &FolderStorage{Root: dir}
}

func (f *FolderStorage) path(c types.TileCoord) string {
	return filepath.Join(f.Root, fmt.Sprintf("%02d", c.Level), strconv.Itoa(c.X), fmt.Sprintf("%d.png", c.Y))
}

// Stat implements CacheStorage.
func (f *FolderStorage) Stat(c types.TileCoord) (bool, time.Time, error) {
	info, err := os.Stat(f.path(c))
	if os.IsNotExist(err) {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, err
	}
	return true, info.ModTime(), nil
}

// Store implements CacheStorage.
func (f *FolderStorage) Store(c types.TileCoord, data []byte, modTime time.Time) error {
	p := f.path(c)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tile %s: %w", p, err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(p, modTime, modTime); err != nil {
			return fmt.Errorf("failed to stamp tile mtime %s: %w", p, err)
		}
	}
	return nil
}

// Remove implements CacheStorage, then prunes now-empty ancestor
// directories up to (but not including) the level root.
func (f *FolderStorage) Remove(c types.TileCoord) error {
	p := f.path(c)
	err := os.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	levelRoot := filepath.Join(f.Root, fmt.Sprintf("%02d", c.Level))
	f.pruneEmptyDirs(filepath.Dir(p), levelRoot)
	return nil
}

// pruneEmptyDirs removes dir and its now-empty ancestors, stopping at (and
// never removing) stopAt.
func (f *FolderStorage) pruneEmptyDirs(dir, stopAt string) {
	for dir != stopAt && strings.HasPrefix(dir, stopAt) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Walk implements CacheStorage by scanning the level's x/y.png hierarchy.
func (f *FolderStorage) Walk(level int, fn func(types.TileCoord, time.Time) error) error {
	levelDir := filepath.Join(f.Root, fmt.Sprintf("%02d", level))
	xEntries, err := os.ReadDir(levelDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read level directory %s: %w", levelDir, err)
	}

	for _, xEntry := range xEntries {
		if !xEntry.IsDir() {
			continue
		}
		x, err := strconv.Atoi(xEntry.Name())
		if err != nil {
			continue
		}

		xDir := filepath.Join(levelDir, xEntry.Name())
		yEntries, err := os.ReadDir(xDir)
		if err != nil {
			return fmt.Errorf("failed to read tile column %s: %w", xDir, err)
		}
		for _, yEntry := range yEntries {
			name := yEntry.Name()
			const ext = ".png"
			if filepath.Ext(name) != ext {
				continue
			}
			y, err := strconv.Atoi(name[:len(name)-len(ext)])
			if err != nil {
				continue
			}
			info, err := yEntry.Info()
			if err != nil {
				return fmt.Errorf("failed to stat tile %s: %w", filepath.Join(xDir, name), err)
			}
			if err := fn(types.TileCoord{X: x, Y: y, Level: level}, info.ModTime()); err != nil {
				return err
			}
		}
	}
	return nil
}
