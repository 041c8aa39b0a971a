package seedconfig

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/omniscale/tileseed/internal/types"
)

// ProxyDocument is the parsed proxy/services configuration (the `-f
// proxy.yaml` / `-s services.yaml` documents on the CLI): the set of named
// tile caches the seed document's views are seeded into. It carries exactly
// the grid and storage facts the engine needs and nothing about sources,
// WMS capabilities, or styling.
type ProxyDocument struct {
	Caches map[string]CacheConfig
}

// CacheConfig describes one named tile cache: its native grid and the
// storage backend tiles are persisted through.
type CacheConfig struct {
	SRS      types.CRS
	Origin   types.BBox
	StretchX int
	MaxLevel int
	MetaSize int
	Storage  StorageConfig
}

// StorageConfig selects and parameterizes a CacheStorage backend.
type StorageConfig struct {
	// Type is "folder" or "mbtiles".
	Type string
	// Path is the folder root for "folder" storage.
	Path string
	// File is the database path for "mbtiles" storage.
	File string
}

type rawProxyDocument struct {
	Caches map[string]rawCacheConfig `yaml:"caches"`
}

type rawCacheConfig struct {
	Grid struct {
		SRS      string     `yaml:"srs"`
		Origin   [4]float64 `yaml:"origin"`
		StretchX int        `yaml:"stretch_x"`
		MaxLevel int        `yaml:"max_level"`
	} `yaml:"grid"`
	MetaSize int `yaml:"meta_size"`
	Storage  struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
		File string `yaml:"file"`
	} `yaml:"storage"`
}

// LoadProxyConfig reads and parses a proxy/services configuration document
// at path.
func LoadProxyConfig(path string) (*ProxyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seedconfig: reading %s: %w", path, err)
	}
	return ParseProxyConfig(data)
}

// ParseProxyConfig parses a proxy/services configuration document from raw
// YAML bytes.
func ParseProxyConfig(data []byte) (*ProxyDocument, error) {
	var raw rawProxyDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seedconfig: parsing proxy config: %w", err)
	}

	caches := make(map[string]CacheConfig, len(raw.Caches))
	for name, rc := range raw.Caches {
		cc, err := rc.toCacheConfig()
		if err != nil {
			return nil, fmt.Errorf("seedconfig: cache %q: %w", name, err)
		}
		caches[name] = cc
	}
	return &ProxyDocument{Caches: caches}, nil
}

func (rc rawCacheConfig) toCacheConfig() (CacheConfig, error) {
	if rc.Grid.SRS == "" {
		return CacheConfig{}, fmt.Errorf("grid.srs is required")
	}
	if rc.Storage.Type != "folder" && rc.Storage.Type != "mbtiles" {
		return CacheConfig{}, fmt.Errorf("storage.type must be 'folder' or 'mbtiles', got %q", rc.Storage.Type)
	}
	if rc.Storage.Type == "folder" && rc.Storage.Path == "" {
		return CacheConfig{}, fmt.Errorf("storage.path is required for folder storage")
	}
	if rc.Storage.Type == "mbtiles" && rc.Storage.File == "" {
		return CacheConfig{}, fmt.Errorf("storage.file is required for mbtiles storage")
	}

	return CacheConfig{
		SRS: types.CRS(rc.Grid.SRS),
		Origin: types.BBox{
			MinX: rc.Grid.Origin[0], MinY: rc.Grid.Origin[1],
			MaxX: rc.Grid.Origin[2], MaxY: rc.Grid.Origin[3],
			SRS: types.CRS(rc.Grid.SRS),
		},
		StretchX: rc.Grid.StretchX,
		MaxLevel: rc.Grid.MaxLevel,
		MetaSize: rc.MetaSize,
		Storage: StorageConfig{
			Type: rc.Storage.Type,
			Path: rc.Storage.Path,
			File: rc.Storage.File,
		},
	}, nil
}

// Merge combines other's caches into d, with other's entries winning on a
// name collision. This is how `-s services.yaml` layers onto `-f
// proxy.yaml`: both contribute caches to the same flat set.
func (d *ProxyDocument) Merge(other *ProxyDocument) {
	if other == nil {
		return
	}
	for name, cc := range other.Caches {
		d.Caches[name] = cc
	}
}

// Names returns the cache names in sorted order, for deterministic wiring.
func (d *ProxyDocument) Names() []string {
	names := make([]string, 0, len(d.Caches))
	for name := range d.Caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
