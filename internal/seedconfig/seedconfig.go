// Package seedconfig parses the seed configuration document: a two-level
// YAML document of named layers (each with an optional
// remove_before expiry window and a list of views) and named views (each
// carrying a bbox, optional SRS filter, and level range). It expands that
// document into the flat []types.SeedTask the engine consumes.
package seedconfig

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/omniscale/tileseed/internal/types"
)

// Document is the parsed seed configuration, still indexed by name — use
// Tasks to expand it into the engine's flat task list.
type Document struct {
	raw rawDocument
}

type rawDocument struct {
	Seeds map[string]rawSeed `yaml:"seeds"`
	Views map[string]rawView `yaml:"views"`
}

type rawSeed struct {
	RemoveBefore *rawRemoveBefore `yaml:"remove_before"`
	Views        []string         `yaml:"views"`
}

type rawRemoveBefore struct {
	Days    int    `yaml:"days"`
	Hours   int    `yaml:"hours"`
	Minutes int    `yaml:"minutes"`
	Time    string `yaml:"time"`
}

type rawView struct {
	Bbox    [4]float64 `yaml:"bbox"`
	BboxSRS string     `yaml:"bbox_srs"`
	SRS     []string   `yaml:"srs"`
	Level   [2]int     `yaml:"level"`
}

// Load reads and parses the seed configuration document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seedconfig: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a seed configuration document from raw YAML bytes.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seedconfig: parsing document: %w", err)
	}
	return &Document{raw: raw}, nil
}

// Tasks expands the document into one SeedTask per (layer, view) pair,
// resolving each layer's remove_before window relative to now. Layers and
// their views are visited in sorted-name order so the resulting task list
// is deterministic.
func (d *Document) Tasks(now time.Time) ([]types.SeedTask, error) {
	layerNames := make([]string, 0, len(d.raw.Seeds))
	for name := range d.raw.Seeds {
		layerNames = append(layerNames, name)
	}
	sort.Strings(layerNames)

	var tasks []types.SeedTask
	for _, layer := range layerNames {
		seed := d.raw.Seeds[layer]

		removeBefore, err := resolveRemoveBefore(seed.RemoveBefore, now)
		if err != nil {
			return nil, fmt.Errorf("seedconfig: layer %q: %w", layer, err)
		}

		viewNames := append([]string(nil), seed.Views...)
		sort.Strings(viewNames)

		for _, viewName := range viewNames {
			view, ok := d.raw.Views[viewName]
			if !ok {
				return nil, fmt.Errorf("seedconfig: layer %q references unknown view %q", layer, viewName)
			}

			task, err := view.toTask(layer, viewName, removeBefore)
			if err != nil {
				return nil, fmt.Errorf("seedconfig: view %q: %w", viewName, err)
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (v rawView) toTask(layer, view string, removeBefore *int64) (types.SeedTask, error) {
	if v.Level[0] > v.Level[1] {
		return types.SeedTask{}, fmt.Errorf("level range [%d, %d] has lo > hi", v.Level[0], v.Level[1])
	}

	bboxSRS := types.CRS(v.BboxSRS)

	cacheSRS := make([]types.CRS, 0, len(v.SRS))
	for _, s := range v.SRS {
		cacheSRS = append(cacheSRS, types.CRS(s))
	}

	return types.SeedTask{
		Bbox: types.BBox{
			MinX: v.Bbox[0], MinY: v.Bbox[1],
			MaxX: v.Bbox[2], MaxY: v.Bbox[3],
			SRS: bboxSRS,
		},
		BboxSRS:      bboxSRS,
		LevelMin:     v.Level[0],
		LevelMax:     v.Level[1],
		CacheSRS:     cacheSRS,
		RemoveBefore: removeBefore,
		Layer:        layer,
		View:         view,
	}, nil
}

// resolveRemoveBefore converts a relative (days/hours/minutes) or absolute
// (time) expiry window into a unix-seconds cutoff. A nil input means no
// expiry pass for this layer.
func resolveRemoveBefore(rb *rawRemoveBefore, now time.Time) (*int64, error) {
	if rb == nil {
		return nil, nil
	}

	if rb.Time != "" {
		t, err := time.Parse(time.RFC3339, rb.Time)
		if err != nil {
			return nil, fmt.Errorf("remove_before.time %q: %w", rb.Time, err)
		}
		cutoff := t.Unix()
		return &cutoff, nil
	}

	window := time.Duration(rb.Days)*24*time.Hour +
		time.Duration(rb.Hours)*time.Hour +
		time.Duration(rb.Minutes)*time.Minute
	if window <= 0 {
		return nil, fmt.Errorf("remove_before must set a positive window or an absolute time")
	}

	cutoff := now.Add(-window).Unix()
	return &cutoff, nil
}
