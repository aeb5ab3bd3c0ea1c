// Package catalog loads the raid catalogue: which raid zones to harvest,
// and for each one which regions and difficulties. The catalogue is read
// once at process start and is read-only for the run.
package catalog

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration errors. Both are run-fatal for the single-raid entry point.
var (
	// ErrNoCatalog is returned when the catalogue file is missing or empty.
	ErrNoCatalog = errors.New("catalog: no raids configured")

	// ErrRaidNotFound is returned when a raid key is not in the catalogue.
	ErrRaidNotFound = errors.New("catalog: raid key not found")
)

// Raid is one raid zone entry of the catalogue.
type Raid struct {
	// Key identifies the raid on the command line.
	Key string `koanf:"key"`

	// Name is the display name stored alongside harvested rows.
	Name string `koanf:"name"`

	// ZoneID is the upstream numeric zone identifier.
	ZoneID int `koanf:"id"`

	// Regions lists the region display names to harvest for this raid.
	Regions []string `koanf:"regions"`

	// Difficulties lists the difficulty display names to harvest.
	Difficulties []string `koanf:"difficulties"`
}

// Catalog is the full raid catalogue. Raids keep the file order so job
// planning is deterministic.
type Catalog struct {
	Raids []Raid `koanf:"raids"`
}

// Load reads the catalogue from a YAML file.
func Load(path string) (*Catalog, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var cat Catalog
	if err := k.UnmarshalWithConf("", &cat, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if len(cat.Raids) == 0 {
		return nil, ErrNoCatalog
	}

	for i, raid := range cat.Raids {
		if raid.Key == "" || raid.Name == "" || raid.ZoneID == 0 {
			return nil, fmt.Errorf("catalog entry %d: key, name and id are required", i)
		}
	}

	return &cat, nil
}

// Raid looks up a catalogue entry by key.
func (c *Catalog) Raid(key string) (Raid, error) {
	for _, raid := range c.Raids {
		if raid.Key == key {
			return raid, nil
		}
	}
	return Raid{}, fmt.Errorf("%w: %q", ErrRaidNotFound, key)
}
