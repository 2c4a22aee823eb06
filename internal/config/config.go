// Package config handles navigation tool configuration loading and
// management.
package config

import "github.com/Faultbox/walkmesh"

// Config holds all navigation tool settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Surfaces SurfacesConfig `yaml:"surfaces"`
	Stitch   StitchConfig   `yaml:"stitch"`
	Path     PathConfig     `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// SurfacesConfig tunes the surface classification table. An empty
// walkable list keeps the stock walkable set; cost overrides raise the
// traversal multiplier of individual materials.
type SurfacesConfig struct {
	Walkable      []int32           `yaml:"walkable"`
	CostOverrides map[int32]float32 `yaml:"cost_overrides"`
}

// StitchConfig holds mesh-merging settings.
type StitchConfig struct {
	Tolerance float32 `yaml:"tolerance"` // edge-weld position tolerance
}

// PathConfig holds pathfinding settings.
type PathConfig struct {
	MaxIterations int `yaml:"max_iterations"` // 0 = bounded by face count
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Surfaces: SurfacesConfig{},
		Stitch: StitchConfig{
			Tolerance: 0.001,
		},
		Path: PathConfig{
			MaxIterations: 0,
		},
	}
}

// SurfaceTable builds the single classification table every component
// shares, applying any configured overrides on top of the stock table.
// With no overrides the shared stock instance is returned unchanged.
func (c *Config) SurfaceTable() *walkmesh.SurfaceTable {
	if len(c.Surfaces.Walkable) == 0 && len(c.Surfaces.CostOverrides) == 0 {
		return walkmesh.DefaultSurfaceTable()
	}

	walkable := make([]walkmesh.Material, 0, len(c.Surfaces.Walkable))
	for _, id := range c.Surfaces.Walkable {
		walkable = append(walkable, walkmesh.Material(id))
	}
	if len(walkable) == 0 {
		walkable = walkmesh.DefaultWalkableMaterials()
	}

	costs := walkmesh.DefaultCostOverrides()
	for id, cost := range c.Surfaces.CostOverrides {
		costs[walkmesh.Material(id)] = cost
	}
	return walkmesh.NewSurfaceTable(walkable, costs)
}
