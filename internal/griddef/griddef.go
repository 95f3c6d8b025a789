// Package griddef loads the grid definition sidecar that describes the
// model's cell grid. WMS dataset files carry a flat cell list with no shape
// information, so the column count must come from here.
package griddef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Grid describes the rectangular model grid.
type Grid struct {
	Columns  int     `yaml:"columns"`
	Rows     int     `yaml:"rows"`
	CellSize float64 `yaml:"cell_size"`
	North    float64 `yaml:"north"`
	West     float64 `yaml:"west"`
}

// Load reads and validates a grid definition file.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid definition: %w", err)
	}

	grid := &Grid{}
	if err := yaml.Unmarshal(data, grid); err != nil {
		return nil, fmt.Errorf("parse grid definition: %w", err)
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("grid definition %s: %w", path, err)
	}
	return grid, nil
}

// Validate checks that the grid has a usable shape.
func (g *Grid) Validate() error {
	if g.Columns <= 0 {
		return fmt.Errorf("columns must be positive, got %d", g.Columns)
	}
	if g.Rows < 0 {
		return fmt.Errorf("rows must not be negative, got %d", g.Rows)
	}
	if g.CellSize < 0 {
		return fmt.Errorf("cell_size must not be negative, got %g", g.CellSize)
	}
	return nil
}
