package ares

import (
	"github.com/NkanyeziNgobese/ares-1/internal/adapters/terrain"
	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/replay"
)

type (
	// TerrainMetrics is the well geometry read from the terrain workbook.
	TerrainMetrics = terrain.Metrics
	// ReplayTable is a loaded CSV/XLSX replay source.
	ReplayTable   = replay.Table
	ReplayOptions = replay.Options
)

// DefaultZones returns the built-in Karoo geology boundaries.
func DefaultZones() ZoneConfig { return engine.DefaultZones() }

// LoadTerrain reads the terrain metrics workbook.
func LoadTerrain(path string) (TerrainMetrics, error) { return terrain.Load(path) }

// DefaultTerrain returns the metrics used when no workbook is configured.
func DefaultTerrain() TerrainMetrics { return terrain.Defaults() }

// LoadReplayTable reads a replay table without starting a runtime.
func LoadReplayTable(path string, opts ReplayOptions) (*ReplayTable, error) {
	return replay.Load(path, opts)
}
