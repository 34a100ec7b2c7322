// Package terrain loads well geometry and geology boundaries from the
// terrain metrics workbook.
package terrain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/NkanyeziNgobese/ares-1/internal/engine"
	"github.com/NkanyeziNgobese/ares-1/internal/replay"
)

const (
	SheetName = "Well_Structure_Depths"

	AssetDolerite  = "GEO_Dolerite_Sill"
	AssetEccaLower = "GEO_Ecca_Shale_Lower"
	AssetWellbore  = "WEL_Wellbore_Main"

	DefaultOrigin = -2.9999
	DefaultTD     = -3500.0
)

var ErrMissingColumns = errors.New("terrain: required columns not found")

// Bounds are the top and bottom Z of one asset row, in metres.
type Bounds struct {
	Top    float64
	Bottom float64
}

// Metrics is what the workbook contributes to the runtime.
type Metrics struct {
	Origin float64
	TD     float64
	Zones  engine.ZoneConfig
	Assets map[string]Bounds
	Source string
}

// Defaults returns the built-in Karoo well metrics.
func Defaults() Metrics {
	return Metrics{
		Origin: DefaultOrigin,
		TD:     DefaultTD,
		Zones:  engine.DefaultZones(),
		Assets: map[string]Bounds{},
		Source: "defaults",
	}
}

// Load reads the workbook at path. Rows that are missing keep their default
// values.
func Load(path string) (Metrics, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Metrics{}, fmt.Errorf("terrain: open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return Metrics{}, fmt.Errorf("terrain: read sheet %s: %w", SheetName, err)
	}
	m, err := parse(rows)
	if err != nil {
		return Metrics{}, err
	}
	m.Source = path
	return m, nil
}

func parse(rows [][]string) (Metrics, error) {
	m := Defaults()
	if len(rows) == 0 {
		return m, ErrMissingColumns
	}

	claimed := map[int]bool{}
	col := func(name string) int {
		i, _ := replay.ResolveColumn(rows[0], "", []string{name}, claimed)
		if i >= 0 {
			claimed[i] = true
		}
		return i
	}
	assetCol, topCol, bottomCol := col("Asset_Name"), col("Top_Z (m)"), col("Bottom_Z (m)")
	if assetCol < 0 || topCol < 0 || bottomCol < 0 {
		return m, ErrMissingColumns
	}

	for _, row := range rows[1:] {
		if assetCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[assetCol])
		if _, seen := m.Assets[name]; name == "" || seen {
			continue
		}
		top, okTop := number(row, topCol)
		bottom, okBottom := number(row, bottomCol)
		if !okTop || !okBottom {
			continue
		}
		m.Assets[name] = Bounds{Top: top, Bottom: bottom}
	}

	if b, ok := m.Assets[AssetDolerite]; ok {
		m.Zones.DoleriteLow = min(b.Top, b.Bottom)
		m.Zones.DoleriteHigh = max(b.Top, b.Bottom)
	}
	if b, ok := m.Assets[AssetEccaLower]; ok {
		m.Zones.EccaThreshold = max(b.Top, b.Bottom)
	}
	if b, ok := m.Assets[AssetWellbore]; ok {
		m.Origin = b.Top
		m.TD = b.Bottom
	}
	return m, nil
}

func number(row []string, i int) (float64, bool) {
	if i >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	return v, err == nil
}

// Lookup returns the first asset whose band contains depth.
func (m Metrics) Lookup(depth float64) (string, bool) {
	for _, name := range []string{"GEO_Beaufort", "GEO_Ecca_Shale_Upper", AssetDolerite, AssetEccaLower, "GEO_Dwyka"} {
		b, ok := m.Assets[name]
		if !ok {
			continue
		}
		if depth >= min(b.Top, b.Bottom) && depth <= max(b.Top, b.Bottom) {
			return name, true
		}
	}
	return "", false
}
