// Package replay streams depth-indexed drilling tables as if they were live
// telemetry. Tables carry no time index: rows are ordered by depth and
// emitted one per tick.
package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/NkanyeziNgobese/ares-1/internal/domain"
)

var (
	ErrNoDepthColumn  = errors.New("replay: depth column not found")
	ErrColumnOverride = errors.New("replay: column override not found")
	ErrEmptyTable     = errors.New("replay: table has no usable rows")
)

// candidates lists header names tried per channel, most specific first.
var candidates = [domain.ChannelCount][]string{
	domain.Depth:   {"BIT_DEPTH", "BITDEPTH", "DEPTH"},
	domain.ROP:     {"ROP", "RATE_OF_PENETRATION"},
	domain.WOB:     {"WOB", "WEIGHT_ON_BIT"},
	domain.RPM:     {"RPM", "SURFACE_RPM", "ROTARY_SPEED"},
	domain.Torque:  {"TORQUE"},
	domain.FlowIn:  {"FLOW_IN", "FLOWIN", "MUD_FLOW_IN"},
	domain.FlowOut: {"FLOW_OUT", "FLOWOUT", "MUD_FLOW_OUT"},
}

// Options controls how a table file is read.
type Options struct {
	// Separator is the CSV field delimiter. Defaults to ",".
	Separator string `yaml:"separator"`
	// Sheet selects the XLSX worksheet. Defaults to the first sheet.
	Sheet string `yaml:"sheet"`
	// Columns maps channel keys to exact header names.
	Columns map[string]string `yaml:"columns"`
}

// Table is a loaded replay source in file order. Depths are in source units.
type Table struct {
	Columns map[domain.Channel]string
	Rows    []domain.Sample
}

// Load reads a CSV or XLSX table, choosing the format by file extension.
func Load(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}

func LoadCSV(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opts.Separator != "" {
		sep := []rune(opts.Separator)
		if len(sep) != 1 {
			return nil, fmt.Errorf("replay: separator %q must be a single character", opts.Separator)
		}
		cr.Comma = sep[0]
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("replay: read csv: %w", err)
	}
	return build(records, opts)
}

func LoadXLSX(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyTable
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("replay: read sheet %q: %w", sheet, err)
	}
	return build(rows, opts)
}

func build(records [][]string, opts Options) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	header := records[0]
	index, err := resolveColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: map[domain.Channel]string{}}
	for c, i := range index {
		if i >= 0 {
			t.Columns[domain.Channel(c)] = header[i]
		}
	}

	for _, rec := range records[1:] {
		depth, ok := cell(rec, index[domain.Depth])
		if !ok {
			continue
		}
		s := domain.Sample{}.With(domain.Depth, depth)
		for _, c := range domain.Channels()[1:] {
			if v, ok := cell(rec, index[c]); ok {
				s = s.With(c, v)
			}
		}
		t.Rows = append(t.Rows, s)
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

func cell(rec []string, i int) (float64, bool) {
	if i < 0 || i >= len(rec) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// resolveColumns returns the header index per channel, -1 when unresolved.
func resolveColumns(header []string, overrides map[string]string) ([domain.ChannelCount]int, error) {
	var index [domain.ChannelCount]int
	claimed := map[int]bool{}
	for _, c := range domain.Channels() {
		override := ""
		for key, name := range overrides {
			if ch, ok := domain.ParseChannel(key); ok && ch == c {
				override = name
			}
		}
		i, err := ResolveColumn(header, override, candidates[c], claimed)
		if err != nil {
			return index, fmt.Errorf("%w: %s=%q", err, c, override)
		}
		index[c] = i
		if i >= 0 {
			claimed[i] = true
		}
	}
	if index[domain.Depth] < 0 {
		return index, ErrNoDepthColumn
	}
	return index, nil
}

// ResolveColumn finds a header by exact override, then by normalised
// candidate name, then by candidate substring. Columns in claimed are
// skipped. It returns -1 when nothing matches.
func ResolveColumn(header []string, override string, names []string, claimed map[int]bool) (int, error) {
	if override != "" {
		for i, h := range header {
			if h == override {
				return i, nil
			}
		}
		return -1, ErrColumnOverride
	}
	for _, name := range names {
		want := NormalizeName(name)
		for i, h := range header {
			if !claimed[i] && NormalizeName(h) == want {
				return i, nil
			}
		}
	}
	for i, h := range header {
		if claimed[i] {
			continue
		}
		norm := NormalizeName(h)
		for _, name := range names {
			if strings.Contains(norm, NormalizeName(name)) {
				return i, nil
			}
		}
	}
	return -1, nil
}

// NormalizeName lowercases s and drops everything but letters and digits.
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// SortByDepth orders rows by ascending source depth. Equal depths keep their
// file order.
func (t *Table) SortByDepth() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Get(domain.Depth) < t.Rows[j].Get(domain.Depth)
	})
}

// DepthRange returns the smallest and largest source depth.
func (t *Table) DepthRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range t.Rows {
		d := r.Get(domain.Depth)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
