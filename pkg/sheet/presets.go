package sheet

import (
	"sort"
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// Preset is a named grid matching a commercial label-sheet product.
type Preset struct {
	Name        string  `json:"name" toml:"name" yaml:"name"`
	Description string  `json:"description,omitempty" toml:"description" yaml:"description"`
	MarginTop   float64 `json:"margin_top" toml:"margin_top" yaml:"margin_top"`
	MarginLeft  float64 `json:"margin_left" toml:"margin_left" yaml:"margin_left"`
	Columns     int     `json:"columns" toml:"columns" yaml:"columns"`
	Rows        int     `json:"rows" toml:"rows" yaml:"rows"`
	RowHeight   float64 `json:"row_height" toml:"row_height" yaml:"row_height"`
}

// PerPage returns the number of labels on one sheet of this product.
func (p Preset) PerPage() int { return p.Columns * p.Rows }

// builtinPresets is the catalog shipped with labelsheet, in display order.
var builtinPresets = []Preset{
	{Name: "default", Description: "Generic 3×8 grid", MarginTop: DefaultMarginTop, MarginLeft: DefaultMarginLeft, Columns: DefaultColumns, Rows: DefaultRows, RowHeight: DefaultRowHeight},
	{Name: "avery-l7159", Description: "24 labels 63.5×33.9mm", MarginTop: 12.9, MarginLeft: 6.45, Columns: 3, Rows: 8, RowHeight: 33.9},
	{Name: "avery-l7160", Description: "21 labels 63.5×38.1mm", MarginTop: 15.15, MarginLeft: 7.25, Columns: 3, Rows: 7, RowHeight: 38.1},
	{Name: "avery-l7161", Description: "18 labels 63.5×46.6mm", MarginTop: 8.8, MarginLeft: 7.25, Columns: 3, Rows: 6, RowHeight: 46.6},
	{Name: "avery-l7163", Description: "14 labels 99.1×38.1mm", MarginTop: 15.15, MarginLeft: 4.65, Columns: 2, Rows: 7, RowHeight: 38.1},
	{Name: "avery-l7165", Description: "8 labels 99.1×67.7mm", MarginTop: 13.1, MarginLeft: 4.65, Columns: 2, Rows: 4, RowHeight: 67.7},
	{Name: "avery-l7173", Description: "10 labels 99.1×57mm", MarginTop: 6, MarginLeft: 4.65, Columns: 2, Rows: 5, RowHeight: 57},
	{Name: "avery-l7651", Description: "65 labels 38.1×21.2mm", MarginTop: 10.7, MarginLeft: 4.75, Columns: 5, Rows: 13, RowHeight: 21.2},
	{Name: "avery-3474", Description: "24 labels 70×37mm, borderless", MarginTop: 0.5, MarginLeft: 0, Columns: 3, Rows: 8, RowHeight: 37},
}

// Presets returns the built-in preset catalog in display order.
// The returned slice is a copy and may be modified by the caller.
func Presets() []Preset {
	out := make([]Preset, len(builtinPresets))
	copy(out, builtinPresets)
	return out
}

// Catalog is an ordered, case-insensitive collection of presets.
type Catalog struct {
	presets []Preset
}

// NewCatalog builds a catalog from the built-in presets plus extra ones.
// An extra preset replaces a built-in preset of the same name in place;
// new names are appended in sorted order.
func NewCatalog(extra ...Preset) *Catalog {
	c := &Catalog{presets: Presets()}
	var added []Preset
	for _, p := range extra {
		if i := c.index(p.Name); i >= 0 {
			c.presets[i] = p
			continue
		}
		added = append(added, p)
	}
	sort.SliceStable(added, func(i, j int) bool { return added[i].Name < added[j].Name })
	c.presets = append(c.presets, added...)
	return c
}

// All returns every preset in the catalog.
func (c *Catalog) All() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Lookup finds a preset by name, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(name string) (Preset, error) {
	if i := c.index(name); i >= 0 {
		return c.presets[i], nil
	}
	return Preset{}, errors.New(errors.ErrCodeInvalidPreset, "unknown preset: %q", name)
}

func (c *Catalog) index(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range c.presets {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// LookupPreset finds a built-in preset by name.
func LookupPreset(name string) (Preset, error) {
	return NewCatalog().Lookup(name)
}
