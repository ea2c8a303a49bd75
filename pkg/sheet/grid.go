package sheet

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// A4 portrait page size in millimetres.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// Default grid values, used when a field is missing or invalid.
const (
	DefaultMarginTop  = 10.0
	DefaultMarginLeft = 5.0
	DefaultColumns    = 3
	DefaultRows       = 8
	DefaultRowHeight  = 35.0
	DefaultCodeScale  = 1.0
)

// Grid describes how labels are laid out on a sheet.
// Lengths are in millimetres.
type Grid struct {
	MarginTop  float64 `json:"margin_top" toml:"margin_top" yaml:"margin_top"`
	MarginLeft float64 `json:"margin_left" toml:"margin_left" yaml:"margin_left"`
	Columns    int     `json:"columns" toml:"columns" yaml:"columns"`
	Rows       int     `json:"rows" toml:"rows" yaml:"rows"`
	RowHeight  float64 `json:"row_height" toml:"row_height" yaml:"row_height"`
	CodeScale  float64 `json:"code_scale" toml:"code_scale" yaml:"code_scale"`
	Arrow      Arrow   `json:"arrow,omitempty" toml:"arrow" yaml:"arrow"`
}

// DefaultGrid returns the grid used when nothing else is configured.
func DefaultGrid() Grid {
	return Grid{
		MarginTop:  DefaultMarginTop,
		MarginLeft: DefaultMarginLeft,
		Columns:    DefaultColumns,
		Rows:       DefaultRows,
		RowHeight:  DefaultRowHeight,
		CodeScale:  DefaultCodeScale,
		Arrow:      ArrowNone,
	}
}

// Normalize clamps the grid to usable values and returns the result.
// Columns and rows below 1 become 1, negative margins become 0, and a
// non-positive row height or code scale falls back to its default.
// Non-finite lengths fall back to their defaults.
func (g Grid) Normalize() Grid {
	g.MarginTop = finiteOr(g.MarginTop, DefaultMarginTop)
	g.MarginLeft = finiteOr(g.MarginLeft, DefaultMarginLeft)
	g.RowHeight = finiteOr(g.RowHeight, DefaultRowHeight)
	g.CodeScale = finiteOr(g.CodeScale, DefaultCodeScale)
	if g.Columns < 1 {
		g.Columns = 1
	}
	if g.Rows < 1 {
		g.Rows = 1
	}
	if g.MarginTop < 0 {
		g.MarginTop = 0
	}
	if g.MarginLeft < 0 {
		g.MarginLeft = 0
	}
	if g.RowHeight <= 0 {
		g.RowHeight = DefaultRowHeight
	}
	if g.CodeScale <= 0 {
		g.CodeScale = DefaultCodeScale
	}
	if g.Arrow == "" {
		g.Arrow = ArrowNone
	}
	return g
}

// PerPage returns the number of cells on one page.
func (g Grid) PerPage() int {
	n := g.Normalize()
	return n.Columns * n.Rows
}

// CellWidth returns the width of one column in millimetres.
// Columns share the page width left between the two side margins.
func (g Grid) CellWidth() float64 {
	n := g.Normalize()
	w := (PageWidthMM - 2*n.MarginLeft) / float64(n.Columns)
	if w < 0 {
		return 0
	}
	return w
}

// Validate reports whether the grid fits on an A4 page.
// It checks the normalized grid, so it never fails on zero columns or rows.
func (g Grid) Validate() error {
	n := g.Normalize()
	if 2*n.MarginLeft >= PageWidthMM {
		return errors.New(errors.ErrCodeInvalidGrid,
			"left margin %.1fmm leaves no room on a %.0fmm wide page", n.MarginLeft, PageWidthMM)
	}
	if n.MarginTop >= PageHeightMM {
		return errors.New(errors.ErrCodeInvalidGrid,
			"top margin %.1fmm is beyond the %.0fmm page height", n.MarginTop, PageHeightMM)
	}
	return nil
}

// ApplyPreset overwrites margins, columns, rows and row height with p.
// Code scale and arrow marker are kept.
func (g Grid) ApplyPreset(p Preset) Grid {
	g.MarginTop = p.MarginTop
	g.MarginLeft = p.MarginLeft
	g.Columns = p.Columns
	g.Rows = p.Rows
	g.RowHeight = p.RowHeight
	return g
}

// Grid field names accepted by ParseGrid.
const (
	FieldMarginTop  = "margin_top"
	FieldMarginLeft = "margin_left"
	FieldColumns    = "columns"
	FieldRows       = "rows"
	FieldRowHeight  = "row_height"
	FieldCodeScale  = "code_scale"
	FieldArrow      = "arrow"
)

// ParseGrid overlays user-entered text values onto base.
//
// Missing keys keep the base value. Columns and rows that fail to parse become
// 1, matching how form inputs behave when cleared; unparsable lengths and
// scale fall back to their defaults. The result is normalized.
func ParseGrid(base Grid, values map[string]string) Grid {
	g := base
	if v, ok := values[FieldColumns]; ok {
		g.Columns = parseCount(v)
	}
	if v, ok := values[FieldRows]; ok {
		g.Rows = parseCount(v)
	}
	if v, ok := values[FieldMarginTop]; ok {
		g.MarginTop = parseLength(v, DefaultMarginTop)
	}
	if v, ok := values[FieldMarginLeft]; ok {
		g.MarginLeft = parseLength(v, DefaultMarginLeft)
	}
	if v, ok := values[FieldRowHeight]; ok {
		g.RowHeight = parseLength(v, DefaultRowHeight)
	}
	if v, ok := values[FieldCodeScale]; ok {
		g.CodeScale = parseLength(v, DefaultCodeScale)
	}
	if v, ok := values[FieldArrow]; ok {
		if a, err := ParseArrow(v); err == nil {
			g.Arrow = a
		}
	}
	return g.Normalize()
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parseLength(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
	if err != nil || !isFinite(f) {
		return def
	}
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteOr(f, def float64) float64 {
	if isFinite(f) {
		return f
	}
	return def
}
