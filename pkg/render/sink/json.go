package sink

import (
	"encoding/json"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	symbology string
	grid      *sheet.Grid
}

// WithJSONSymbology records the barcode type in the output.
func WithJSONSymbology(s string) JSONOption { return func(r *jsonRenderer) { r.symbology = s } }

// WithJSONGrid records the grid the layout was computed with.
func WithJSONGrid(g sheet.Grid) JSONOption { return func(r *jsonRenderer) { r.grid = &g } }

type jsonOutput struct {
	Unit      string        `json:"unit"`
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Symbology string        `json:"symbology,omitempty"`
	Grid      *sheet.Grid   `json:"grid,omitempty"`
	Pages     []sheet.Sheet `json:"pages"`
}

// RenderJSON encodes the label layout of sheets for external tools.
// Lengths are in millimetres.
func RenderJSON(sheets []sheet.Sheet, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	out := jsonOutput{
		Unit:      "mm",
		Width:     sheet.PageWidthMM,
		Height:    sheet.PageHeightMM,
		Symbology: r.symbology,
		Grid:      r.grid,
		Pages:     sheets,
	}
	if out.Pages == nil {
		out.Pages = []sheet.Sheet{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "encode json")
	}
	return data, nil
}
