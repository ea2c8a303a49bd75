// Package pipeline provides the end-to-end label sheet export.
//
// This package implements the complete paginate → render → assemble pipeline
// used by both the CLI and the HTTP server, so that both entry points behave
// the same way.
//
// # Architecture
//
// An export runs three stages, strictly in sequence:
//
//  1. Paginate: split the code list into sheets and compute label boxes
//  2. Render: encode every label and compose each sheet onto an A4 raster,
//     one page after the other
//  3. Assemble: write the pages out as PDF, PNG or JSON
//
// Only one export runs at a time per [Runner]. A second export started while
// one is in flight fails immediately with an EXPORT_BUSY error; it is not
// queued.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Grid:      sheet.DefaultGrid(),
//	    Symbology: render.EAN13,
//	    Formats:   []string{"pdf"},
//	}
//	result, err := runner.Export(ctx, codes, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf := result.Artifacts["pdf"]
package pipeline

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/render/compose"
	"github.com/matzehuels/labelsheet/pkg/render/sink"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDPI is the raster resolution of composed pages.
	DefaultDPI = compose.DefaultDPI

	// MinDPI and MaxDPI bound the accepted resolution.
	MinDPI = 72.0
	MaxDPI = 600.0

	// DefaultPrefix is the default export file name prefix.
	DefaultPrefix = "planche_etiquettes"
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatPDF

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Export Configuration
// =============================================================================

// Options contains all configuration for one export.
// This struct supports JSON serialization for API requests.
type Options struct {
	Grid      sheet.Grid       `json:"grid"`
	Symbology render.Symbology `json:"symbology,omitempty"`
	ShowText  bool             `json:"show_text,omitempty"`
	Formats   []string         `json:"formats,omitempty"`
	Prefix    string           `json:"prefix,omitempty"`
	DPI       float64          `json:"dpi,omitempty"`
	// Preview renders a placeholder sheet when there are no codes instead
	// of failing.
	Preview bool `json:"preview,omitempty"`
	Guides  bool `json:"guides,omitempty"`
	// Refresh skips the cache lookup (results are still written back).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of an export.
type Result struct {
	// ID identifies the export in logs and API responses.
	ID string

	// Sheets is the paginated layout that was rendered.
	Sheets []sheet.Sheet

	// Artifacts contains outputs keyed by name: "pdf", "json", and
	// "page-N.png" (1-based) for PNG pages.
	Artifacts map[string][]byte

	// CellErrors lists labels that could not be rendered. They appear on the
	// sheet with an error marker; the export itself still succeeds.
	CellErrors []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit is true when the artifacts came from the cache.
	CacheHit bool
}

// Stats contains export statistics.
type Stats struct {
	Codes        int
	Pages        int
	FailedCells  int
	RenderTime   time.Duration
	AssembleTime time.Duration
}

// PNGName returns the artifact name of page n (0-based).
func PNGName(n int) string {
	return "page-" + strconv.Itoa(n+1) + "." + FormatPNG
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDPI checks that dpi is within [MinDPI, MaxDPI].
func ValidateDPI(dpi float64) error {
	if dpi < MinDPI || dpi > MaxDPI {
		return errors.New(errors.ErrCodeInvalidInput, "dpi %.0f out of range (%.0f-%.0f)", dpi, MinDPI, MaxDPI)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	o.Grid = o.Grid.Normalize()
	if err := o.Grid.Validate(); err != nil {
		return err
	}

	sym, err := render.ParseSymbology(string(o.Symbology))
	if err != nil {
		return err
	}
	o.Symbology = sym

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Formats = dedupe(o.Formats)

	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if err := errors.ValidatePrefix(o.Prefix); err != nil {
		return err
	}

	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if err := ValidateDPI(o.DPI); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Has reports whether format was requested.
func (o *Options) Has(format string) bool {
	return slices.Contains(o.Formats, format)
}

// needsRaster reports whether any requested format needs composed pages.
func (o *Options) needsRaster() bool {
	return o.Has(FormatPDF) || o.Has(FormatPNG)
}

// clone returns a deep copy so that later changes by the caller do not leak
// into a running export.
func (o Options) clone() Options {
	o.Formats = slices.Clone(o.Formats)
	return o
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// FileNames maps each artifact of r to a file name built from prefix and
// stamp with [sink.FileName].
func (r *Result) FileNames(prefix, stamp string) (map[string]string, error) {
	names := make(map[string]string, len(r.Artifacts))
	for key := range r.Artifacts {
		var (
			name string
			err  error
		)
		switch key {
		case FormatPDF, FormatJSON:
			name, err = sink.FileName(prefix, stamp, key)
		default:
			s := stamp
			if len(r.Sheets) > 1 {
				s = joinStamp(stamp, strings.TrimSuffix(key, "."+FormatPNG))
			}
			name, err = sink.FileName(prefix, s, FormatPNG)
		}
		if err != nil {
			return nil, err
		}
		names[key] = name
	}
	return names, nil
}

func joinStamp(stamp, suffix string) string {
	if stamp == "" {
		return suffix
	}
	return stamp + "_" + suffix
}
