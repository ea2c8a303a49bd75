package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// SheetRequest is the JSON body of POST /api/sheets.
//
// Grid values are the raw text a user typed into the grid form; they are
// parsed with the same fallbacks as the CLI. Empty fields keep the server
// defaults.
type SheetRequest struct {
	Codes     []string          `json:"codes"`
	Preset    string            `json:"preset,omitempty"`
	Grid      map[string]string `json:"grid,omitempty"`
	Symbology string            `json:"symbology,omitempty"`
	ShowText  *bool             `json:"show_text,omitempty"`
	// Format is one of pdf, png or json. PNG returns a single page.
	Format  string `json:"format,omitempty"`
	Page    int    `json:"page,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
	Preview bool   `json:"preview,omitempty"`
	Guides  bool   `json:"guides,omitempty"`
}

var contentTypes = map[string]string{
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	var req SheetRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}

	opts, format, err := s.options(req)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.Runner.Export(r.Context(), req.Codes, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	key := format
	if format == pipeline.FormatPNG {
		page := req.Page
		if page < 1 {
			page = 1
		}
		if page > len(result.Sheets) {
			writeError(w, errors.New(errors.ErrCodeNotFound, "page %d of %d", page, len(result.Sheets)))
			return
		}
		key = pipeline.PNGName(page - 1)
	}

	names, err := result.FileNames(opts.Prefix, strconv.FormatInt(s.now().UnixMilli(), 10))
	if err != nil {
		writeError(w, err)
		return
	}
	body := result.Artifacts[key]

	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Content-Disposition", `attachment; filename="`+names[key]+`"`)
	h.Set("X-Export-ID", result.ID)
	h.Set("X-Pages", strconv.Itoa(result.Stats.Pages))
	h.Set("X-Cell-Errors", strconv.Itoa(len(result.CellErrors)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)

	s.Logger.Info("sheet exported",
		"id", result.ID[:8],
		"format", format,
		"pages", result.Stats.Pages,
		"cached", result.CacheHit,
		"duration", (result.Stats.RenderTime + result.Stats.AssembleTime).Round(time.Millisecond))
}

// options merges req onto the server defaults.
func (s *Server) options(req SheetRequest) (pipeline.Options, string, error) {
	opts := s.Defaults
	opts.Formats = nil

	format := req.Format
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, "", err
	}
	opts.Formats = []string{format}

	if opts.Grid == (sheet.Grid{}) {
		opts.Grid = sheet.DefaultGrid()
	}
	if req.Preset != "" {
		p, err := s.Catalog.Lookup(req.Preset)
		if err != nil {
			return opts, "", err
		}
		opts.Grid = opts.Grid.ApplyPreset(p)
	}
	if v, ok := req.Grid[sheet.FieldArrow]; ok {
		if _, err := sheet.ParseArrow(v); err != nil {
			return opts, "", err
		}
	}
	opts.Grid = sheet.ParseGrid(opts.Grid, req.Grid)

	if req.Symbology != "" {
		sym, err := render.ParseSymbology(req.Symbology)
		if err != nil {
			return opts, "", err
		}
		opts.Symbology = sym
	}
	if req.ShowText != nil {
		opts.ShowText = *req.ShowText
	}
	if req.Prefix != "" {
		opts.Prefix = req.Prefix
	}
	opts.Preview = req.Preview
	opts.Guides = req.Guides
	opts.Logger = s.Logger
	return opts, format, nil
}
