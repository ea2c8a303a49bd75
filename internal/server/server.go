// Package server exposes the label sheet export over HTTP.
//
// Routes:
//
//	GET  /healthz                    liveness and build version
//	GET  /api/presets                preset catalog
//	GET  /api/check-digit/{digits}   EAN-13 check digit
//	POST /api/import                 spreadsheet upload, returns the codes
//	POST /api/sheets                 export; body is a [SheetRequest]
//	GET  /assets/*                   editor assets through the offline cache
//
// Only one export runs at a time. A request that arrives while another export
// is in flight gets 409 Conflict and should be retried by the client.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/labelsheet/pkg/buildinfo"
	"github.com/matzehuels/labelsheet/pkg/ean"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/sheet"
	"github.com/matzehuels/labelsheet/pkg/source"
)

// maxUpload bounds request bodies (code lists and workbooks).
const maxUpload = 10 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Runner  *pipeline.Runner
	Catalog *sheet.Catalog
	// Defaults are applied to every export before the request's own values.
	Defaults pipeline.Options
	// Assets serves /assets/*. Nil disables the route.
	Assets http.Handler
	Logger *log.Logger

	now func() time.Time
}

// New returns a server. A nil catalog uses the built-in presets.
func New(runner *pipeline.Runner, catalog *sheet.Catalog, defaults pipeline.Options, logger *log.Logger) *Server {
	if catalog == nil {
		catalog = sheet.NewCatalog()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Runner: runner, Catalog: catalog, Defaults: defaults, Logger: logger, now: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/presets", s.handlePresets)
		r.Get("/check-digit/{digits}", s.handleCheckDigit)
		r.Post("/import", s.handleImport)
		r.Post("/sheets", s.handleSheets)
	})
	if s.Assets != nil {
		r.Handle("/assets/*", http.StripPrefix("/assets", s.Assets))
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
		"busy":   s.Runner.Busy(),
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.All())
}

func (s *Server) handleCheckDigit(w http.ResponseWriter, r *http.Request) {
	digits := ean.Digits(chi.URLParam(r, "digits"))
	d, err := ean.CheckDigit(digits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"check_digit": d,
		"code":        digits + strconv.Itoa(d),
	})
}

// handleImport reads the first column of an uploaded workbook. The file is
// sent as the multipart field "file"; "skip_header=true" drops row 1.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing workbook upload"))
		return
	}
	defer f.Close()

	skip, _ := strconv.ParseBool(r.FormValue("skip_header"))
	codes, err := source.ReadSpreadsheet(f, source.SpreadsheetOptions{SkipHeader: skip})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes, "count": len(codes)})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGrid, errors.ErrCodeInvalidSymbology,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPreset, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeImportFailed, errors.ErrCodeManualDisabled:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeExportBusy:
		return http.StatusConflict
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
