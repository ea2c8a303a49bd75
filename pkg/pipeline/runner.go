package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/observability"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/render/compose"
	"github.com/matzehuels/labelsheet/pkg/render/sink"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

// ErrBusy is returned by [Runner.Export] while another export is running.
var ErrBusy = errors.New(errors.ErrCodeExportBusy, "an export is already in progress")

// Runner executes exports with caching and mutual exclusion.
// Both CLI and API use it to avoid duplicating that logic.
//
// A Runner holds no results between exports. It is safe for concurrent use,
// but runs at most one export at a time.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// NewRenderer builds the label renderer for an export. It defaults to a
	// [render.BarcodeRenderer] configured from the options.
	NewRenderer func(opts Options) render.Renderer

	// Hooks receives export events. It defaults to the global
	// [observability.Export] hooks.
	Hooks observability.ExportHooks

	running atomic.Bool
}

// NewRunner creates a runner with the given cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  cache.NewDefaultKeyer(),
		Logger: logger,
	}
}

// Busy reports whether an export is in flight.
func (r *Runner) Busy() bool {
	return r.running.Load()
}

// Export paginates codes, renders every page in order and assembles the
// requested formats.
//
// Codes and options are copied when the export starts, so the caller may
// change them while it runs. If another export is in flight, Export returns
// [ErrBusy] at once. Invalid options and an empty code list without
// opts.Preview are reported with their own error codes; failures while
// rendering or assembling are wrapped as EXPORT_FAILED.
func (r *Runner) Export(ctx context.Context, codes []string, opts Options) (*Result, error) {
	hooks := r.hooks()
	if !r.running.CompareAndSwap(false, true) {
		hooks.OnExportRejected(ctx)
		return nil, ErrBusy
	}
	defer r.running.Store(false)

	codes = append([]string(nil), codes...)
	opts = opts.clone()
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	sheets := sheet.Layout(codes, opts.Grid, opts.Preview)
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no codes to export")
	}

	result := &Result{
		ID:        uuid.NewString(),
		Sheets:    sheets,
		Artifacts: make(map[string][]byte),
		Stats:     Stats{Codes: len(codes), Pages: len(sheets)},
	}
	logger := opts.Logger.With("export", result.ID[:8])

	key := r.cacheKey(codes, opts)
	if !opts.Refresh && r.fromCache(ctx, key, result) {
		logger.Info("export served from cache", "pages", len(sheets), "formats", opts.Formats)
		return result, nil
	}

	start := time.Now()
	hooks.OnExportStart(ctx, result.ID, len(codes), len(sheets), opts.Formats)
	err := r.run(ctx, logger, hooks, opts, result)
	hooks.OnExportComplete(ctx, result.ID, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "export cancelled")
		}
		return nil, errors.Wrap(errors.ErrCodeExportFailed, err, "export failed")
	}

	r.toCache(ctx, logger, key, result)
	logger.Info("exported label sheets",
		"codes", len(codes),
		"pages", len(sheets),
		"failed_cells", result.Stats.FailedCells,
		"formats", opts.Formats,
		"duration", time.Since(start))
	return result, nil
}

// run renders the pages one after the other and assembles the artifacts.
func (r *Runner) run(ctx context.Context, logger *log.Logger, hooks observability.ExportHooks, opts Options, result *Result) error {
	renderStart := time.Now()
	renderer := r.renderer(opts)

	var pages []image.Image
	if opts.needsRaster() {
		pages = make([]image.Image, 0, len(result.Sheets))
	}
	for i, s := range result.Sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageStart := time.Now()
		cells := render.RenderPage(renderer, s.Labels)
		failed := render.CellErrors(cells)
		for _, msg := range failed {
			logger.Debug("label not rendered", "detail", msg)
		}
		result.CellErrors = append(result.CellErrors, failed...)
		result.Stats.FailedCells += len(failed)

		if opts.needsRaster() {
			img, err := compose.Page(cells, compose.Options{DPI: opts.DPI, Guides: opts.Guides})
			if err != nil {
				return fmt.Errorf("compose page %d: %w", i+1, err)
			}
			pages = append(pages, img)
		}
		hooks.OnPageRendered(ctx, result.ID, i, len(failed), time.Since(pageStart))
		logger.Debug("rendered page", "page", i+1, "of", len(result.Sheets), "duration", time.Since(pageStart))
	}
	result.Stats.RenderTime = time.Since(renderStart)

	assembleStart := time.Now()
	for _, format := range opts.Formats {
		switch format {
		case FormatPDF:
			data, err := sink.RenderPDF(ctx, pages, sink.WithTitle(opts.Prefix))
			if err != nil {
				return fmt.Errorf("render pdf: %w", err)
			}
			result.Artifacts[FormatPDF] = data
		case FormatPNG:
			for i, img := range pages {
				data, err := sink.RenderPNG(img)
				if err != nil {
					return fmt.Errorf("render png page %d: %w", i+1, err)
				}
				result.Artifacts[PNGName(i)] = data
			}
		case FormatJSON:
			data, err := sink.RenderJSON(result.Sheets,
				sink.WithJSONSymbology(opts.Symbology.String()),
				sink.WithJSONGrid(opts.Grid))
			if err != nil {
				return fmt.Errorf("render json: %w", err)
			}
			result.Artifacts[FormatJSON] = data
		}
	}
	result.Stats.AssembleTime = time.Since(assembleStart)
	return nil
}

// cachedExport is what the cache stores for one export.
type cachedExport struct {
	Artifacts  map[string][]byte `json:"artifacts"`
	CellErrors []string          `json:"cell_errors,omitempty"`
	Failed     int               `json:"failed"`
}

func (r *Runner) cacheKey(codes []string, opts Options) string {
	keyer := r.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return keyer.ArtifactKey(cache.HashStrings(codes), cache.ArtifactKeyOpts{
		Format:    strings.Join(opts.Formats, ","),
		Grid:      opts.Grid,
		Symbology: opts.Symbology.String(),
		ShowText:  opts.ShowText,
		DPI:       opts.DPI,
		Preview:   opts.Preview,
		Guides:    opts.Guides,
		Prefix:    opts.Prefix,
	})
}

// fromCache fills result from the cache. Cache errors count as misses.
func (r *Runner) fromCache(ctx context.Context, key string, result *Result) bool {
	data, hit, err := r.cache().Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return false
	}
	var entry cachedExport
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Artifacts) == 0 {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return false
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	result.Artifacts = entry.Artifacts
	result.CellErrors = entry.CellErrors
	result.Stats.FailedCells = entry.Failed
	result.CacheHit = true
	return true
}

// toCache stores result. Failures are logged and otherwise ignored.
func (r *Runner) toCache(ctx context.Context, logger *log.Logger, key string, result *Result) {
	data, err := json.Marshal(cachedExport{
		Artifacts:  result.Artifacts,
		CellErrors: result.CellErrors,
		Failed:     result.Stats.FailedCells,
	})
	if err != nil {
		return
	}
	if err := r.cache().Set(ctx, key, data, cache.TTLArtifact); err != nil {
		logger.Warn("could not cache export", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(data))
}

func (r *Runner) renderer(opts Options) render.Renderer {
	if r.NewRenderer != nil {
		return r.NewRenderer(opts)
	}
	return render.BarcodeRenderer{
		Symbology: opts.Symbology,
		Scale:     opts.Grid.CodeScale,
		ShowText:  opts.ShowText,
	}
}

func (r *Runner) cache() cache.Cache {
	if r.Cache == nil {
		return cache.NewNullCache()
	}
	return r.Cache
}

func (r *Runner) hooks() observability.ExportHooks {
	if r.Hooks != nil {
		return r.Hooks
	}
	return observability.Export()
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
