package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/sheet"
	"github.com/matzehuels/labelsheet/pkg/source"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	codes      []string // codes given with --code
	output     string   // output directory
	preset     string   // preset name; empty uses the configured default
	symbology  string   // barcode type
	formats    string   // comma-separated output formats
	prefix     string   // file name prefix
	showText   bool     // print the value under linear symbols
	skipHeader bool     // treat spreadsheet row 1 as a header
	preview    bool     // render a placeholder sheet for an empty list
	guides     bool     // draw cell outlines
	dpi        float64  // raster resolution
	noCache    bool     // disable the artifact cache
	refresh    bool     // ignore cached artifacts

	// Grid overrides, applied only when the flag was set.
	columns    int
	rows       int
	marginTop  float64
	marginLeft float64
	rowHeight  float64
	scale      float64
	arrow      string
}

// gridFlags maps grid flag names to the field names understood by
// [sheet.ParseGrid].
var gridFlags = map[string]string{
	"cols":        sheet.FieldColumns,
	"rows":        sheet.FieldRows,
	"margin-top":  sheet.FieldMarginTop,
	"margin-left": sheet.FieldMarginLeft,
	"row-height":  sheet.FieldRowHeight,
	"scale":       sheet.FieldCodeScale,
	"arrow":       sheet.FieldArrow,
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Export codes as label sheets (PDF, PNG, JSON)",
		Long: `Render lays out codes on A4 label sheets and writes the requested formats.

Codes are read from a text file (one per line), an Excel workbook (first
column of the first sheet), --code flags, or stdin when the file is "-".
An imported file takes precedence: --code values are ignored when a file is
given.`,
		Example: `  labelsheet render codes.xlsx --preset avery-l7160 --type ean13
  labelsheet render --code 4006381333931 --code 5901234123457 -f pdf,png -o out/
  seq -w 1 48 | labelsheet render - --type code128 --text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd, input, &opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.codes, "code", nil, "code to print (repeatable)")
	f.StringVarP(&opts.output, "output", "o", ".", "output directory")
	f.StringVarP(&opts.preset, "preset", "p", "", "label sheet preset (see 'labelsheet presets')")
	f.StringVarP(&opts.symbology, "type", "t", "", "barcode type: code128, code39, code93, ean13, ean8, itf, codabar, qrcode, datamatrix")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): pdf, png, json (comma-separated)")
	f.StringVar(&opts.prefix, "prefix", "", "output file name prefix")
	f.BoolVar(&opts.showText, "text", false, "print the value under linear barcodes")
	f.BoolVar(&opts.skipHeader, "skip-header", false, "skip row 1 of spreadsheets")
	f.BoolVar(&opts.preview, "preview", false, "render a sample sheet when there are no codes")
	f.BoolVar(&opts.guides, "guides", false, "draw cell outlines")
	f.Float64Var(&opts.dpi, "dpi", 0, "raster resolution of PNG and PDF pages")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	f.IntVar(&opts.columns, "cols", 0, "labels per row")
	f.IntVar(&opts.rows, "rows", 0, "rows per sheet")
	f.Float64Var(&opts.marginTop, "margin-top", 0, "top margin in mm")
	f.Float64Var(&opts.marginLeft, "margin-left", 0, "left and right margin in mm")
	f.Float64Var(&opts.rowHeight, "row-height", 0, "row height in mm")
	f.Float64Var(&opts.scale, "scale", 0, "barcode scale factor")
	f.StringVar(&opts.arrow, "arrow", "", "orientation arrow: none, up, down, left, right")

	_ = cmd.RegisterFlagCompletionFunc("preset", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, p := range c.settings().Catalog().All() {
			names = append(names, p.Name+"\t"+p.Description)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(render.Symbologies))
		for i, s := range render.Symbologies {
			names[i] = strings.ToLower(s.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runRender loads the codes, runs the export and writes the artifacts.
func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	codes, err := c.loadCodes(ctx, cmd.InOrStdin(), input, opts)
	if err != nil {
		return err
	}
	exportOpts, err := c.exportOptions(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), "Laying out labels...")
	runner.Hooks = &spinnerHooks{spinner: spinner}
	prog := newProgress(logger)
	spinner.Start()
	result, err := runner.Export(ctx, codes, exportOpts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("export finished", "pages", result.Stats.Pages, "cached", result.CacheHit)

	files, err := writeArtifacts(opts.output, exportOpts.Prefix, c.stamp(), result)
	if err != nil {
		return err
	}

	printSuccess(out, "Label sheets ready")
	printStats(out, result.Stats.Codes, result.Stats.Pages, result.Stats.FailedCells, result.CacheHit)
	for _, f := range files {
		printFile(out, f)
	}
	for _, msg := range result.CellErrors {
		printWarning(out, "%s", msg)
	}
	return nil
}

// loadCodes arbitrates between an imported file, stdin and --code values
// through a [source.Store].
func (c *CLI) loadCodes(ctx context.Context, stdin io.Reader, input string, opts *renderOpts) ([]string, error) {
	logger := loggerFromContext(ctx)
	store := source.NewStore()
	skipHeader := opts.skipHeader || c.settings().Defaults.SkipHeader

	switch input {
	case "":
	case "-":
		codes, err := source.ReadLines(stdin)
		if err != nil {
			return nil, store.Fail(err)
		}
		if err := store.Import(codes); err != nil {
			return nil, err
		}
	default:
		codes, err := source.LoadFile(input, source.SpreadsheetOptions{SkipHeader: skipHeader})
		if err != nil {
			return nil, store.Fail(err)
		}
		if err := store.Import(codes); err != nil {
			return nil, err
		}
		logger.Info("imported codes", "file", filepath.Base(input), "count", len(codes))
	}

	if len(opts.codes) > 0 {
		if err := store.SetManual(opts.codes); err != nil {
			logger.Warn("--code values ignored", "reason", errors.UserMessage(err))
		}
	}
	snap := store.Snapshot()
	logger.Debug("code source", "mode", snap.Mode, "count", len(snap.Codes))
	return snap.Codes, nil
}

// exportOptions merges configured defaults with the flags that were set.
func (c *CLI) exportOptions(flags *pflag.FlagSet, opts *renderOpts) (pipeline.Options, error) {
	cfg := c.settings()

	grid, err := cfg.Grid()
	if err != nil {
		return pipeline.Options{}, err
	}
	if opts.preset != "" {
		p, err := cfg.Catalog().Lookup(opts.preset)
		if err != nil {
			return pipeline.Options{}, err
		}
		grid = grid.ApplyPreset(p)
	}
	if flags.Changed("arrow") {
		if _, err := sheet.ParseArrow(opts.arrow); err != nil {
			return pipeline.Options{}, err
		}
	}
	values := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		if field, ok := gridFlags[f.Name]; ok {
			values[field] = f.Value.String()
		}
	})
	grid = sheet.ParseGrid(grid, values)

	symbology := cfg.Defaults.Symbology
	if opts.symbology != "" {
		symbology = opts.symbology
	}
	sym, err := render.ParseSymbology(symbology)
	if err != nil {
		return pipeline.Options{}, err
	}

	formats := parseFormats(opts.formats)
	if len(formats) == 0 {
		formats = cfg.Formats()
	}
	prefix := firstNonEmpty(opts.prefix, cfg.Defaults.Prefix)
	dpi := opts.dpi
	if dpi == 0 {
		dpi = cfg.Defaults.DPI
	}

	o := pipeline.Options{
		Grid:      grid,
		Symbology: sym,
		ShowText:  opts.showText || cfg.Defaults.ShowText,
		Formats:   formats,
		Prefix:    prefix,
		DPI:       dpi,
		Preview:   opts.preview,
		Guides:    opts.guides,
		Refresh:   opts.refresh,
		Logger:    c.Logger,
	}
	if err := o.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return o, nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// stamp returns the timestamp used in output file names.
func (c *CLI) stamp() string {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return strconv.FormatInt(now().UnixMilli(), 10)
}

// writeArtifacts writes every artifact into dir and returns the paths in a
// stable order: pdf, png pages, json.
func writeArtifacts(dir, prefix, stamp string, result *pipeline.Result) ([]string, error) {
	names, err := result.FileNames(prefix, stamp)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", dir)
	}

	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int { return artifactRank(a) - artifactRank(b) })

	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		path := filepath.Join(dir, names[k])
		if err := os.WriteFile(path, result.Artifacts[k], 0o644); err != nil {
			return paths, errors.Wrap(errors.ErrCodeExportFailed, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// artifactRank orders artifacts for display. PNG pages keep their page order.
func artifactRank(key string) int {
	switch key {
	case pipeline.FormatPDF:
		return 0
	case pipeline.FormatJSON:
		return 1 << 20
	}
	var n int
	if _, err := fmt.Sscanf(key, "page-%d.png", &n); err == nil {
		return n
	}
	return 1<<20 - 1
}
