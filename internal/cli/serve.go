package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/internal/server"
	"github.com/matzehuels/labelsheet/pkg/config"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/offline"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/render"
)

// shutdownTimeout bounds how long in-flight requests may finish on exit.
const shutdownTimeout = 10 * time.Second

type serveOpts struct {
	addr    string
	baseURL string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the label sheet export over HTTP",
		Long: `Serve starts an HTTP server exposing the export pipeline.

  GET  /healthz                    liveness
  GET  /api/presets                preset catalog
  GET  /api/check-digit/{digits}   EAN-13 check digit
  POST /api/import                 read codes from an uploaded workbook
  POST /api/sheets                 export a sheet (409 while another export runs)
  GET  /assets/*                   editor assets, cached for offline use

Assets are only served when a base URL is configured. They are fetched once
at start-up and then served from the offline cache.`,
		Example: `  labelsheet serve --addr :8080
  labelsheet serve --base-url https://labels.example.com/app/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "origin of the editor assets to cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()
	cfg := c.settings()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	defaults, err := serverDefaults(cfg)
	if err != nil {
		return err
	}
	srv := server.New(runner, cfg.Catalog(), defaults, logger)

	baseURL := firstNonEmpty(opts.baseURL, cfg.Offline.BaseURL)
	if baseURL != "" {
		worker, err := c.offlineWorker(ctx, baseURL)
		if err != nil {
			return err
		}
		srv.Assets = worker.Handler()
	}

	addr := firstNonEmpty(opts.addr, cfg.Server.Addr)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpServer.ListenAndServe() }()
	out := cmd.ErrOrStderr()
	printSuccess(out, "Listening on %s", StyleLink.Render("http://"+addr))
	if baseURL != "" {
		printKeyValue(out, "Assets", baseURL)
	}

	select {
	case err := <-errc:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// serverDefaults builds the export options every request starts from.
// They are left unvalidated so request values are checked on export.
func serverDefaults(cfg *config.Config) (pipeline.Options, error) {
	grid, err := cfg.Grid()
	if err != nil {
		return pipeline.Options{}, err
	}
	sym, err := render.ParseSymbology(cfg.Defaults.Symbology)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Grid:      grid,
		Symbology: sym,
		ShowText:  cfg.Defaults.ShowText,
		Prefix:    cfg.Defaults.Prefix,
		DPI:       cfg.Defaults.DPI,
	}, nil
}

// offlineWorker installs the configured manifest from baseURL and activates
// it. A failed install is logged and the worker falls back to the network.
func (c *CLI) offlineWorker(ctx context.Context, baseURL string) (*offline.Worker, error) {
	cfg := c.settings()
	logger := loggerFromContext(ctx)

	fetcher, err := offline.NewHTTPFetcher(baseURL)
	if err != nil {
		return nil, err
	}
	store, err := c.offlineStore(ctx)
	if err != nil {
		return nil, err
	}

	worker := offline.NewWorker(cfg.Manifest(), store, fetcher, logger)
	if err := worker.Install(ctx); err != nil {
		logger.Warn("offline assets unavailable, serving from network", "err", errors.UserMessage(err))
		return worker, nil
	}
	dropped, err := worker.Activate(ctx)
	if err != nil {
		logger.Warn("could not remove old asset caches", "err", err)
	}
	logger.Info("offline assets installed", "cache", worker.Manifest.Name, "assets", len(worker.Manifest.Assets), "dropped", len(dropped))
	return worker, nil
}

// offlineStore opens the configured offline asset store.
func (c *CLI) offlineStore(ctx context.Context) (offline.Store, error) {
	cfg := c.settings()
	switch cfg.Offline.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", cfg.Cache.RedisAddr)
		}
		return offline.NewRedisStore(client, offline.DefaultRedisPrefix), nil
	case config.StoreDir:
		dir := cfg.Offline.Dir
		if dir == "" {
			base, err := c.cacheDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "offline")
		}
		return offline.NewDirStore(dir)
	default:
		return offline.NewMemoryStore(), nil
	}
}
