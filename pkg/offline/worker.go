package offline

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// installConcurrency bounds parallel fetches during Install.
const installConcurrency = 4

// Worker installs a manifest into a store and serves assets from it.
type Worker struct {
	Manifest Manifest
	Store    Store
	Fetcher  Fetcher
	Logger   *log.Logger

	// Attempts and RetryDelay control how often Install retries an asset
	// after a network error. Request-time fetches are never retried.
	Attempts   int
	RetryDelay time.Duration
}

// NewWorker returns a worker. A nil logger discards output.
func NewWorker(m Manifest, store Store, fetcher Fetcher, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Worker{
		Manifest:   m,
		Store:      store,
		Fetcher:    fetcher,
		Logger:     logger,
		Attempts:   defaultAttempts,
		RetryDelay: defaultRetryDelay,
	}
}

// Install fetches every manifest asset and stores them under the manifest's
// cache name. Either all assets are stored or none: if any fetch fails,
// nothing is written, and if a write fails the partial cache is dropped.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.Manifest.Validate(); err != nil {
		return err
	}
	start := time.Now()
	entries := make([]Entry, len(w.Manifest.Assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(installConcurrency)
	for i, ref := range w.Manifest.Assets {
		g.Go(func() error {
			err := retry(gctx, w.Attempts, w.RetryDelay, func() error {
				e, err := w.Fetcher.Fetch(gctx, ref)
				if err != nil {
					w.Logger.Debug("offline fetch failed", "asset", ref, "err", err)
					return err
				}
				entries[i] = e
				return nil
			})
			if err != nil {
				return errors.Wrap(errors.ErrCodeNetwork, err, "install %s", ref)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.Logger.Warn("offline install failed", "cache", w.Manifest.Name, "err", err)
		return err
	}

	for i, ref := range w.Manifest.Assets {
		if err := w.Store.Put(ctx, w.Manifest.Name, Key(ref), entries[i]); err != nil {
			_ = w.Store.Drop(ctx, w.Manifest.Name)
			return errors.Wrap(errors.ErrCodeInternal, err, "store %s", ref)
		}
	}
	w.Logger.Info("offline cache installed",
		"cache", w.Manifest.Name,
		"assets", len(entries),
		"duration", time.Since(start))
	return nil
}

// Activate drops every cache whose name differs from the manifest's and
// returns the dropped names.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	names, err := w.Store.Names(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list caches")
	}
	var dropped []string
	for _, name := range names {
		if name == w.Manifest.Name {
			continue
		}
		if err := w.Store.Drop(ctx, name); err != nil {
			return dropped, errors.Wrap(errors.ErrCodeInternal, err, "drop cache %s", name)
		}
		dropped = append(dropped, name)
		w.Logger.Debug("dropped stale cache", "cache", name)
	}
	if len(dropped) > 0 {
		w.Logger.Info("offline cache activated", "cache", w.Manifest.Name, "dropped", dropped)
	}
	return dropped, nil
}

// Fetch returns the cached entry for ref, or fetches it from the network on
// a miss. The bool reports a cache hit. Network responses are returned as
// they are and not stored. A store error counts as a miss.
func (w *Worker) Fetch(ctx context.Context, ref string) (Entry, bool, error) {
	key := Key(ref)
	e, ok, err := w.Store.Get(ctx, w.Manifest.Name, key)
	if err != nil {
		w.Logger.Debug("offline store read failed", "key", key, "err", err)
	}
	if ok && err == nil {
		return e, true, nil
	}
	e, err = w.Fetcher.Fetch(ctx, relative(key))
	if err != nil {
		return Entry{}, false, err
	}
	return e, false, nil
}

// Handler serves local assets through [Worker.Fetch]. The request path is
// the asset key; mount it behind [http.StripPrefix] when serving under a
// sub-path. Responses carry an X-Cache header of HIT or MISS.
func (w *Worker) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			rw.Header().Set("Allow", "GET, HEAD")
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		key := Key(r.URL.Path)
		if key != "/" {
			if err := errors.ValidateAssetPath(key[1:]); err != nil {
				http.Error(rw, errors.UserMessage(err), http.StatusBadRequest)
				return
			}
		}

		e, hit, err := w.Fetch(r.Context(), key)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, errors.ErrCodeNotFound) {
				status = http.StatusNotFound
			}
			http.Error(rw, errors.UserMessage(err), status)
			return
		}

		h := rw.Header()
		if e.ContentType != "" {
			h.Set("Content-Type", e.ContentType)
		}
		h.Set("Content-Length", strconv.Itoa(len(e.Body)))
		if hit {
			h.Set("X-Cache", "HIT")
		} else {
			h.Set("X-Cache", "MISS")
		}
		rw.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = rw.Write(e.Body)
		}
	})
}
