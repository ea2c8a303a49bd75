package offline

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/observability"
)

const (
	httpTimeout = 10 * time.Second
	// maxAssetSize bounds a single fetched asset.
	maxAssetSize = 16 << 20
)

// Fetcher retrieves an asset from the network.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Entry, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, ref string) (Entry, error)

func (f FetcherFunc) Fetch(ctx context.Context, ref string) (Entry, error) { return f(ctx, ref) }

// HTTPFetcher fetches assets over HTTP. Relative references are resolved
// against Base.
type HTTPFetcher struct {
	Client *http.Client
	Base   *url.URL
	// MaxSize caps one asset body in bytes; 0 means 16 MiB.
	MaxSize int64
}

// NewHTTPFetcher parses base and returns a fetcher with a bounded timeout.
func NewHTTPFetcher(base string) (*HTTPFetcher, error) {
	if err := errors.ValidateURL(base); err != nil {
		return nil, err
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse base URL")
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: httpTimeout}, Base: u}, nil
}

// Resolve returns the absolute URL for ref.
func (f *HTTPFetcher) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %q", ref)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.Base == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "relative asset %q without a base URL", ref)
	}
	return f.Base.ResolveReference(u).String(), nil
}

// Fetch performs a GET for ref. Any status other than 200 is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (Entry, error) {
	target, err := f.Resolve(ref)
	if err != nil {
		return Entry{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.client().Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return Entry{}, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", target)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, target); err != nil {
		return Entry{}, err
	}
	limit := f.maxSize()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Entry{}, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", target)
	}
	if int64(len(body)) > limit {
		return Entry{}, errors.New(errors.ErrCodeUnsupported, "%s is larger than %d bytes", target, limit)
	}
	return Entry{
		URL:         target,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (f *HTTPFetcher) maxSize() int64 {
	if f.MaxSize > 0 {
		return f.MaxSize
	}
	return maxAssetSize
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func checkStatus(code int, target string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: not found", target)
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d", target, code)
	}
}

var _ Fetcher = (*HTTPFetcher)(nil)
