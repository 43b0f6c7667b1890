// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/matrixrun/matrixrun/pkg/platform"
)

// DefaultRetries is the retry budget of the default HTTP client.
const DefaultRetries = 3

// ErrDownload is the sentinel error wrapped by DownloadError.
var ErrDownload = errors.New("extension download failed")

type (
	// DownloadError reports a failed extension download.
	DownloadError struct {
		URL    string
		Status int
		Err    error
	}

	// Fetcher ensures the extension for the current host is present in a
	// cache directory. A Fetcher is not safe for concurrent use by several
	// processes sharing one cache directory.
	Fetcher struct {
		httpClient *http.Client
		baseURL    string
		cacheDir   string
		host       platform.Host
		retries    int
	}

	// Option configures a Fetcher during construction.
	Option func(*Fetcher)
)

// Error implements the error interface.
func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("downloading %s: %v", redactURL(e.URL), e.Err)
	}
	return fmt.Sprintf("downloading %s: unexpected status %d", redactURL(e.URL), e.Status)
}

// Unwrap returns ErrDownload so both the sentinel and the cause match.
func (e *DownloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDownload, e.Err}
	}
	return []error{ErrDownload}
}

// WithHTTPClient sets the client used for the download, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithBaseURL overrides the release directory the asset is fetched from.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) {
		f.baseURL = base
	}
}

// WithCacheDir sets the directory the extension is stored in.
func WithCacheDir(dir string) Option {
	return func(f *Fetcher) {
		f.cacheDir = dir
	}
}

// WithHost overrides host detection.
func WithHost(h platform.Host) Option {
	return func(f *Fetcher) {
		f.host = h
	}
}

// WithRetries sets the retry budget of the default HTTP client.
// It has no effect when combined with WithHTTPClient.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		f.retries = n
	}
}

// NewFetcher creates a Fetcher. Defaults: DefaultBaseURL, the working
// directory as cache, the current host and a retrying HTTP client.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL:  DefaultBaseURL,
		cacheDir: ".",
		host:     platform.Current(),
		retries:  DefaultRetries,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = newRetryingClient(f.retries)
	}
	return f
}

// Ensure makes the extension available in the cache directory and returns its
// logical name. Unsupported hosts return ok=false with no error. An existing
// file is trusted as-is; there is no checksum or expiry check.
func (f *Fetcher) Ensure(ctx context.Context) (name string, ok bool, err error) {
	asset, supported := Resolve(f.baseURL, f.host)
	if !supported {
		slog.Debug("no sqlite extension for host", "host", f.host.String())
		return "", false, nil
	}

	dest := filepath.Join(f.cacheDir, asset.File)
	if _, statErr := os.Stat(dest); statErr == nil {
		return asset.Name(), true, nil
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return "", false, fmt.Errorf("checking cached extension: %w", statErr)
	}

	slog.Info("downloading sqlite extension", "url", redactURL(asset.URL), "dest", dest)
	if err := f.download(ctx, asset.URL, dest); err != nil {
		return "", false, err
	}
	return asset.Name(), true, nil
}

// download fetches assetURL into a temp file next to dest and renames it into
// place, so an interrupted download never leaves a truncated dest behind.
func (f *Fetcher) download(ctx context.Context, assetURL, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &DownloadError{URL: assetURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: assetURL, Status: resp.StatusCode}
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.cacheDir, "matrixrun-extension-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, copyErr := io.Copy(tmp, resp.Body); copyErr != nil {
		_ = tmp.Close()
		return &DownloadError{URL: assetURL, Err: copyErr}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("moving extension into place: %w", err)
	}
	return nil
}

func newRetryingClient(retries int) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.Logger = slog.Default()
	return c.StandardClient()
}

// redactURL strips query parameters and fragments for inclusion in messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
