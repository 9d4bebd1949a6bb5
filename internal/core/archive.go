package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

const (
	defaultHTTPRetryMax = 3
	maxManifestSize     = 1 << 20
)

// ArchiveReader reads files out of application archives.
// Missing files are reported with an error wrapping ErrNotFound.
type ArchiveReader interface {
	ReadFile(ctx context.Context, addr *Address, name string) ([]byte, error)
	// Exists reports an error wrapping ErrNotFound when the archive itself is
	// unknown. Remote archives are assumed to exist until a read fails.
	Exists(ctx context.Context, addr *Address) error
}

// ArchiveRouter dispatches reads to the reader for each address type.
type ArchiveRouter struct {
	local  *LocalArchives
	remote *HTTPArchives
}

// NewArchiveRouter creates a router reading dat:// keys from archivesDir and
// http(s) archives over the network.
func NewArchiveRouter(archivesDir string, httpRetryMax int) *ArchiveRouter {
	return &ArchiveRouter{
		local:  NewLocalArchives(archivesDir),
		remote: NewHTTPArchives(httpRetryMax),
	}
}

// ReadFile implements ArchiveReader.
func (r *ArchiveRouter) ReadFile(ctx context.Context, addr *Address, name string) ([]byte, error) {
	switch addr.Type {
	case AddressDat, AddressLocal:
		return r.local.ReadFile(ctx, addr, name)
	case AddressHTTP:
		return r.remote.ReadFile(ctx, addr, name)
	default:
		return nil, fmt.Errorf("%w: cannot read files from %s", ErrInvalidAddress, addr.URL)
	}
}

// Exists implements ArchiveReader.
func (r *ArchiveRouter) Exists(ctx context.Context, addr *Address) error {
	switch addr.Type {
	case AddressDat, AddressLocal:
		return r.local.Exists(ctx, addr)
	case AddressHTTP:
		return r.remote.Exists(ctx, addr)
	default:
		return fmt.Errorf("%w: %s is not an archive address", ErrInvalidAddress, addr.URL)
	}
}

// LocalArchives reads archives that live on disk: dat:// keys inside the
// archives directory and plain local directories.
type LocalArchives struct {
	archivesDir string
}

// NewLocalArchives creates a reader rooted at archivesDir.
func NewLocalArchives(archivesDir string) *LocalArchives {
	return &LocalArchives{archivesDir: archivesDir}
}

// Dir returns the directory backing addr.
func (r *LocalArchives) Dir(addr *Address) (string, error) {
	switch addr.Type {
	case AddressDat:
		return filepath.Join(r.archivesDir, addr.Key), nil
	case AddressLocal:
		return addr.Path, nil
	default:
		return "", fmt.Errorf("%w: %s is not a local archive", ErrInvalidAddress, addr.URL)
	}
}

// Exists implements ArchiveReader.
func (r *LocalArchives) Exists(ctx context.Context, addr *Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := r.Dir(addr)
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive %s: %w", addr.URL, ErrNotFound)
		}
		return fmt.Errorf("opening archive %s: %w", addr.URL, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive %s: not a directory", addr.URL)
	}
	return nil
}

// ReadFile implements ArchiveReader.
func (r *LocalArchives) ReadFile(ctx context.Context, addr *Address, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := r.Dir(addr)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s in %s: %w", name, addr.URL, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s from %s: %w", name, addr.URL, err)
	}
	return data, nil
}

// HTTPArchives reads archives published over http(s). Requests are retried
// with backoff and guarded by a circuit breaker so an unreachable host fails
// fast after repeated errors.
type HTTPArchives struct {
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPArchives creates a remote reader. retryMax <= 0 uses the default.
func NewHTTPArchives(retryMax int) *HTTPArchives {
	if retryMax <= 0 {
		retryMax = defaultHTTPRetryMax
	}
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	settings := gobreaker.Settings{
		Name:        "archive-http",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}

	return &HTTPArchives{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Exists implements ArchiveReader.
func (r *HTTPArchives) Exists(ctx context.Context, _ *Address) error {
	return ctx.Err()
}

// ReadFile implements ArchiveReader.
func (r *HTTPArchives) ReadFile(ctx context.Context, addr *Address, name string) ([]byte, error) {
	target := strings.TrimSuffix(addr.URL, "/") + "/" + strings.TrimPrefix(name, "/")

	out, err := r.breaker.Execute(func() (interface{}, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", target, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
		case resp.StatusCode >= 300:
			return nil, fmt.Errorf("fetching %s: unexpected status %s", target, resp.Status)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", target, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}
