package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iconidentify/xgrabbot/internal/config"
	"github.com/iconidentify/xgrabbot/internal/domain"
)

// HTTPDownloader implements Prober using plain HTTP requests.
type HTTPDownloader struct {
	// client carries no overall timeout; every call is bounded by its context.
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPDownloader creates a new HTTP-based media prober.
func NewHTTPDownloader(cfg config.ResolverConfig) *HTTPDownloader {
	return &HTTPDownloader{
		client:    &http.Client{},
		userAgent: cfg.UserAgent,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for probe diagnostics.
func (d *HTTPDownloader) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

func (d *HTTPDownloader) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Referer", "https://x.com/")
	return req, nil
}

// Probe checks URL accessibility without downloading content. Transport
// failures are reported through ProbeResult, not as an error.
func (d *HTTPDownloader) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	req, err := d.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &ProbeResult{
			Accessible: false,
			Error:      err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	result := &ProbeResult{
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Accessible:    resp.StatusCode >= 200 && resp.StatusCode <= 299,
	}

	if !result.Accessible {
		result.Error = fmt.Sprintf("status code %d", resp.StatusCode)
	}

	return result, nil
}

// ProbeSize returns the Content-Length a GET for url would deliver.
// Only the headers are read; the body is closed unread.
func (d *HTTPDownloader) ProbeSize(ctx context.Context, url string) (int64, error) {
	req, err := d.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "video/mp4,video/*;q=0.9,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	size := resp.ContentLength
	if size < 0 {
		// Go drops a malformed header from ContentLength; look at the raw value.
		cl := resp.Header.Get("Content-Length")
		if cl == "" {
			return 0, domain.ErrMissingContentLength
		}
		size, err = strconv.ParseInt(cl, 10, 64)
		if err != nil || size < 0 {
			return 0, fmt.Errorf("%w: %q", domain.ErrMissingContentLength, cl)
		}
	}

	d.logger.Debug("probed media size", "url", url, "size", size)
	return size, nil
}
