package downloader

import (
	"context"
)

// Prober inspects remote media without downloading it.
type Prober interface {
	// Probe issues a HEAD request and reports whether the URL answers 2xx.
	Probe(ctx context.Context, url string) (*ProbeResult, error)

	// ProbeSize issues a streaming GET, reads only the response headers and
	// returns the declared Content-Length. The body is never read.
	ProbeSize(ctx context.Context, url string) (int64, error)
}

// ProbeResult contains information about a media URL.
type ProbeResult struct {
	StatusCode    int
	ContentType   string
	ContentLength int64
	Accessible    bool
	Error         string
}
