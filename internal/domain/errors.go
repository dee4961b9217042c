package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrNoTweetIDs is returned when no tweet links can be found in a text.
	ErrNoTweetIDs = errors.New("no tweet links found")

	// ErrUnknownMediaKind is returned for media types other than image, gif and video.
	ErrUnknownMediaKind = errors.New("unknown media kind")

	// ErrMissingMediaURL is returned when a media descriptor carries no URL.
	ErrMissingMediaURL = errors.New("media URL missing")

	// ErrMissingContentLength is returned when a size probe gets no usable Content-Length.
	ErrMissingContentLength = errors.New("content length missing")

	// ErrUnknownCounter is returned for counter names outside CounterNames.
	ErrUnknownCounter = errors.New("unknown counter")
)

// UpstreamError is returned when the metadata service answers with a failure status.
type UpstreamError struct {
	TweetID    TweetID
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("metadata API error for tweet %s (status %d)", e.TweetID, e.StatusCode)
}

// ParseError is returned when the metadata body is not what we expect.
type ParseError struct {
	TweetID TweetID
	Err     error
}

func (e *ParseError) Error() string {
	return "parse metadata [" + e.TweetID.String() + "]: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError wraps a send rejected by the messaging platform.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{
		Op:  op,
		Err: err,
	}
}

// IsUpstream reports whether err came from the metadata service.
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	var parse *ParseError
	return errors.As(err, &upstream) || errors.As(err, &parse)
}
