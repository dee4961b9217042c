package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// DefaultAPIBaseURL is the public vxtwitter metadata endpoint.
const DefaultAPIBaseURL = "https://api.vxtwitter.com"

// Client fetches tweet media metadata and expands t.co links.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a new Twitter client. The client imposes no timeout of its
// own; callers bound every call with their context.
func NewClient(baseURL, userAgent string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		logger:     logger,
	}
}

// statusResponse is the part of the metadata response we use.
type statusResponse struct {
	MediaExtended *[]mediaEntry `json:"media_extended"`
}

type mediaEntry struct {
	Type         string `json:"type"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// FetchMedia retrieves the media attached to a tweet. Every call is a fresh
// round-trip; there is no retry and no cache.
func (c *Client) FetchMedia(ctx context.Context, tweetID domain.TweetID) ([]domain.Media, error) {
	url := fmt.Sprintf("%s/Twitter/status/%s", c.baseURL, tweetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamError{TweetID: tweetID, StatusCode: resp.StatusCode}
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, &domain.ParseError{TweetID: tweetID, Err: fmt.Errorf("decode response: %w", err)}
	}
	if status.MediaExtended == nil {
		return nil, &domain.ParseError{TweetID: tweetID, Err: errors.New("response has no media_extended field")}
	}

	return c.parseMedia(tweetID, *status.MediaExtended), nil
}

func (c *Client) parseMedia(tweetID domain.TweetID, entries []mediaEntry) []domain.Media {
	media := make([]domain.Media, 0, len(entries))
	for i, e := range entries {
		m, err := domain.NewMedia(domain.MediaKind(e.Type), e.URL, e.ThumbnailURL)
		if err != nil {
			c.logger.Warn("skipping media entry",
				"tweet_id", tweetID,
				"index", i,
				"type", e.Type,
				"error", err,
			)
			continue
		}
		media = append(media, m)
	}
	return media
}

// Unshorten follows the redirects of a short link and returns the final URL.
func (c *Client) Unshorten(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Request.URL.String(), nil
}
