package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iconidentify/xgrabbot/internal/domain"
	"github.com/iconidentify/xgrabbot/internal/service"
)

// Resolver extracts tweet IDs from text and dispatches their media.
// Implemented by *service.GrabService.
type Resolver interface {
	ExtractTweetIDs(ctx context.Context, origin domain.Origin, text string) ([]domain.TweetID, error)
	Dispatch(ctx context.Context, req service.DispatchRequest) (*service.DispatchResult, error)
}

// ResolveHandler previews what the bot would answer to an inline query.
type ResolveHandler struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(resolver Resolver, logger *slog.Logger) *ResolveHandler {
	return &ResolveHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// ResolveResponse is the JSON response for GET /api/v1/resolve.
type ResolveResponse struct {
	Query    string           `json:"query"`
	TweetIDs []domain.TweetID `json:"tweet_ids"`
	*service.DispatchResult
}

// Resolve handles GET /api/v1/resolve?q=<text>.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	ctx := r.Context()
	origin := domain.Origin{}

	ids, err := h.resolver.ExtractTweetIDs(ctx, origin, query)
	if err != nil {
		if errors.Is(err, domain.ErrNoTweetIDs) {
			writeError(w, http.StatusNotFound, "no tweet links found")
			return
		}
		h.logger.Error("extract tweet ids failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to extract tweet ids")
		return
	}

	result, err := h.resolver.Dispatch(ctx, service.DispatchRequest{
		Origin:   origin,
		TweetIDs: ids,
		Mode:     domain.ModeInlineQuery,
	})
	if err != nil {
		h.logger.Error("dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve media")
		return
	}

	writeJSON(w, http.StatusOK, ResolveResponse{
		Query:          query,
		TweetIDs:       ids,
		DispatchResult: result,
	})
}
