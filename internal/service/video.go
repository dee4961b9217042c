package service

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// ResolveVideo decides whether a video can be sent in-line. Videos up to and
// including the size limit are; larger ones and ones whose size cannot be read
// become direct links.
func (s *GrabService) ResolveVideo(ctx context.Context, video domain.Video) domain.Decision {
	size, err := s.prober.ProbeSize(ctx, video.URL)
	if err != nil {
		s.logger.Info("error occurred when probing video, sending direct link",
			"url", video.URL,
			"error", err,
		)
		return domain.DirectLink(video, domain.ReasonFetchError)
	}

	if size > s.maxVideoSize {
		s.logger.Info("video is too large, sending direct link",
			"url", video.URL,
			"size", humanize.IBytes(uint64(size)),
			"limit", humanize.IBytes(uint64(s.maxVideoSize)),
		)
		d := domain.DirectLink(video, domain.ReasonTooLarge)
		d.Size = size
		return d
	}

	d := domain.AsIs(video)
	d.Size = size
	return d
}
