package service

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// origQualityQuery asks the image CDN for the original upload as JPEG.
const origQualityQuery = "format=jpg&name=orig"

// UpgradePhoto tries the original-quality variant of a photo. Any probe
// failure falls back to the URL the metadata API returned.
func (s *GrabService) UpgradePhoto(ctx context.Context, photo domain.Photo) domain.Decision {
	u, err := url.Parse(photo.URL)
	if err != nil {
		s.logger.Info("photo url not parseable, using original", "url", photo.URL, "error", err)
		return domain.AsIs(photo)
	}
	u.RawQuery = origQualityQuery
	upgraded := u.String()

	probe, err := s.prober.Probe(ctx, upgraded)
	if err != nil || !probe.Accessible {
		s.logger.Info("orig quality not available, using original url", "url", photo.URL)
		return domain.AsIs(photo)
	}

	s.logger.Debug("upgraded photo url", "url", upgraded)
	return domain.Upgraded(photo, upgraded)
}

// upgradePhotos probes every photo concurrently. Results keep input order.
func (s *GrabService) upgradePhotos(ctx context.Context, photos []domain.Photo) []domain.Decision {
	decisions := make([]domain.Decision, len(photos))

	var g errgroup.Group
	for i, p := range photos {
		g.Go(func() error {
			decisions[i] = s.UpgradePhoto(ctx, p)
			return nil
		})
	}
	g.Wait()

	return decisions
}
