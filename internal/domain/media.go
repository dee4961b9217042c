package domain

import "fmt"

// MediaKind is the declared type of a media asset as reported by the metadata API.
type MediaKind string

const (
	MediaKindPhoto     MediaKind = "image"
	MediaKindAnimation MediaKind = "gif"
	MediaKindVideo     MediaKind = "video"
)

// Media is one asset attached to a tweet. It is implemented only by Photo,
// Animation and Video.
type Media interface {
	Kind() MediaKind
	SourceURL() string
	isMedia()
}

// Photo is a still image.
type Photo struct {
	URL string `json:"url"`
}

// Animation is a looping GIF, delivered as an mp4 by the platform.
type Animation struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Video is a regular video asset.
type Video struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (Photo) Kind() MediaKind     { return MediaKindPhoto }
func (Animation) Kind() MediaKind { return MediaKindAnimation }
func (Video) Kind() MediaKind     { return MediaKindVideo }

func (p Photo) SourceURL() string     { return p.URL }
func (a Animation) SourceURL() string { return a.URL }
func (v Video) SourceURL() string     { return v.URL }

func (Photo) isMedia()     {}
func (Animation) isMedia() {}
func (Video) isMedia()     {}

// NewMedia builds the variant matching kind. Thumbnails are ignored for photos.
func NewMedia(kind MediaKind, url, thumbnailURL string) (Media, error) {
	if url == "" {
		return nil, ErrMissingMediaURL
	}
	switch kind {
	case MediaKindPhoto:
		return Photo{URL: url}, nil
	case MediaKindAnimation:
		return Animation{URL: url, ThumbnailURL: thumbnailURL}, nil
	case MediaKindVideo:
		return Video{URL: url, ThumbnailURL: thumbnailURL}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMediaKind, kind)
	}
}

// MediaBuckets is the partition of one tweet's media by kind.
type MediaBuckets struct {
	Photos     []Photo
	Animations []Animation
	Videos     []Video
}

// Classify partitions media by kind, keeping source order inside each bucket.
func Classify(media []Media) MediaBuckets {
	var b MediaBuckets
	for _, m := range media {
		switch v := m.(type) {
		case Photo:
			b.Photos = append(b.Photos, v)
		case Animation:
			b.Animations = append(b.Animations, v)
		case Video:
			b.Videos = append(b.Videos, v)
		}
	}
	return b
}

// Len returns the total number of assets.
func (b MediaBuckets) Len() int {
	return len(b.Photos) + len(b.Animations) + len(b.Videos)
}

// IsEmpty reports whether the tweet had no media at all.
func (b MediaBuckets) IsEmpty() bool {
	return b.Len() == 0
}
