package twitter

import (
	"regexp"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

var (
	// t.co/<code>, without scheme.
	shortLinkRe = regexp.MustCompile(`t\.co/[a-zA-Z0-9]+`)

	// Any of:
	// https://x.com/user/status/1234567890
	// https://twitter.com/user/statuses/1234567890?s=20
	// https://x.com/i/web/status/1234567890
	tweetIDRe = regexp.MustCompile(`(?:twitter|x)\.com/.{1,15}/(?:web|status(?:es)?)/([0-9]{1,20})`)

	tweetURLRe = regexp.MustCompile(`^https?://(?:www\.)?(?:twitter|x)\.com/[a-zA-Z0-9_]+/(?:status|web)/\d+`)
)

// ShortLinks returns every t.co link in text, scheme stripped, in order of appearance.
func ShortLinks(text string) []string {
	return shortLinkRe.FindAllString(text, -1)
}

// ExtractTweetIDs returns the unique tweet IDs in text in first-seen order.
// It returns nil when there are none.
func ExtractTweetIDs(text string) []domain.TweetID {
	matches := tweetIDRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var ids []domain.TweetID
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, domain.TweetID(m[1]))
	}
	return ids
}

// IsTweetURL reports whether s starts with a canonical tweet URL.
func IsTweetURL(s string) bool {
	return tweetURLRe.MatchString(s)
}
