package twitter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

// =============================================================================
// Unit Tests - Extract Tweet IDs
// =============================================================================

func TestExtractTweetIDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []domain.TweetID
	}{
		{
			name: "x.com status",
			text: "check https://x.com/alice/status/123456",
			want: []domain.TweetID{"123456"},
		},
		{
			name: "twitter.com statuses with query",
			text: "https://twitter.com/bob_99/statuses/987654321?s=20",
			want: []domain.TweetID{"987654321"},
		},
		{
			name: "i/web/status form",
			text: "https://x.com/i/web/status/1700000000000000000",
			want: []domain.TweetID{"1700000000000000000"},
		},
		{
			name: "repeated id collapses",
			text: "x.com/a/status/1 and again twitter.com/a/status/1 and x.com/b/status/1",
			want: []domain.TweetID{"1"},
		},
		{
			name: "first-seen order",
			text: "x.com/a/status/3 x.com/a/status/1 x.com/a/status/3 x.com/a/status/2",
			want: []domain.TweetID{"3", "1", "2"},
		},
		{
			name: "digits capped at 20",
			text: "x.com/a/status/" + strings.Repeat("9", 25),
			want: []domain.TweetID{domain.TweetID(strings.Repeat("9", 20))},
		},
		{
			name: "other domains ignored",
			text: "https://example.com/alice/status/123 https://bsky.app/profile/x/post/1",
			want: nil,
		},
		{
			name: "no links",
			text: "just chatting",
			want: nil,
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTweetIDs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTweetIDs(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTweetIDs_RepeatedNTimes(t *testing.T) {
	for n := 1; n <= 5; n++ {
		text := strings.Repeat("https://x.com/alice/status/42 ", n)
		got := ExtractTweetIDs(text)
		if len(got) != 1 || got[0] != "42" {
			t.Errorf("n=%d: ExtractTweetIDs = %v, want [42]", n, got)
		}
	}
}

func TestExtractTweetIDs_NilWhenNone(t *testing.T) {
	if got := ExtractTweetIDs("nothing to see"); got != nil {
		t.Errorf("ExtractTweetIDs = %#v, want nil", got)
	}
}

// =============================================================================
// Unit Tests - Short Links and URL validation
// =============================================================================

func TestShortLinks(t *testing.T) {
	text := "look https://t.co/AbC123 and t.co/xyz, not t.com/nope"
	want := []string{"t.co/AbC123", "t.co/xyz"}

	got := ShortLinks(text)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ShortLinks = %v, want %v", got, want)
	}
	if got := ShortLinks("no links"); len(got) != 0 {
		t.Errorf("ShortLinks(no links) = %v, want empty", got)
	}
}

func TestIsTweetURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://x.com/alice/status/123", true},
		{"http://twitter.com/alice_1/status/123?s=20", true},
		{"https://www.twitter.com/alice/status/123", true},
		{"https://x.com/alice/web/123", true},
		{"https://x.com/alice", false},
		{"x.com/alice/status/123", false},
		{"see https://x.com/alice/status/123", false},
		{"https://example.com/alice/status/123", false},
	}

	for _, tt := range tests {
		if got := IsTweetURL(tt.url); got != tt.want {
			t.Errorf("IsTweetURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
