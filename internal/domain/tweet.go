package domain

// TweetID is a unique identifier for a tweet.
type TweetID string

// String returns the string representation of the TweetID.
func (id TweetID) String() string {
	return string(id)
}

// Origin identifies who asked for media and where answers go.
type Origin struct {
	UserID    int64
	ChatID    int64
	MessageID int
}

// DispatchMode selects how resolved media is handed to the transport.
type DispatchMode string

const (
	// ModeCommandReply sends every asset of every tweet as chat replies.
	ModeCommandReply DispatchMode = "command_reply"
	// ModeInlineQuery answers with the first tweet that yields any media.
	ModeInlineQuery DispatchMode = "inline_query"
)

// InlineResultKind is the representation of one inline answer entry.
type InlineResultKind string

const (
	InlineResultPhoto   InlineResultKind = "photo"
	InlineResultGIF     InlineResultKind = "gif"
	InlineResultVideo   InlineResultKind = "video"
	InlineResultArticle InlineResultKind = "article"
)

// InlineResult is a transport-neutral inline query answer.
type InlineResult struct {
	Kind         InlineResultKind `json:"kind"`
	ID           string           `json:"id"`
	URL          string           `json:"url,omitempty"`
	ThumbnailURL string           `json:"thumbnail_url,omitempty"`
	Title        string           `json:"title,omitempty"`
	Text         string           `json:"text,omitempty"`
}
