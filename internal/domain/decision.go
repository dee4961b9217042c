package domain

// DecisionKind is the delivery strategy chosen for one asset.
type DecisionKind string

const (
	DecisionAsIs       DecisionKind = "as_is"
	DecisionUpgraded   DecisionKind = "upgraded"
	DecisionDirectLink DecisionKind = "direct_link"
	DecisionNotFound   DecisionKind = "not_found"
)

// Reasons attached to direct-link and not-found decisions.
const (
	ReasonTooLarge       = "too large"
	ReasonFetchError     = "fetch error"
	ReasonTransportError = "transport error"
	ReasonNoMedia        = "no media"
)

// Decision describes how one asset should be delivered.
type Decision struct {
	Kind    DecisionKind `json:"kind"`
	TweetID TweetID      `json:"tweet_id,omitempty"`
	Media   Media        `json:"-"`
	URL     string       `json:"url,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	Size    int64        `json:"size,omitempty"` // bytes, when probed
}

// AsIs delivers the asset at its original location.
func AsIs(m Media) Decision {
	return Decision{Kind: DecisionAsIs, Media: m, URL: m.SourceURL()}
}

// Upgraded delivers the asset from a better-quality location.
func Upgraded(m Media, url string) Decision {
	return Decision{Kind: DecisionUpgraded, Media: m, URL: url}
}

// DirectLink tells the caller to present the raw URL instead of an in-line asset.
func DirectLink(m Media, reason string) Decision {
	return Decision{Kind: DecisionDirectLink, Media: m, URL: m.SourceURL(), Reason: reason}
}

// NotFound records that a tweet produced nothing deliverable.
func NotFound(id TweetID) Decision {
	return Decision{Kind: DecisionNotFound, TweetID: id, Reason: ReasonNoMedia}
}

// Deliverable reports whether the asset can be sent in-line.
func (d Decision) Deliverable() bool {
	return d.Kind == DecisionAsIs || d.Kind == DecisionUpgraded
}
