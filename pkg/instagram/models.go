package instagram

// Provenance identifies the observation channel a payload was captured from
type Provenance string

const (
	// ProvenanceNetworkCapture marks payloads read from intercepted
	// network responses during the profile navigation.
	ProvenanceNetworkCapture Provenance = "network-capture"
	// ProvenanceFallbackFetch marks the payload returned by the explicit
	// in-page request to the profile metadata endpoint.
	ProvenanceFallbackFetch Provenance = "fallback-fetch"
	// ProvenanceEmbeddedScript marks payloads recovered from inline
	// script tags on the rendered page.
	ProvenanceEmbeddedScript Provenance = "embedded-script"
)

// RawObservation is one raw payload captured from a single channel during
// one pipeline run. It lives only until normalization has been attempted.
type RawObservation struct {
	Provenance Provenance
	SourceURL  string
	Payload    map[string]interface{}
}

// Post represents a single normalized timeline entry. Likes, comments and
// timestamp are nil when the source payload carried no such field; caption
// and thumbnail are filled in later by the post detail step.
type Post struct {
	ID        string
	Shortcode string
	Likes     *int
	Comments  *int
	Timestamp *int64
	Caption   *string
	Thumbnail *string
}

// Profile is a normalized user record. Before reconciliation it is a
// candidate; the reconciled record additionally carries the provenance of
// the winning observation.
type Profile struct {
	DisplayName *string
	Username    *string
	ProfilePic  *string
	Followers   *int
	Following   *int
	PostsCount  *int
	Posts       []Post
	Source      string
}

// Analytics holds bounded-sample engagement statistics.
type Analytics struct {
	SampleSize        int      `json:"sample_size"`
	AvgLikes          int      `json:"avg_likes"`
	AvgComments       int      `json:"avg_comments"`
	EngagementRatePct *float64 `json:"engagement_rate_pct"`
}
