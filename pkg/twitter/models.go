package twitter

import (
	"time"
)

// AccountIdentity maps a handle to its stable account ID. The ID is opaque:
// upstream IDs can exceed int64 precision, so it is never parsed as a number.
type AccountIdentity struct {
	Handle string `json:"handle"`
	ID     string `json:"id"`
}

// Post is one post as returned by the timeline endpoint. The archiver treats
// it as an opaque record and only inspects the fields needed for windowing
// and inclusion policy.
type Post map[string]interface{}

// ID returns the post's id, or empty when absent
func (p Post) ID() string {
	if v, ok := p["id"].(string); ok {
		return v
	}
	return ""
}

// CreatedAt returns the post's creation timestamp in UTC.
// The second return value is false when the field is absent or unparseable.
func (p Post) CreatedAt() (time.Time, bool) {
	v, ok := p["created_at"].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// IsReply reports whether the post is a reply to another account's post
func (p Post) IsReply() bool {
	if _, ok := p["in_reply_to_user_id"]; ok {
		return true
	}
	return p.hasReferenceType("replied_to")
}

// IsRetweet reports whether the post is a retweet
func (p Post) IsRetweet() bool {
	return p.hasReferenceType("retweeted")
}

func (p Post) hasReferenceType(refType string) bool {
	refs, ok := p["referenced_tweets"].([]interface{})
	if !ok {
		return false
	}
	for _, r := range refs {
		ref, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		if ref["type"] == refType {
			return true
		}
	}
	return false
}

// TimelineMeta is the pagination metadata block of a timeline response
type TimelineMeta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token,omitempty"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
}

// TimelineResponse is one page of a user's timeline
type TimelineResponse struct {
	Data []Post       `json:"data"`
	Meta TimelineMeta `json:"meta"`
}

// OldestCreatedAt returns the oldest created_at on the page.
// Pages arrive newest-first, but this scans all items rather than trusting
// the ordering.
func (r *TimelineResponse) OldestCreatedAt() (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, p := range r.Data {
		ts, ok := p.CreatedAt()
		if !ok {
			continue
		}
		if !found || ts.Before(oldest) {
			oldest = ts
			found = true
		}
	}
	return oldest, found
}

// apiError is one entry of the partial-error block the X API attaches to
// otherwise-successful responses
type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

// userLookupResponse is the body of the user-by-username endpoint
type userLookupResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}
