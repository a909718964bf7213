package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the base URL for the X API v2
	DefaultBaseURL = "https://api.x.com/2"

	// tweetFields are the post fields requested on every timeline page
	tweetFields = "id,text,created_at,public_metrics,lang,possibly_sensitive," +
		"in_reply_to_user_id,referenced_tweets,attachments,entities"

	// expansions hydrate referenced objects alongside each page
	expansions = "author_id,attachments.media_keys,referenced_tweets.id"

	userFields  = "id,name,username,verified,created_at"
	mediaFields = "media_key,type,url,width,height,alt_text"
)

// TimelineQuery describes one page request against the timeline endpoint
type TimelineQuery struct {
	StartTime       time.Time
	EndTime         time.Time
	PageSize        int
	PaginationToken string
	ExcludeReplies  bool
	ExcludeRetweets bool
}

// UserLookupURL constructs the URL for resolving a handle to an account ID
func UserLookupURL(baseURL, handle string) string {
	return fmt.Sprintf("%s/users/by/username/%s", baseURL, url.PathEscape(handle))
}

// TimelineURL constructs the URL for one page of a user's timeline
func TimelineURL(baseURL, userID string, q TimelineQuery) string {
	params := url.Values{}
	params.Set("start_time", q.StartTime.UTC().Format(time.RFC3339))
	params.Set("end_time", q.EndTime.UTC().Format(time.RFC3339))
	params.Set("max_results", strconv.Itoa(q.PageSize))
	params.Set("tweet.fields", tweetFields)
	params.Set("expansions", expansions)
	params.Set("user.fields", userFields)
	params.Set("media.fields", mediaFields)

	var excludes []string
	if q.ExcludeReplies {
		excludes = append(excludes, "replies")
	}
	if q.ExcludeRetweets {
		excludes = append(excludes, "retweets")
	}
	if len(excludes) > 0 {
		params.Set("exclude", strings.Join(excludes, ","))
	}

	if q.PaginationToken != "" {
		// The token is opaque; it is passed through exactly as received
		params.Set("pagination_token", q.PaginationToken)
	}

	return fmt.Sprintf("%s/users/%s/tweets?%s", baseURL, url.PathEscape(userID), params.Encode())
}

// SanitizeHandle strips the leading @ sigil and surrounding whitespace
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return handle
}

// IsValidHandle checks a handle against X username rules
func IsValidHandle(handle string) bool {
	if handle == "" || len(handle) > 15 {
		return false
	}
	for _, char := range handle {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}
