package twitter

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineURL(t *testing.T) {
	q := TimelineQuery{
		StartTime:       time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		PageSize:        100,
		ExcludeReplies:  true,
		ExcludeRetweets: true,
	}

	u, err := url.Parse(TimelineURL("https://api.x.com/2", "12345", q))
	require.NoError(t, err)

	assert.Equal(t, "/2/users/12345/tweets", u.Path)
	params := u.Query()
	assert.Equal(t, "2024-08-01T00:00:00Z", params.Get("start_time"))
	assert.Equal(t, "2024-09-01T00:00:00Z", params.Get("end_time"))
	assert.Equal(t, "100", params.Get("max_results"))
	assert.Equal(t, "replies,retweets", params.Get("exclude"))
	assert.Empty(t, params.Get("pagination_token"))
	assert.Contains(t, params.Get("tweet.fields"), "created_at")
	assert.Contains(t, params.Get("tweet.fields"), "referenced_tweets")
}

func TestTimelineURLCursorOpaque(t *testing.T) {
	q := TimelineQuery{
		StartTime:       time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		PageSize:        10,
		PaginationToken: "7140dibdnow9c7btw482sw5gs2ayewbs",
	}

	u, err := url.Parse(TimelineURL("https://api.x.com/2", "12345", q))
	require.NoError(t, err)
	assert.Equal(t, "7140dibdnow9c7btw482sw5gs2ayewbs", u.Query().Get("pagination_token"))
}

func TestUserLookupURL(t *testing.T) {
	assert.Equal(t,
		"https://api.x.com/2/users/by/username/jack",
		UserLookupURL("https://api.x.com/2", "jack"))
}

func TestSanitizeHandle(t *testing.T) {
	assert.Equal(t, "jack", SanitizeHandle("@jack"))
	assert.Equal(t, "jack", SanitizeHandle("  jack "))
	assert.Equal(t, "jack", SanitizeHandle(" @jack"))
}

func TestIsValidHandle(t *testing.T) {
	assert.True(t, IsValidHandle("jack"))
	assert.True(t, IsValidHandle("some_user42"))
	assert.False(t, IsValidHandle(""))
	assert.False(t, IsValidHandle("way_too_long_for_twitter"))
	assert.False(t, IsValidHandle("no-dashes"))
	assert.False(t, IsValidHandle("@sigil"))
}
