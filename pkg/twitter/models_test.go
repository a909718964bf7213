package twitter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCreatedAt(t *testing.T) {
	p := Post{"id": "1", "created_at": "2024-08-15T09:30:00.000Z"}
	ts, ok := p.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 8, 15, 9, 30, 0, 0, time.UTC), ts)

	_, ok = Post{"id": "2"}.CreatedAt()
	assert.False(t, ok)

	_, ok = Post{"id": "3", "created_at": "yesterday"}.CreatedAt()
	assert.False(t, ok)
}

func TestPostCategoryFlags(t *testing.T) {
	reply := Post{"id": "1", "in_reply_to_user_id": "99"}
	assert.True(t, reply.IsReply())
	assert.False(t, reply.IsRetweet())

	// Flags survive a round trip through encoding/json, which is how pages
	// actually arrive
	raw := `{"id":"2","referenced_tweets":[{"type":"retweeted","id":"5"}]}`
	var retweet Post
	require.NoError(t, json.Unmarshal([]byte(raw), &retweet))
	assert.True(t, retweet.IsRetweet())
	assert.False(t, retweet.IsReply())

	raw = `{"id":"3","referenced_tweets":[{"type":"replied_to","id":"6"}]}`
	var threaded Post
	require.NoError(t, json.Unmarshal([]byte(raw), &threaded))
	assert.True(t, threaded.IsReply())

	plain := Post{"id": "4", "text": "hello"}
	assert.False(t, plain.IsReply())
	assert.False(t, plain.IsRetweet())
}

func TestOldestCreatedAt(t *testing.T) {
	page := &TimelineResponse{Data: []Post{
		{"id": "1", "created_at": "2024-08-20T00:00:00Z"},
		{"id": "2", "created_at": "2024-08-10T00:00:00Z"},
		{"id": "3", "created_at": "2024-08-15T00:00:00Z"},
	}}

	oldest, ok := page.OldestCreatedAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC), oldest)

	empty := &TimelineResponse{}
	_, ok = empty.OldestCreatedAt()
	assert.False(t, ok)
}
