package ratelimit

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	reset := time.Now().Add(10 * time.Minute).Unix()

	h := http.Header{}
	h.Set("x-rate-limit-remaining", "42")
	h.Set("x-rate-limit-reset", strconv.FormatInt(reset, 10))

	b := ParseHeaders(h)
	assert.True(t, b.Known)
	assert.Equal(t, 42, b.Remaining)
	assert.Equal(t, time.Unix(reset, 0).UTC(), b.ResetAt)
	assert.False(t, b.Exhausted())
}

func TestParseHeadersAbsent(t *testing.T) {
	b := ParseHeaders(http.Header{})
	assert.False(t, b.Known)
	assert.False(t, b.Exhausted())
}

func TestParseHeadersExhausted(t *testing.T) {
	h := http.Header{}
	h.Set("x-rate-limit-remaining", "0")
	h.Set("x-rate-limit-reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

	b := ParseHeaders(h)
	assert.True(t, b.Exhausted())
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("retry-after", "2")

	d, ok := RetryAfter(h)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}

func TestRetryAfterMissingOrInvalid(t *testing.T) {
	_, ok := RetryAfter(http.Header{})
	assert.False(t, ok)

	h := http.Header{}
	h.Set("retry-after", "soon")
	_, ok = RetryAfter(h)
	assert.False(t, ok)

	h.Set("retry-after", "-3")
	_, ok = RetryAfter(h)
	assert.False(t, ok)
}

func TestTrackerWaitDuration(t *testing.T) {
	now := time.Now()
	tracker := NewTracker()

	// Nothing observed yet
	assert.Equal(t, time.Duration(0), tracker.WaitDuration(now))

	// Budget left
	tracker.Observe(Budget{Known: true, Remaining: 5, ResetAt: now.Add(time.Minute)})
	assert.Equal(t, time.Duration(0), tracker.WaitDuration(now))

	// Exhausted with a future reset: wait until reset plus slack
	tracker.Observe(Budget{Known: true, Remaining: 0, ResetAt: now.Add(30 * time.Second)})
	assert.Equal(t, 31*time.Second, tracker.WaitDuration(now))

	// Exhausted but reset already passed
	tracker.Observe(Budget{Known: true, Remaining: 0, ResetAt: now.Add(-time.Second)})
	assert.Equal(t, time.Duration(0), tracker.WaitDuration(now))
}

func TestTrackerIgnoresUnknown(t *testing.T) {
	now := time.Now()
	tracker := NewTracker()
	tracker.Observe(Budget{Known: true, Remaining: 0, ResetAt: now.Add(time.Minute)})
	tracker.Observe(Budget{}) // response without headers must not clear state

	assert.True(t, tracker.Budget().Exhausted())
}
