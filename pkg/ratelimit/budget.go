package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Header names used by the X API for quota signaling
const (
	remainingHeader  = "x-rate-limit-remaining"
	resetHeader      = "x-rate-limit-reset"
	retryAfterHeader = "retry-after"
)

// Budget captures the quota state reported by the last API response.
// It is derived per response and never persisted.
type Budget struct {
	// Remaining is the number of requests left in the current window
	Remaining int
	// ResetAt is when the window resets
	ResetAt time.Time
	// Known reports whether the response carried rate-limit headers at all
	Known bool
}

// Exhausted reports whether the budget forbids another request before reset
func (b Budget) Exhausted() bool {
	return b.Known && b.Remaining <= 0
}

// ParseHeaders extracts the rate budget from response headers
func ParseHeaders(h http.Header) Budget {
	remaining := h.Get(remainingHeader)
	reset := h.Get(resetHeader)
	if remaining == "" && reset == "" {
		return Budget{}
	}

	b := Budget{Known: true}
	if v, err := strconv.Atoi(remaining); err == nil {
		b.Remaining = v
	}
	if v, err := strconv.ParseInt(reset, 10, 64); err == nil {
		b.ResetAt = time.Unix(v, 0).UTC()
	}
	return b
}

// RetryAfter extracts a Retry-After hint in seconds, if present
func RetryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get(retryAfterHeader)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// Tracker remembers the budget from the most recent response so the next
// call can wait out an exhausted quota instead of spending a request to be
// told to wait.
type Tracker struct {
	mu     sync.Mutex
	budget Budget
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records the budget extracted from a response
func (t *Tracker) Observe(b Budget) {
	if !b.Known {
		return
	}
	t.mu.Lock()
	t.budget = b
	t.mu.Unlock()
}

// Budget returns the last observed budget
func (t *Tracker) Budget() Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budget
}

// WaitDuration returns how long to sleep before the next request may be
// issued, or zero when the budget allows one now.
func (t *Tracker) WaitDuration(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.budget.Exhausted() || t.budget.ResetAt.IsZero() {
		return 0
	}
	wait := t.budget.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	// Small slack so we do not race the reset boundary
	return wait + time.Second
}
