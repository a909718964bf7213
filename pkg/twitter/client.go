package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Zxoir/twitter-month-archiver/pkg/config"
	"github.com/Zxoir/twitter-month-archiver/pkg/errors"
	"github.com/Zxoir/twitter-month-archiver/pkg/logger"
	"github.com/Zxoir/twitter-month-archiver/pkg/ratelimit"
	"github.com/Zxoir/twitter-month-archiver/pkg/retry"
)

// Client is an authenticated X API v2 client. All calls go through the
// rate-limited gateway in gateway.go.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bearer     string
	limits     config.RateLimitConfig
	tracker    *ratelimit.Tracker
	pacer      *rate.Limiter
	logger     logger.Logger

	// overridable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new X API client
func NewClient(api config.APIConfig, limits config.RateLimitConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := api.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	perSecond := rate.Limit(float64(limits.RequestsPerMinute) / 60.0)
	return &Client{
		httpClient: &http.Client{Timeout: api.Timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		bearer:     api.BearerToken,
		limits:     limits,
		tracker:    ratelimit.NewTracker(),
		pacer:      rate.NewLimiter(perSecond, 1),
		logger:     log,
		now:        time.Now,
		sleep:      retry.Wait,
	}
}

// LookupUser resolves a handle (without the @ sigil) to its account identity
func (c *Client) LookupUser(ctx context.Context, handle string) (*AccountIdentity, error) {
	u := UserLookupURL(c.baseURL, handle)

	c.logger.DebugWithFields("looking up user", map[string]interface{}{
		"handle": handle,
	})

	var resp userLookupResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	if resp.Data.ID == "" {
		// The API reports unknown handles as a 200 with an errors block
		for _, apiErr := range resp.Errors {
			if strings.Contains(apiErr.Title, "Not Found") {
				return nil, errors.New(errors.ErrorTypeNotFound,
					fmt.Sprintf("account %q does not exist: %s", handle, apiErr.Detail),
					http.StatusNotFound)
			}
		}
		return nil, errors.New(errors.ErrorTypeParsing,
			fmt.Sprintf("user lookup for %q returned no id", handle), 0)
	}

	return &AccountIdentity{Handle: handle, ID: resp.Data.ID}, nil
}

// FetchTimeline fetches one page of a user's timeline
func (c *Client) FetchTimeline(ctx context.Context, userID string, q TimelineQuery) (*TimelineResponse, error) {
	u := TimelineURL(c.baseURL, userID, q)

	c.logger.DebugWithFields("fetching timeline page", map[string]interface{}{
		"user_id": userID,
		"cursor":  q.PaginationToken,
	})

	var resp TimelineResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest issues a single HTTP GET with auth headers. Transport failures
// come back as typed network errors.
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown,
			fmt.Sprintf("failed to create request: %v", err), 0)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("User-Agent", "xarchive/1.0")
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		return nil, errors.New(errors.ErrorTypeNetwork,
			fmt.Sprintf("network error: %v", err), 0)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})
	return resp, nil
}

// checkResponseStatus maps a non-retryable response status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) *errors.Error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.New(errors.ErrorTypeAuth,
			"invalid or expired credentials", resp.StatusCode)
	case http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound,
			"resource not found", resp.StatusCode)
	case http.StatusTooManyRequests:
		return errors.New(errors.ErrorTypeRateLimit,
			"rate limit exceeded", resp.StatusCode)
	default:
		if resp.StatusCode >= 500 {
			return errors.New(errors.ErrorTypeServerError,
				fmt.Sprintf("server returned status %d", resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return errors.New(errors.ErrorTypeUnknown,
				fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
		}
		return nil
	}
}
