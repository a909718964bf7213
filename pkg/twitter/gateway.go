package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Zxoir/twitter-month-archiver/pkg/errors"
	"github.com/Zxoir/twitter-month-archiver/pkg/ratelimit"
	"github.com/Zxoir/twitter-month-archiver/pkg/retry"
)

// getJSON executes one logical API call: it waits out an exhausted quota,
// paces the request, retries transparently on rate-limit and transient
// failures, and decodes the response body into target.
//
// Rate-limit retries and transient retries are counted separately so a flaky
// network cannot exhaust the rate-limit budget or vice versa. Backoff state
// lives on the stack of this call; one throttled call never penalizes later
// unrelated calls.
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	if err := c.waitForQuota(ctx); err != nil {
		return err
	}

	rateBackoff := retry.NewExponentialBackoff(c.limits.BaseDelay, c.limits.MaxDelay)
	transientBackoff := retry.NewExponentialBackoff(c.limits.BaseDelay, c.limits.MaxDelay)
	var rateAttempts, transientAttempts int

	for {
		if err := c.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("request pacing cancelled: %w", err)
		}

		resp, err := c.doRequest(ctx, url)
		if err != nil {
			transientAttempts++
			if transientAttempts > c.limits.MaxTransientRetries {
				return fmt.Errorf("max transient retries (%d) exceeded: %w",
					c.limits.MaxTransientRetries, err)
			}
			if werr := c.backoffWait(ctx, "network failure", err,
				transientBackoff.NextDelay(transientAttempts), transientAttempts); werr != nil {
				return werr
			}
			continue
		}

		budget := ratelimit.ParseHeaders(resp.Header)
		c.tracker.Observe(budget)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable:
			drain(resp)
			rateAttempts++
			if rateAttempts > c.limits.MaxRateLimitRetries {
				return errors.New(errors.ErrorTypeRateLimit,
					fmt.Sprintf("rate limited %d times without recovery", rateAttempts-1),
					resp.StatusCode)
			}
			delay := c.rateLimitDelay(resp.Header, budget, rateBackoff, rateAttempts)
			if werr := c.backoffWait(ctx, "rate limited",
				c.checkResponseStatus(resp), delay, rateAttempts); werr != nil {
				return werr
			}
			continue

		case resp.StatusCode >= 500:
			drain(resp)
			transientAttempts++
			if transientAttempts > c.limits.MaxTransientRetries {
				return errors.New(errors.ErrorTypeServerError,
					fmt.Sprintf("server returned %d after %d retries",
						resp.StatusCode, transientAttempts-1), resp.StatusCode)
			}
			if werr := c.backoffWait(ctx, "server error",
				c.checkResponseStatus(resp),
				transientBackoff.NextDelay(transientAttempts), transientAttempts); werr != nil {
				return werr
			}
			continue

		case resp.StatusCode >= 400:
			// Request or auth defect, retrying cannot help
			err := c.checkResponseStatus(resp)
			drain(resp)
			return err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			transientAttempts++
			if transientAttempts > c.limits.MaxTransientRetries {
				return errors.New(errors.ErrorTypeNetwork,
					fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
			}
			if werr := c.backoffWait(ctx, "truncated response", err,
				transientBackoff.NextDelay(transientAttempts), transientAttempts); werr != nil {
				return werr
			}
			continue
		}

		if err := json.Unmarshal(body, target); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse API response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return errors.New(errors.ErrorTypeParsing,
				fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
		}
		return nil
	}
}

// waitForQuota sleeps until the rate window resets when the last response
// reported zero remaining requests. Spending a request just to be told to
// wait would burn quota for nothing.
func (c *Client) waitForQuota(ctx context.Context) error {
	wait := c.tracker.WaitDuration(c.now())
	if wait <= 0 {
		return nil
	}

	c.logger.InfoWithFields("quota exhausted, waiting for window reset", map[string]interface{}{
		"wait": wait.String(),
	})
	if err := c.sleep(ctx, wait); err != nil {
		return fmt.Errorf("quota wait cancelled: %w", err)
	}
	return nil
}

// rateLimitDelay picks the delay for a 429/503: the server's Retry-After
// hint when present (clamped), the reset boundary when the budget is known
// to be spent, and exponential backoff otherwise.
func (c *Client) rateLimitDelay(h http.Header, budget ratelimit.Budget, backoff retry.BackoffStrategy, attempt int) time.Duration {
	if hint, ok := ratelimit.RetryAfter(h); ok {
		if hint > c.limits.MaxRetryAfter {
			hint = c.limits.MaxRetryAfter
		}
		return hint
	}
	if budget.Exhausted() && !budget.ResetAt.IsZero() {
		if until := budget.ResetAt.Sub(c.now()); until > 0 {
			if until > c.limits.MaxRetryAfter {
				until = c.limits.MaxRetryAfter
			}
			return until
		}
	}
	return backoff.NextDelay(attempt)
}

func (c *Client) backoffWait(ctx context.Context, reason string, cause error, delay time.Duration, attempt int) error {
	fields := map[string]interface{}{
		"reason":  reason,
		"attempt": attempt,
		"delay":   delay.String(),
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	c.logger.WarnWithFields("retrying API call", fields)

	if err := c.sleep(ctx, delay); err != nil {
		return fmt.Errorf("retry cancelled: %w", err)
	}
	return nil
}

// drain discards the rest of a response body so the connection can be reused
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
