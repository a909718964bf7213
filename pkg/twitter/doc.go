// Package twitter is an authenticated client for the X API v2 endpoints the
// archiver needs: user lookup by handle and the cursor-paginated user
// timeline.
//
// Every call runs through a rate-limited gateway that honors server-provided
// quota signals (x-rate-limit-remaining, x-rate-limit-reset, Retry-After),
// proactively waits out an exhausted window before spending a request, and
// retries transient failures with call-scoped exponential backoff. Rate-limit
// and transient retries are budgeted independently.
//
// Account IDs and pagination cursors are opaque strings. They are never
// parsed or constructed, only passed through.
package twitter
