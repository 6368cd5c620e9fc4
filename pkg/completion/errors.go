package completion

import "fmt"

// RateLimitedError signals that every attempt hit the upstream rate limit.
// RetryAfterMs carries the server's hint, or a fixed fallback.
type RateLimitedError struct {
	RetryAfterMs int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by upstream, retry after %dms", e.RetryAfterMs)
}

// UpstreamError is a non-429 failure from the completion API. The status
// and body are preserved so the caller can proxy them through.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream api error (status %d): %s", e.StatusCode, e.Body)
}
