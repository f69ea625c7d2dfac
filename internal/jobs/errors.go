package jobs

import "errors"

// ErrValidation marks malformed search requests (empty role, or no known
// platform left after filtering). Surfaced to callers as a 400.
var ErrValidation = errors.New("invalid search request")

// ErrRateLimited marks requests rejected by the sliding-window limiter.
// Surfaced to callers as a 429.
var ErrRateLimited = errors.New("rate limit exceeded")
