package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v48/github"

	"github.com/dipcp/dipcp/internal/common"
)

// RateLimitedError is returned when the guard blocked a call up front or a
// remote response tripped a violation. Remaining is how long callers must
// wait; retrying earlier is a UI decision, never done by this layer.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("github rate limit exceeded, retry in %s", e.Remaining.Round(time.Second))
}

// IsRateLimited reports whether err is (or wraps) a rate-limited error.
func IsRateLimited(err error) bool {
	var rle *RateLimitedError
	return errors.As(err, &rle)
}

// isRateLimitSignal recognizes the remote's quota-violation shapes: the
// typed go-github errors, a 403 with zero remaining quota or a Retry-After
// header, and the message patterns GraphQL responses use.
func isRateLimitSignal(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		if hasRateLimitMessage(respErr.Message) {
			return true
		}
		if resp := respErr.Response; resp != nil && resp.StatusCode == http.StatusForbidden {
			if resp.Header.Get("X-Ratelimit-Remaining") == "0" || resp.Header.Get("Retry-After") != "" {
				return true
			}
		}
		return false
	}

	return hasRateLimitMessage(err.Error())
}

func hasRateLimitMessage(msg string) bool {
	return strings.Contains(msg, "API rate limit exceeded") ||
		strings.Contains(msg, "rate limit already exceeded")
}

// normalizeError maps a 404 to the shared not-found sentinel and a 401 to
// the unauthorized sentinel so callers can match expected outcomes with
// errors.Is; everything else passes through unchanged.
func normalizeError(err error) error {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", common.ErrNotFound, respErr.Message)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", common.ErrUnauthorized, respErr.Message)
		}
	}
	return err
}
