package github

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v48/github"
	"github.com/stretchr/testify/assert"

	"github.com/dipcp/dipcp/internal/common"
)

func httpResponse(status int, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestIsRateLimitSignal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "typed rate limit error",
			err:  &github.RateLimitError{Message: "API rate limit exceeded"},
			want: true,
		},
		{
			name: "typed abuse rate limit error",
			err:  &github.AbuseRateLimitError{Message: "abuse detection"},
			want: true,
		},
		{
			name: "403 with zero remaining quota",
			err: &github.ErrorResponse{
				Response: httpResponse(http.StatusForbidden, map[string]string{"X-Ratelimit-Remaining": "0"}),
				Message:  "Forbidden",
			},
			want: true,
		},
		{
			name: "403 with retry-after header",
			err: &github.ErrorResponse{
				Response: httpResponse(http.StatusForbidden, map[string]string{"Retry-After": "60"}),
				Message:  "Forbidden",
			},
			want: true,
		},
		{
			name: "plain 403 without quota markers",
			err: &github.ErrorResponse{
				Response: httpResponse(http.StatusForbidden, nil),
				Message:  "Resource not accessible by integration",
			},
			want: false,
		},
		{
			name: "graphql message pattern",
			err:  fmt.Errorf("graphql query failed: API rate limit exceeded for user"),
			want: true,
		},
		{
			name: "secondary message pattern",
			err:  errors.New("you have exceeded a secondary rate limit already exceeded"),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection reset"),
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRateLimitSignal(tt.err))
		})
	}
}

func TestNormalizeError_MapsNotFound(t *testing.T) {
	err := normalizeError(&github.ErrorResponse{
		Response: httpResponse(http.StatusNotFound, nil),
		Message:  "Not Found",
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNormalizeError_MapsUnauthorized(t *testing.T) {
	err := normalizeError(&github.ErrorResponse{
		Response: httpResponse(http.StatusUnauthorized, nil),
		Message:  "Bad credentials",
	})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestNormalizeError_PassesOthersThrough(t *testing.T) {
	orig := &github.ErrorResponse{
		Response: httpResponse(http.StatusBadGateway, nil),
		Message:  "Bad Gateway",
	}
	assert.Equal(t, error(orig), normalizeError(orig))
}

func TestIsRateLimited(t *testing.T) {
	inner := &RateLimitedError{Remaining: 5 * time.Minute}
	assert.True(t, IsRateLimited(inner))
	assert.True(t, IsRateLimited(fmt.Errorf("sync aborted: %w", inner)))
	assert.False(t, IsRateLimited(errors.New("other")))
}

func TestRateLimitedError_Message(t *testing.T) {
	err := &RateLimitedError{Remaining: 90 * time.Second}
	assert.Contains(t, err.Error(), "1m30s")
}
