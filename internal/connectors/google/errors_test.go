package google

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		retryable bool
	}{
		{"unauthorised", &googleapi.Error{Code: http.StatusUnauthorized}, domain.ErrAuthInvalid, false},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, ErrForbidden, false},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, domain.ErrNotFound, false},
		{"too many requests", &googleapi.Error{Code: http.StatusTooManyRequests}, domain.ErrRateLimited, true},
		{
			"user rate limit",
			&googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			ErrRateLimited, true,
		},
		{"server error", &googleapi.Error{Code: http.StatusBadGateway}, domain.ErrTransient, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)
			assert.ErrorIs(t, wrapped, tt.target)
			assert.Equal(t, tt.retryable, domain.IsRetryable(wrapped))

			var gerr *googleapi.Error
			assert.True(t, errors.As(wrapped, &gerr), "original error stays reachable")
		})
	}

	assert.NoError(t, WrapError(nil))
	plain := errors.New("boom")
	assert.Equal(t, plain, WrapError(plain))
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "12")
	assert.Equal(t, 12*time.Second, RetryAfter(&googleapi.Error{Code: 429, Header: h}))
	assert.Zero(t, RetryAfter(&googleapi.Error{Code: 429}))
	assert.Zero(t, RetryAfter(errors.New("x")))
}
