package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrInternal, ErrServiceUnavail, ErrRateLimited,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withInner := &AppError{Code: CodeInternal, Message: "something broke", Err: fmt.Errorf("db connection lost")}
	assert.Contains(t, withInner.Error(), "db connection lost")

	plain := &AppError{Code: CodeNotFound, Message: "review not found"}
	assert.Equal(t, "NOT_FOUND: review not found", plain.Error())
}

func TestValidation(t *testing.T) {
	err := Validation("text", "must be between 6 and 1000 characters")

	require.NotNil(t, err)
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "must be between 6 and 1000 characters", err.Fields["text"])
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDuplicateReview(t *testing.T) {
	err := DuplicateReview("B1")

	assert.Equal(t, CodeDuplicateReview, err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Contains(t, err.Message, "B1")
	assert.True(t, errors.Is(err, ErrAlreadyExists))
}

func TestForbidden(t *testing.T) {
	err := Forbidden("only the author can edit this review")

	assert.Equal(t, CodeForbidden, err.Code)
	assert.Equal(t, http.StatusForbidden, err.Status)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestNotFound(t *testing.T) {
	err := NotFound("review", "rev-1")

	assert.Equal(t, CodeNotFound, err.Code)
	assert.Contains(t, err.Message, "rev-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTransient_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Transient(cause)

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.True(t, errors.Is(err, ErrServiceUnavail))
	assert.True(t, errors.Is(err, cause))
}

func TestFromStore(t *testing.T) {
	assert.Nil(t, FromStore(nil))

	notFound := NotFound("review", "x")
	assert.Same(t, notFound, FromStore(notFound))

	timeout := FromStore(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.True(t, errors.Is(timeout, ErrServiceUnavail))

	netErr := FromStore(&net.OpError{Op: "dial", Err: fmt.Errorf("refused")})
	assert.True(t, errors.Is(netErr, ErrServiceUnavail))

	other := FromStore(fmt.Errorf("syntax error"))
	assert.True(t, errors.Is(other, ErrInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(other))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("rating", "must be between 1 and 5"), http.StatusBadRequest},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"duplicate", DuplicateReview("b"), http.StatusConflict},
		{"wrapped not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"wrapped unavailable", fmt.Errorf("get: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{"rate limited", RateLimited(), http.StatusTooManyRequests},
		{"wrapped rate limited", fmt.Errorf("post: %w", ErrRateLimited), http.StatusTooManyRequests},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
