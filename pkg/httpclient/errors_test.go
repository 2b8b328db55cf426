package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     int
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"Invalid value"}}`, apperrors.ErrInvalidInput, http.StatusBadRequest},
		{"not found", http.StatusNotFound, `not here`, apperrors.ErrNotFound, http.StatusNotFound},
		{"rate limited", http.StatusTooManyRequests, `{}`, apperrors.ErrServiceUnavail, http.StatusServiceUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, apperrors.ErrServiceUnavail, http.StatusServiceUnavailable},
		{"forbidden key", http.StatusForbidden, `{"error":{"code":403,"message":"API key invalid"}}`, apperrors.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "books")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.code, apperrors.HTTPStatus(err))
		})
	}
}

func TestParseResponseError_UsesUpstreamMessage(t *testing.T) {
	err := ParseResponseError(response(http.StatusBadRequest, `{"error":{"code":400,"message":"Invalid value"}}`), "books")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "books: Invalid value", appErr.Message)
}

func TestMapTransportError(t *testing.T) {
	assert.NoError(t, MapTransportError(nil, "books"))

	err := MapTransportError(&UpstreamStatusError{Status: http.StatusServiceUnavailable, Body: "down"}, "books")
	assert.True(t, apperrors.IsTransient(err))

	err = MapTransportError(ErrCircuitOpen, "books")
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))

	err = MapTransportError(errors.New("malformed url"), "books")
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
}
