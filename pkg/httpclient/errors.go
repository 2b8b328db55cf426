package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// UpstreamErrorResponse is the error body of Google-style JSON APIs.
type UpstreamErrorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns the matching AppError.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Transient(fmt.Errorf("%s returned status %d: read body: %w", upstream, resp.StatusCode, err))
	}

	message := string(body)
	var parsed UpstreamErrorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	return mapStatus(resp.StatusCode, upstream, message)
}

func mapStatus(status int, upstream, message string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream+" resource", message)
	case status == http.StatusTooManyRequests || status >= 500:
		return apperrors.Transient(fmt.Errorf("%s returned status %d: %s", upstream, status, message))
	default:
		return apperrors.Internal(fmt.Errorf("%s returned status %d: %s", upstream, status, message))
	}
}

// MapTransportError converts an error returned by Client or
// CircuitBreakerClient into an AppError.
func MapTransportError(err error, upstream string) error {
	if err == nil {
		return nil
	}
	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return mapStatus(statusErr.Status, upstream, statusErr.Body)
	}
	if errors.Is(err, ErrCircuitOpen) || apperrors.IsTransient(err) {
		return apperrors.Transient(fmt.Errorf("%s: %w", upstream, err))
	}
	return apperrors.Internal(fmt.Errorf("%s: %w", upstream, err))
}
