package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/logger"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// Response is the JSON envelope of every endpoint.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps v in the envelope.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError writes the envelope for err. AppErrors keep their code, message
// and field map; validator errors become VALIDATION_ERROR; everything else is
// classified by sentinel. 5xx errors are logged with the request-scoped
// logger when the RequestLogger middleware is mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		err = valErr.AppError()
	}

	body := &ErrorResponse{RequestID: requestID}
	var status int

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Fields = appErr.Fields
	} else {
		status = apperrors.HTTPStatus(err)
		body.Code, body.Message = classify(err)
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.CodeNotFound, "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return apperrors.CodeAlreadyExists, "resource already exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return apperrors.CodeValidation, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		return apperrors.CodeUnauthorized, "authentication required"
	case errors.Is(err, apperrors.ErrForbidden):
		return apperrors.CodeForbidden, "not allowed"
	case apperrors.IsTransient(err):
		return apperrors.CodeUnavailable, "the service is temporarily unavailable, please try again"
	default:
		return apperrors.CodeInternal, "an internal error occurred"
	}
}

// PageResponse is a token-paged list envelope. NextPageToken is empty on the
// last page.
type PageResponse[T any] struct {
	Data          []T    `json:"data"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

// NewPageResponse never returns a nil Data slice.
func NewPageResponse[T any](data []T, next string) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{Data: data, NextPageToken: next}
}

// ParseUUID validates param as a UUID. On failure it writes a 400 and
// returns false so the caller can return early.
func ParseUUID(w http.ResponseWriter, r *http.Request, name, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteError(w, r, apperrors.Validation(name, "must be a valid UUID"), slog.Default())
		return uuid.Nil, false
	}
	return id, true
}

// QueryInt reads a non-negative integer query parameter, returning def when
// it is absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.Validation(name, "must be a non-negative integer")
	}
	return n, nil
}
