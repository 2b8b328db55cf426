package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/BookReviewGo/internal/aggregate"
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/service"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ReviewRequest is the JSON body for submitting or editing a review.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Text   string `json:"text" validate:"min=6,max=1000"`
}

// MyReviewResponse tells a book screen whether to offer the review form.
type MyReviewResponse struct {
	Reviewed bool           `json:"reviewed"`
	Review   *domain.Review `json:"review,omitempty"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	order, err := aggregate.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view, err := h.service.BookReviews(r.Context(), chi.URLParam(r, "bookId"), order)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// StreamReviews handles GET /api/v1/books/{bookId}/reviews/stream. Each
// "reviews" event carries the full view of the book.
func (h *ReviewHandler) StreamReviews(w http.ResponseWriter, r *http.Request) {
	order, err := aggregate.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	sub, err := h.service.SubscribeBook(r.Context(), chi.URLParam(r, "bookId"), order)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	stream(w, r, sub, "reviews", h.logger)
}

// MyReview handles GET /api/v1/books/{bookId}/reviews/mine
func (h *ReviewHandler) MyReview(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	review, err := h.service.UserReview(r.Context(), chi.URLParam(r, "bookId"), session.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, MyReviewResponse{Reviewed: review != nil, Review: review})
}

// SubmitReview handles POST /api/v1/books/{bookId}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), sessionFrom(r), chi.URLParam(r, "bookId"), req.Rating, req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, review)
}

// EditReview handles PUT /api/v1/reviews/{reviewId}
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "reviewId", chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	var req ReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.EditReview(r.Context(), sessionFrom(r), id.String(), req.Rating, req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/v1/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, r, "reviewId", chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), sessionFrom(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
