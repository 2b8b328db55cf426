package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/service"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// FavoriteHandler handles the signed-in user's favorites.
type FavoriteHandler struct {
	service *service.FavoriteService
	catalog Catalog
	logger  *slog.Logger
}

// NewFavoriteHandler creates a new favorites HTTP handler.
func NewFavoriteHandler(svc *service.FavoriteService, catalog Catalog, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{service: svc, catalog: catalog, logger: logger}
}

// FavoriteStatus is the favorite flag of one book.
type FavoriteStatus struct {
	BookID   string `json:"book_id"`
	Favorite bool   `json:"favorite"`
}

// ListFavorites handles GET /api/v1/me/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListFavorites(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(books, ""))
}

// StreamFavorites handles GET /api/v1/me/favorites/stream. Each "favorites"
// event carries the whole list.
func (h *FavoriteHandler) StreamFavorites(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.SubscribeFavorites(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	stream(w, r, sub, "favorites", h.logger)
}

// GetFavorite handles GET /api/v1/me/favorites/{bookId}
func (h *FavoriteHandler) GetFavorite(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	ok, err := h.service.IsFavorite(r.Context(), sessionFrom(r).UserID, bookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, FavoriteStatus{BookID: bookID, Favorite: ok})
}

// AddFavorite handles PUT /api/v1/me/favorites/{bookId}. The body is the
// book snapshot to keep; without a body the snapshot is read from the
// catalog.
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	book, err := h.snapshot(r, bookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	created, err := h.service.AddFavorite(r.Context(), sessionFrom(r), *book)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteData(w, status, FavoriteStatus{BookID: bookID, Favorite: true})
}

// RemoveFavorite handles DELETE /api/v1/me/favorites/{bookId}
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.RemoveFavorite(r.Context(), sessionFrom(r), chi.URLParam(r, "bookId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite handles POST /api/v1/me/favorites/toggle with the book
// snapshot as body.
func (h *FavoriteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var book domain.BookSnapshot
	if err := validator.DecodeAndValidate(r, &book); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	on, err := h.service.ToggleFavorite(r.Context(), sessionFrom(r), book)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, FavoriteStatus{BookID: book.ID, Favorite: on})
}

func (h *FavoriteHandler) snapshot(r *http.Request, bookID string) (*domain.BookSnapshot, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, validator.MaxBodyBytes))
	if err != nil {
		return nil, apperrors.InvalidInput("unreadable request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return h.catalog.GetBook(r.Context(), bookID)
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	var book domain.BookSnapshot
	if err := validator.DecodeAndValidate(r, &book); err != nil {
		return nil, err
	}
	if book.ID != bookID {
		return nil, apperrors.Validation("id", "must match the book in the path")
	}
	return &book, nil
}
