package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/BookReviewGo/pkg/httputil"
)

// BookHandler serves catalog reads.
type BookHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewBookHandler creates a new catalog HTTP handler.
func NewBookHandler(catalog Catalog, logger *slog.Logger) *BookHandler {
	return &BookHandler{catalog: catalog, logger: logger}
}

// ListByCategory handles GET /api/v1/books?category=&page_token=
func (h *BookHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.FetchByCategory(r.Context(), q.Get("category"), q.Get("page_token"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(page.Items, page.NextPageToken))
}

// Search handles GET /api/v1/books/search?q=&start_index=
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	start, err := httputil.QueryInt(r, "start_index", 0)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"), start)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(page.Items, page.NextPageToken))
}

// GetBook handles GET /api/v1/books/{bookId}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.GetBook(r.Context(), chi.URLParam(r, "bookId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, book)
}
