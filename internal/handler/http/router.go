package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/service"
	"github.com/utafrali/BookReviewGo/pkg/health"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// Catalog is the read-only books catalog.
type Catalog interface {
	FetchByCategory(ctx context.Context, category, pageToken string) (*domain.CatalogPage, error)
	Search(ctx context.Context, query string, startIndex int) (*domain.CatalogPage, error)
	GetBook(ctx context.Context, id string) (*domain.BookSnapshot, error)
}

// Services bundles what the handlers call into.
type Services struct {
	Reviews   *service.ReviewService
	Favorites *service.FavoriteService
	Profiles  *service.ProfileService
	Catalog   Catalog
}

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	ServiceName       string
	CORS              middleware.CORSConfig
	RateLimit         middleware.RateLimitConfig
	ValidateToken     middleware.TokenValidator
	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// Static lists change only with a deploy.
const staticMaxAge = 3600

func init() {
	if err := validator.RegisterStringRule("category", "must be a known category", domain.IsCategory); err != nil {
		panic(err)
	}
}

// NewRouter creates a chi router with all book review routes registered.
func NewRouter(cfg RouterConfig, svc Services, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	bookHandler := NewBookHandler(svc.Catalog, logger)
	reviewHandler := NewReviewHandler(svc.Reviews, logger)
	favoriteHandler := NewFavoriteHandler(svc.Favorites, svc.Catalog, logger)
	profileHandler := NewProfileHandler(svc.Profiles, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.ValidateToken, logger))
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(staticMaxAge))
			r.Get("/categories", profileHandler.ListCategories)
			r.Get("/avatars", profileHandler.ListAvatars)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", bookHandler.ListByCategory)
			r.Get("/search", bookHandler.Search)
			r.Get("/{bookId}", bookHandler.GetBook)

			r.Get("/{bookId}/reviews", reviewHandler.ListReviews)
			r.Get("/{bookId}/reviews/stream", reviewHandler.StreamReviews)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(logger))
				r.Use(middleware.NoStore)
				r.Get("/{bookId}/reviews/mine", reviewHandler.MyReview)
				r.Post("/{bookId}/reviews", reviewHandler.SubmitReview)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logger))
			r.Put("/{reviewId}", reviewHandler.EditReview)
			r.Delete("/{reviewId}", reviewHandler.DeleteReview)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.RequireAuth(logger))
			r.Use(middleware.NoStore)

			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpdateProfile)

			r.Get("/favorites", favoriteHandler.ListFavorites)
			r.Get("/favorites/stream", favoriteHandler.StreamFavorites)
			r.Post("/favorites/toggle", favoriteHandler.ToggleFavorite)
			r.Get("/favorites/{bookId}", favoriteHandler.GetFavorite)
			r.Put("/favorites/{bookId}", favoriteHandler.AddFavorite)
			r.Delete("/favorites/{bookId}", favoriteHandler.RemoveFavorite)
		})
	})

	return r
}
