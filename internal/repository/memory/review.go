// Package memory implements the repositories in process memory. It backs
// local development and service tests.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/BookReviewGo/internal/domain"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// ReviewRepository stores reviews in a map guarded by a mutex.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]domain.Review
}

// NewReviewRepository creates an empty review repository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{reviews: make(map[string]domain.Review)}
}

// Create stores review unless the user already reviewed the book.
func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.BookID == review.BookID && existing.UserID == review.UserID {
			return apperrors.DuplicateReview(review.BookID)
		}
	}
	if _, ok := r.reviews[review.ID]; ok {
		return apperrors.AlreadyExists("review", "id", review.ID)
	}
	r.reviews[review.ID] = *review
	return nil
}

// Update replaces rating, text and updated_at.
func (r *ReviewRepository) Update(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.reviews[review.ID]
	if !ok {
		return apperrors.NotFound("review", review.ID)
	}
	existing.Rating = review.Rating
	existing.Text = review.Text
	existing.UpdatedAt = review.UpdatedAt
	r.reviews[review.ID] = existing
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}

// GetByID returns a copy of the review.
func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return &rv, nil
}

// Query returns copies of the matching reviews.
func (r *ReviewRepository) Query(_ context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Review{}
	for _, rv := range r.reviews {
		if filter.Matches(&rv) {
			out = append(out, rv)
		}
	}
	return out, nil
}
