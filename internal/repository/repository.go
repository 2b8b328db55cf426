// Package repository declares the store interfaces the services depend on.
package repository

import (
	"context"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

// ReviewRepository persists reviews. At most one review may exist per
// (book, user); Create returns a duplicate-review error when one does.
type ReviewRepository interface {
	// Create stores a new review. The ID is assigned by the caller.
	Create(ctx context.Context, review *domain.Review) error

	// Update replaces the rating, text and updated_at of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by id.
	Delete(ctx context.Context, id string) error

	// GetByID returns a review or an error wrapping apperrors.ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Query returns every review matching filter, in no particular order.
	Query(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error)
}

// FavoriteRepository persists favorites keyed by (user, book).
type FavoriteRepository interface {
	// Add stores entry unless the pair already exists and reports whether
	// it did.
	Add(ctx context.Context, entry *domain.FavoriteEntry) (bool, error)

	// Remove deletes the pair and reports whether it existed.
	Remove(ctx context.Context, userID, bookID string) (bool, error)

	// Exists reports whether the pair is stored.
	Exists(ctx context.Context, userID, bookID string) (bool, error)

	// ListByUser returns the user's favorites, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.FavoriteEntry, error)
}

// ProfileRepository persists user profiles.
type ProfileRepository interface {
	// Get returns a profile or an error wrapping apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Profile, error)

	// Upsert creates or replaces a profile.
	Upsert(ctx context.Context, profile *domain.Profile) error
}
