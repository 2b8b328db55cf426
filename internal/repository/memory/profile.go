package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/utafrali/BookReviewGo/internal/domain"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// ProfileRepository stores profiles in memory.
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

// NewProfileRepository creates an empty profile repository.
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[string]domain.Profile)}
}

// Get returns a copy of the profile.
func (r *ProfileRepository) Get(_ context.Context, userID string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile", userID)
	}
	p.SelectedCategories = slices.Clone(p.SelectedCategories)
	return &p, nil
}

// Upsert creates or replaces a profile, keeping the original created_at.
func (r *ProfileRepository) Upsert(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *profile
	p.SelectedCategories = slices.Clone(profile.SelectedCategories)
	if existing, ok := r.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	r.profiles[p.UserID] = p
	return nil
}
