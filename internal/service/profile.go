package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/repository"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// ProfileService reads and updates user profiles.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewProfileService creates a profile service.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UpdateProfileInput holds the fields to change. Nil fields are kept.
type UpdateProfileInput struct {
	FullName           *string
	AvatarID           *string
	SelectedCategories []string
}

// GetProfile returns the session user's profile. A user who never saved one
// gets an unsaved profile built from the session.
func (s *ProfileService) GetProfile(ctx context.Context, session domain.Session) (*domain.Profile, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, session.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &domain.Profile{
			UserID:             session.UserID,
			Email:              session.Email,
			SelectedCategories: []string{},
		}, nil
	}
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if profile.Email == "" {
		profile.Email = session.Email
	}
	return profile, nil
}

// UpdateProfile validates input and saves the session user's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, session domain.Session, input UpdateProfileInput) (*domain.Profile, error) {
	profile, err := s.GetProfile(ctx, session)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if n := utf8.RuneCountInString(name); n == 0 || n > domain.MaxFullNameLength {
			return nil, apperrors.Validation("full_name", "must be between 1 and 100 characters")
		}
		profile.FullName = name
	}
	if input.AvatarID != nil {
		if *input.AvatarID != "" {
			if _, ok := domain.LookupAvatar(*input.AvatarID); !ok {
				return nil, apperrors.Validation("avatar_id", "is not a known avatar")
			}
		}
		profile.AvatarID = *input.AvatarID
	}
	if input.SelectedCategories != nil {
		categories, err := canonicalCategories(input.SelectedCategories)
		if err != nil {
			return nil, err
		}
		profile.SelectedCategories = categories
	}

	now := s.now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if session.Email != "" {
		profile.Email = session.Email
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, apperrors.FromStore(err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", profile.UserID))
	return profile, nil
}

// canonicalCategories maps names to their catalog spelling and drops
// duplicates, keeping the first occurrence.
func canonicalCategories(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(domain.Categories, func(c string) bool {
			return strings.EqualFold(c, strings.TrimSpace(name))
		})
		if i < 0 {
			return nil, apperrors.Validation("selected_categories", "contains an unknown category: "+name)
		}
		if !slices.Contains(out, domain.Categories[i]) {
			out = append(out, domain.Categories[i])
		}
	}
	return out, nil
}
