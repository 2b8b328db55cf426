package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/pkg/database"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// ProfileRepository implements repository.ProfileRepository.
type ProfileRepository struct {
	pool database.DBTX
}

// NewProfileRepository creates a PostgreSQL-backed profile repository.
func NewProfileRepository(pool database.DBTX) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Get returns the profile of userID.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (_ *domain.Profile, err error) {
	query := `
		SELECT user_id, email, full_name, avatar_id, selected_categories, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProfile", query)
	defer func() { end(err) }()

	var (
		p        domain.Profile
		avatarID *string
	)
	err = r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Email,
		&p.FullName,
		&avatarID,
		&p.SelectedCategories,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if avatarID != nil {
		p.AvatarID = *avatarID
	}
	if p.SelectedCategories == nil {
		p.SelectedCategories = []string{}
	}

	return &p, nil
}

// Upsert creates the profile or replaces its mutable fields. created_at is
// kept from the first insert.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) (err error) {
	query := `
		INSERT INTO profiles (user_id, email, full_name, avatar_id, selected_categories, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    full_name = EXCLUDED.full_name,
		    avatar_id = EXCLUDED.avatar_id,
		    selected_categories = EXCLUDED.selected_categories,
		    updated_at = EXCLUDED.updated_at`

	ctx, end := database.TraceQuery(ctx, "UpsertProfile", query)
	defer func() { end(err) }()

	var avatarID *string
	if p.AvatarID != "" {
		avatarID = &p.AvatarID
	}
	categories := p.SelectedCategories
	if categories == nil {
		categories = []string{}
	}

	if _, err = r.pool.Exec(ctx, query,
		p.UserID,
		p.Email,
		p.FullName,
		avatarID,
		categories,
		p.CreatedAt,
		p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}
