package domain

import (
	"time"
)

// Review bounds.
const (
	MinRating     = 1
	MaxRating     = 5
	MinTextLength = 6
	MaxTextLength = 1000
)

// Review is one user's rating and text for one book. At most one review may
// exist per (BookID, UserID).
type Review struct {
	ID        string     `json:"id"`
	BookID    string     `json:"book_id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Rating    int        `json:"rating"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// OwnedBy reports whether userID authored the review.
func (r *Review) OwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// ReviewFilter selects reviews. Empty fields do not filter.
type ReviewFilter struct {
	BookID string
	UserID string
}

// Matches reports whether r satisfies the filter.
func (f ReviewFilter) Matches(r *Review) bool {
	if f.BookID != "" && r.BookID != f.BookID {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	return true
}

// AggregateRating is derived from the current review set of a book and is
// never persisted.
type AggregateRating struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Breakdown map[int]int `json:"breakdown"`
	Display   string      `json:"display"`
}

// NoRatingDisplay is shown instead of an average when a book has no reviews.
const NoRatingDisplay = "N/A"

// ReviewView is what a book screen renders: the aggregate plus the reviews
// in the requested order.
type ReviewView struct {
	BookID  string          `json:"book_id"`
	Order   string          `json:"order"`
	Summary AggregateRating `json:"summary"`
	Reviews []Review        `json:"reviews"`
}
