package domain

import "time"

// FavoriteEntry records that a user favorited a book. Book is the catalog
// record as it was when the entry was created and is never refreshed.
type FavoriteEntry struct {
	UserID    string       `json:"user_id"`
	BookID    string       `json:"book_id"`
	Book      BookSnapshot `json:"book"`
	CreatedAt time.Time    `json:"created_at"`
}

// FavoritesView is the full favorites list of one user, newest first.
type FavoritesView struct {
	UserID string         `json:"user_id"`
	Books  []BookSnapshot `json:"books"`
}

// Contains reports whether bookID is in the view. Every screen showing a
// book derives its favorite flag from the same view.
func (v FavoritesView) Contains(bookID string) bool {
	for i := range v.Books {
		if v.Books[i].ID == bookID {
			return true
		}
	}
	return false
}
