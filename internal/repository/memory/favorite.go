package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

type favoriteKey struct {
	userID string
	bookID string
}

type storedFavorite struct {
	entry domain.FavoriteEntry
	seq   uint64
}

// FavoriteRepository stores favorites in memory. Insertion order is kept
// with a sequence number so entries created in the same instant still list
// newest first.
type FavoriteRepository struct {
	mu      sync.RWMutex
	entries map[favoriteKey]storedFavorite
	seq     uint64
}

// NewFavoriteRepository creates an empty favorites repository.
func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{entries: make(map[favoriteKey]storedFavorite)}
}

// Add stores entry unless the pair exists.
func (r *FavoriteRepository) Add(_ context.Context, entry *domain.FavoriteEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey{entry.UserID, entry.BookID}
	if _, ok := r.entries[key]; ok {
		return false, nil
	}
	r.seq++
	r.entries[key] = storedFavorite{entry: *entry, seq: r.seq}
	return true, nil
}

// Remove deletes the pair.
func (r *FavoriteRepository) Remove(_ context.Context, userID, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey{userID, bookID}
	if _, ok := r.entries[key]; !ok {
		return false, nil
	}
	delete(r.entries, key)
	return true, nil
}

// Exists reports whether the pair is stored.
func (r *FavoriteRepository) Exists(_ context.Context, userID, bookID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[favoriteKey{userID, bookID}]
	return ok, nil
}

// ListByUser returns the user's favorites, newest first.
func (r *FavoriteRepository) ListByUser(_ context.Context, userID string) ([]domain.FavoriteEntry, error) {
	r.mu.RLock()
	var stored []storedFavorite
	for key, s := range r.entries {
		if key.userID == userID {
			stored = append(stored, s)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(stored, func(a, b storedFavorite) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	out := make([]domain.FavoriteEntry, len(stored))
	for i := range stored {
		out[i] = stored[i].entry
	}
	return out, nil
}
