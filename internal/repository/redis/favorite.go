// Package redis implements the favorites store on Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

const keyPrefix = "favorites:"

// addScript stores the entry only when the book is not already a favorite
// and ranks it with the next value of the user's sequence, so entries added
// within the same millisecond keep their insertion order. It returns 1 when
// the entry was created.
var addScript = redis.NewScript(`
if redis.call("HSETNX", KEYS[1], ARGV[1], ARGV[2]) == 1 then
	local seq = redis.call("INCR", KEYS[3])
	redis.call("ZADD", KEYS[2], seq, ARGV[1])
	return 1
end
return 0
`)

// removeScript deletes the entry and its rank. The sequence is dropped with
// the last entry. It returns 1 when an entry was removed.
var removeScript = redis.NewScript(`
local removed = redis.call("HDEL", KEYS[1], ARGV[1])
redis.call("ZREM", KEYS[2], ARGV[1])
if redis.call("HLEN", KEYS[1]) == 0 then
	redis.call("DEL", KEYS[3])
end
return removed
`)

// FavoriteRepository implements repository.FavoriteRepository. Each user
// owns a hash of book id to entry, a sorted set of book ids ranked by
// insertion, and the counter that issues those ranks.
type FavoriteRepository struct {
	client *redis.Client
}

// NewFavoriteRepository creates a Redis-backed favorites repository.
func NewFavoriteRepository(client *redis.Client) *FavoriteRepository {
	return &FavoriteRepository{client: client}
}

// Keys end in distinct fixed suffixes so no user id can produce another
// user's key. The braced hash tag keeps a user's keys in one cluster slot.
func userKeys(userID string) []string {
	tag := keyPrefix + "{" + userID + "}"
	return []string{tag + ":entries", tag + ":order", tag + ":seq"}
}

func entriesKey(userID string) string { return userKeys(userID)[0] }
func orderKey(userID string) string   { return userKeys(userID)[1] }

// Add stores entry unless the book is already a favorite of the user.
func (r *FavoriteRepository) Add(ctx context.Context, entry *domain.FavoriteEntry) (bool, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal favorite: %w", err)
	}

	created, err := addScript.Run(ctx, r.client, userKeys(entry.UserID), entry.BookID, data).Int()
	if err != nil {
		return false, fmt.Errorf("redis add favorite: %w", err)
	}

	return created == 1, nil
}

// Remove deletes the favorite and reports whether it existed.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, bookID string) (bool, error) {
	removed, err := removeScript.Run(ctx, r.client, userKeys(userID), bookID).Int()
	if err != nil {
		return false, fmt.Errorf("redis remove favorite: %w", err)
	}

	return removed == 1, nil
}

// Exists reports whether bookID is a favorite of userID.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	ok, err := r.client.HExists(ctx, entriesKey(userID), bookID).Result()
	if err != nil {
		return false, fmt.Errorf("redis hexists favorite: %w", err)
	}
	return ok, nil
}

// ListByUser returns the favorites of userID, newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	bookIDs, err := r.client.ZRevRange(ctx, orderKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange favorites: %w", err)
	}

	entries := make([]domain.FavoriteEntry, 0, len(bookIDs))
	if len(bookIDs) == 0 {
		return entries, nil
	}

	values, err := r.client.HMGet(ctx, entriesKey(userID), bookIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget favorites: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Removed between the two reads.
			continue
		}
		var entry domain.FavoriteEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal favorite %s: %w", bookIDs[i], err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
