package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

func setupTestRedis(t *testing.T) (*FavoriteRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewFavoriteRepository(client), mr
}

var base = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func entry(userID, bookID string, offset time.Duration) *domain.FavoriteEntry {
	return &domain.FavoriteEntry{
		UserID:    userID,
		BookID:    bookID,
		Book:      domain.BookSnapshot{ID: bookID, Title: "Title " + bookID, Authors: []string{"Author"}},
		CreatedAt: base.Add(offset),
	}
}

func TestFavoriteRepository_Add_Conditional(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	created, err := repo.Add(ctx, entry("u1", "B1", 0))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Add(ctx, entry("u1", "B1", time.Hour))
	require.NoError(t, err)
	assert.False(t, created)

	assert.True(t, mr.Exists("favorites:{u1}:entries"))
	members, err := mr.ZMembers("favorites:{u1}:order")
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, members)
}

func TestFavoriteRepository_Remove(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, entry("u1", "B1", 0))
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, "u1", "B1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, "u1", "B1")
	require.NoError(t, err)
	assert.False(t, removed)

	assert.False(t, mr.Exists("favorites:{u1}:entries"))
	assert.False(t, mr.Exists("favorites:{u1}:order"))
	assert.False(t, mr.Exists("favorites:{u1}:seq"))
}

func TestFavoriteRepository_Exists(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, entry("u1", "B1", 0))
	require.NoError(t, err)

	ok, err := repo.Exists(ctx, "u1", "B1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "u2", "B1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoriteRepository_ListByUser_NewestFirst(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	for i, id := range []string{"B1", "B2", "B3"} {
		_, err := repo.Add(ctx, entry("u1", id, time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, entry("u2", "B9", 0))
	require.NoError(t, err)

	got, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "B3", got[0].BookID)
	assert.Equal(t, "B2", got[1].BookID)
	assert.Equal(t, "B1", got[2].BookID)
	assert.Equal(t, "Title B1", got[2].Book.Title)
	assert.True(t, got[2].CreatedAt.Equal(base))
}

func TestFavoriteRepository_ListByUser_SameMillisecondKeepsInsertionOrder(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, entry("u1", "zzz", 0))
	require.NoError(t, err)
	_, err = repo.Add(ctx, entry("u1", "aaa", 200*time.Microsecond))
	require.NoError(t, err)
	_, err = repo.Add(ctx, entry("u1", "mmm", 200*time.Microsecond))
	require.NoError(t, err)

	got, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "mmm", got[0].BookID)
	assert.Equal(t, "aaa", got[1].BookID)
	assert.Equal(t, "zzz", got[2].BookID)
}

func TestFavoriteRepository_ReAddMovesToFront(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, id := range []string{"B1", "B2"} {
		_, err := repo.Add(ctx, entry("u1", id, 0))
		require.NoError(t, err)
	}
	_, err := repo.Remove(ctx, "u1", "B1")
	require.NoError(t, err)
	_, err = repo.Add(ctx, entry("u1", "B1", 0))
	require.NoError(t, err)

	got, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B1", got[0].BookID)
	assert.Equal(t, "B2", got[1].BookID)
}

func TestFavoriteRepository_UserIDsDoNotShareKeys(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	ids := []string{"u", "u:order", "u:seq", "u:entries", "u}:order", "{u}"}
	for _, id := range ids {
		created, err := repo.Add(ctx, entry(id, "B-"+id, 0))
		require.NoError(t, err, "user %q", id)
		assert.True(t, created, "user %q", id)
	}

	for _, id := range ids {
		got, err := repo.ListByUser(ctx, id)
		require.NoError(t, err, "user %q", id)
		require.Len(t, got, 1, "user %q", id)
		assert.Equal(t, "B-"+id, got[0].BookID)

		removed, err := repo.Remove(ctx, id, "B-"+id)
		require.NoError(t, err, "user %q", id)
		assert.True(t, removed, "user %q", id)
	}
}

func TestFavoriteRepository_ListByUser_Empty(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFavoriteRepository_ConcurrentAddCreatesOnce(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Add(ctx, entry("u1", "B1", 0))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestFavoriteRepository_Unreachable(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Exists(context.Background(), "u1", "B1")
	assert.ErrorContains(t, err, "redis hexists favorite")
}
