package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/pkg/database"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var reviewCols = []string{"id", "book_id", "user_id", "username", "rating", "text", "created_at", "updated_at"}

func sampleReview() domain.Review {
	return domain.Review{
		ID:        "rev-1",
		BookID:    "B1",
		UserID:    "user-a",
		Username:  "Ada",
		Rating:    4,
		Text:      "A thoughtful read.",
		CreatedAt: now,
	}
}

func reviewRow(r domain.Review) []any {
	return []any{r.ID, r.BookID, r.UserID, r.Username, r.Rating, r.Text, r.CreatedAt, r.UpdatedAt}
}

func TestReviewRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.BookID, rv.UserID, rv.Username, rv.Rating, rv.Text, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &rv))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_DuplicateReview(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.BookID, rv.UserID, rv.Username, rv.Rating, rv.Text, rv.CreatedAt, rv.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "reviews_book_user_key"})

	err := repo.Create(context.Background(), &rv)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeDuplicateReview, appErr.Code)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_DBError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.BookID, rv.UserID, rv.Username, rv.Rating, rv.Text, rv.CreatedAt, rv.UpdatedAt).
		WillReturnError(errors.New("dial tcp: connection refused"))

	err := repo.Create(context.Background(), &rv)
	assert.ErrorContains(t, err, "insert review")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"success", 1, nil},
		{"not found", 0, apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			defer mock.Close()
			repo := NewReviewRepository(mock)

			rv := sampleReview()
			edited := now.Add(time.Hour)
			rv.Rating, rv.Text, rv.UpdatedAt = 2, "Changed my mind.", &edited

			mock.ExpectExec("UPDATE reviews").
				WithArgs(rv.Rating, rv.Text, rv.UpdatedAt, rv.ID).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := repo.Update(context.Background(), &rv)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReviewRepository_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectExec("DELETE FROM reviews WHERE").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Delete_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectExec("DELETE FROM reviews WHERE").
		WithArgs("rev-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), "rev-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectQuery("SELECT .+ FROM reviews WHERE id").
		WithArgs(rv.ID).
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(rv)...))

	got, err := repo.GetByID(context.Background(), rv.ID)
	require.NoError(t, err)
	assert.Equal(t, rv, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Query_ByBookAndUser(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleReview()
	mock.ExpectQuery(`SELECT .+ FROM reviews WHERE book_id = \$1 AND user_id = \$2`).
		WithArgs("B1", "user-a").
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(rv)...))

	got, err := repo.Query(context.Background(), domain.ReviewFilter{BookID: "B1", UserID: "user-a"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rev-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Query_ByBookEmpty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM reviews WHERE book_id = \$1 ORDER BY`).
		WithArgs("B9").
		WillReturnRows(pgxmock.NewRows(reviewCols))

	got, err := repo.Query(context.Background(), domain.ReviewFilter{BookID: "B9"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
