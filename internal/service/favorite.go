package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/event"
	"github.com/utafrali/BookReviewGo/internal/live"
	"github.com/utafrali/BookReviewGo/internal/repository"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/tracing"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// FavoriteService keeps each user's favorites list and pushes it to every
// view subscribed to that user.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	events    FavoriteEvents
	feed      *live.Feed[[]domain.FavoriteEntry, domain.FavoritesView]
	logger    *slog.Logger
	now       func() time.Time
}

// NewFavoriteService creates a favorites service. events may be nil when
// the instance runs alone.
func NewFavoriteService(favorites repository.FavoriteRepository, events FavoriteEvents, logger *slog.Logger) *FavoriteService {
	s := &FavoriteService{
		favorites: favorites,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.feed = live.NewFeed[[]domain.FavoriteEntry, domain.FavoritesView]("favorites", s.loadUser, logger)
	return s
}

func (s *FavoriteService) loadUser(ctx context.Context, userID string) ([]domain.FavoriteEntry, error) {
	entries, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return entries, nil
}

func favoritesView(userID string) func([]domain.FavoriteEntry) domain.FavoritesView {
	return func(entries []domain.FavoriteEntry) domain.FavoritesView {
		books := make([]domain.BookSnapshot, len(entries))
		for i := range entries {
			books[i] = entries[i].Book
		}
		return domain.FavoritesView{UserID: userID, Books: books}
	}
}

// IsFavorite reports whether userID favorited bookID.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, bookID string) (bool, error) {
	if userID == "" || bookID == "" {
		return false, nil
	}
	ok, err := s.favorites.Exists(ctx, userID, bookID)
	if err != nil {
		return false, apperrors.FromStore(err)
	}
	return ok, nil
}

// AddFavorite stores book in the session user's favorites. It reports false
// when the book was already there.
func (s *FavoriteService) AddFavorite(ctx context.Context, session domain.Session, book domain.BookSnapshot) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "FavoriteService.AddFavorite")
	defer func() { tracing.End(span, err) }()

	if err := requireSession(session); err != nil {
		return false, err
	}
	if err := validateBook(book); err != nil {
		return false, err
	}
	return s.add(ctx, session.UserID, book)
}

// RemoveFavorite drops bookID from the session user's favorites. It reports
// false when the book was not there.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, session domain.Session, bookID string) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "FavoriteService.RemoveFavorite")
	defer func() { tracing.End(span, err) }()

	if err := requireSession(session); err != nil {
		return false, err
	}
	if err := requireID("bookId", bookID); err != nil {
		return false, err
	}
	return s.remove(ctx, session.UserID, bookID)
}

// ToggleFavorite adds book when absent and removes it when present. It
// returns whether the book is a favorite afterwards.
func (s *FavoriteService) ToggleFavorite(ctx context.Context, session domain.Session, book domain.BookSnapshot) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "FavoriteService.ToggleFavorite")
	defer func() { tracing.End(span, err) }()

	if err := requireSession(session); err != nil {
		return false, err
	}
	if err := validateBook(book); err != nil {
		return false, err
	}

	present, err := s.IsFavorite(ctx, session.UserID, book.ID)
	if err != nil {
		return false, err
	}
	if present {
		// A concurrent remove may win; the book is absent either way.
		if _, err := s.remove(ctx, session.UserID, book.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	if _, err := s.add(ctx, session.UserID, book); err != nil {
		return false, err
	}
	return true, nil
}

// ListFavorites returns userID's favorite books, newest first, as they were
// when favorited.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]domain.BookSnapshot, error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	entries, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return favoritesView(userID)(entries).Books, nil
}

// SubscribeFavorites streams userID's favorites view on every change. The
// first view is delivered before SubscribeFavorites returns.
func (s *FavoriteService) SubscribeFavorites(ctx context.Context, userID string) (*live.Subscription[domain.FavoritesView], error) {
	if err := requireID("userId", userID); err != nil {
		return nil, err
	}
	return s.feed.Subscribe(ctx, userID, favoritesView(userID))
}

// NotifyFavorites reloads userID for local subscribers.
func (s *FavoriteService) NotifyFavorites(ctx context.Context, userID string) {
	s.feed.Notify(ctx, userID)
}

// Close ends every favorites subscription.
func (s *FavoriteService) Close() {
	s.feed.Close()
}

func (s *FavoriteService) add(ctx context.Context, userID string, book domain.BookSnapshot) (bool, error) {
	entry := &domain.FavoriteEntry{
		UserID:    userID,
		BookID:    book.ID,
		Book:      book,
		CreatedAt: s.now(),
	}
	created, err := s.favorites.Add(ctx, entry)
	if err != nil {
		return false, apperrors.FromStore(err)
	}
	if created {
		s.logger.InfoContext(ctx, "favorite added",
			slog.String("user_id", userID),
			slog.String("book_id", book.ID),
		)
		s.changed(ctx, event.FavoriteAdded, userID, book.ID)
	}
	return created, nil
}

func (s *FavoriteService) remove(ctx context.Context, userID, bookID string) (bool, error) {
	removed, err := s.favorites.Remove(ctx, userID, bookID)
	if err != nil {
		return false, apperrors.FromStore(err)
	}
	if removed {
		s.logger.InfoContext(ctx, "favorite removed",
			slog.String("user_id", userID),
			slog.String("book_id", bookID),
		)
		s.changed(ctx, event.FavoriteRemoved, userID, bookID)
	}
	return removed, nil
}

func (s *FavoriteService) changed(ctx context.Context, eventType, userID, bookID string) {
	s.feed.Notify(ctx, userID)
	if s.events == nil {
		return
	}
	if err := s.events.PublishFavoriteChanged(ctx, eventType, userID, bookID); err != nil {
		logPublishError(ctx, s.logger, eventType, err)
	}
}

func validateBook(book domain.BookSnapshot) error {
	if err := validator.Validate(book); err != nil {
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			return valErr.AppError()
		}
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}
