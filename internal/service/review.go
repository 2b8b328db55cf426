package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/utafrali/BookReviewGo/internal/aggregate"
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/event"
	"github.com/utafrali/BookReviewGo/internal/live"
	"github.com/utafrali/BookReviewGo/internal/repository"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/tracing"
)

// ReviewService enforces one review per user per book and owner-only edits,
// and keeps book subscribers up to date.
type ReviewService struct {
	reviews  repository.ReviewRepository
	profiles repository.ProfileRepository
	events   ReviewEvents
	feed     *live.Feed[[]domain.Review, domain.ReviewView]
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewService creates a review service. events may be nil when the
// instance runs alone.
func NewReviewService(reviews repository.ReviewRepository, profiles repository.ProfileRepository, events ReviewEvents, logger *slog.Logger) *ReviewService {
	s := &ReviewService{
		reviews:  reviews,
		profiles: profiles,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.feed = live.NewFeed[[]domain.Review, domain.ReviewView]("book_reviews", s.loadBook, logger)
	return s
}

func (s *ReviewService) loadBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	reviews, err := s.reviews.Query(ctx, domain.ReviewFilter{BookID: bookID})
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return reviews, nil
}

// ValidateReview checks the rating and text bounds.
func ValidateReview(rating int, text string) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.Validation("rating", fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if n := utf8.RuneCountInString(text); n < domain.MinTextLength || n > domain.MaxTextLength {
		return apperrors.Validation("text", fmt.Sprintf("must be between %d and %d characters", domain.MinTextLength, domain.MaxTextLength))
	}
	return nil
}

// SubmitReview creates the session user's review of bookID.
func (s *ReviewService) SubmitReview(ctx context.Context, session domain.Session, bookID string, rating int, text string) (_ *domain.Review, err error) {
	ctx, span := tracer.Start(ctx, "ReviewService.SubmitReview")
	defer func() { tracing.End(span, err) }()

	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := requireID("bookId", bookID); err != nil {
		return nil, err
	}
	if err := ValidateReview(rating, text); err != nil {
		return nil, err
	}

	existing, err := s.UserReview(ctx, bookID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(domain.ReviewStateOf(existing), domain.ReviewStateDrafting) {
		return nil, apperrors.DuplicateReview(bookID)
	}

	review := &domain.Review{
		ID:        uuid.NewString(),
		BookID:    bookID,
		UserID:    session.UserID,
		Username:  s.username(ctx, session),
		Rating:    rating,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, apperrors.FromStore(err)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("book_id", bookID),
		slog.String("user_id", session.UserID),
		slog.Int("rating", rating),
	)
	s.changed(ctx, event.ReviewCreated, review)
	return review, nil
}

// EditReview replaces the rating and text of the session user's review.
func (s *ReviewService) EditReview(ctx context.Context, session domain.Session, reviewID string, rating int, text string) (_ *domain.Review, err error) {
	ctx, span := tracer.Start(ctx, "ReviewService.EditReview")
	defer func() { tracing.End(span, err) }()

	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := ValidateReview(rating, text); err != nil {
		return nil, err
	}
	review, err := s.owned(ctx, session, reviewID)
	if err != nil {
		return nil, err
	}

	updatedAt := s.now()
	review.Rating = rating
	review.Text = text
	review.UpdatedAt = &updatedAt
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, apperrors.FromStore(err)
	}

	s.logger.InfoContext(ctx, "review edited",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.Int("rating", rating),
	)
	s.changed(ctx, event.ReviewUpdated, review)
	return review, nil
}

// DeleteReview removes the session user's review.
func (s *ReviewService) DeleteReview(ctx context.Context, session domain.Session, reviewID string) (err error) {
	ctx, span := tracer.Start(ctx, "ReviewService.DeleteReview")
	defer func() { tracing.End(span, err) }()

	review, err := s.owned(ctx, session, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return apperrors.FromStore(err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)
	s.changed(ctx, event.ReviewDeleted, review)
	return nil
}

// owned loads reviewID and checks that session may change it.
func (s *ReviewService) owned(ctx context.Context, session domain.Session, reviewID string) (*domain.Review, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := requireID("reviewId", reviewID); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if !review.OwnedBy(session.UserID) {
		return nil, apperrors.Forbidden("only the author may change this review")
	}
	return review, nil
}

// HasUserReviewed reports whether userID has a review of bookID.
func (s *ReviewService) HasUserReviewed(ctx context.Context, bookID, userID string) (bool, error) {
	review, err := s.UserReview(ctx, bookID, userID)
	if err != nil {
		return false, err
	}
	return review != nil, nil
}

// UserReview returns userID's review of bookID, or nil when there is none.
func (s *ReviewService) UserReview(ctx context.Context, bookID, userID string) (*domain.Review, error) {
	if bookID == "" || userID == "" {
		return nil, nil
	}
	reviews, err := s.reviews.Query(ctx, domain.ReviewFilter{BookID: bookID, UserID: userID})
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if len(reviews) == 0 {
		return nil, nil
	}
	return &reviews[0], nil
}

// BookReviews returns the aggregate and the sorted reviews of bookID.
func (s *ReviewService) BookReviews(ctx context.Context, bookID string, order aggregate.Order) (domain.ReviewView, error) {
	if err := requireID("bookId", bookID); err != nil {
		return domain.ReviewView{}, err
	}
	reviews, err := s.loadBook(ctx, bookID)
	if err != nil {
		return domain.ReviewView{}, err
	}
	return aggregate.View(bookID, reviews, order), nil
}

// SubscribeBook streams a fresh ReviewView of bookID every time its reviews
// change. The first view is delivered before SubscribeBook returns.
func (s *ReviewService) SubscribeBook(ctx context.Context, bookID string, order aggregate.Order) (*live.Subscription[domain.ReviewView], error) {
	if err := requireID("bookId", bookID); err != nil {
		return nil, err
	}
	return s.feed.Subscribe(ctx, bookID, func(reviews []domain.Review) domain.ReviewView {
		return aggregate.View(bookID, reviews, order)
	})
}

// NotifyBook reloads bookID for local subscribers.
func (s *ReviewService) NotifyBook(ctx context.Context, bookID string) {
	s.feed.Notify(ctx, bookID)
}

// Close ends every book subscription.
func (s *ReviewService) Close() {
	s.feed.Close()
}

func (s *ReviewService) changed(ctx context.Context, eventType string, review *domain.Review) {
	s.feed.Notify(ctx, review.BookID)
	if s.events == nil {
		return
	}
	if err := s.events.PublishReviewChanged(ctx, eventType, review); err != nil {
		logPublishError(ctx, s.logger, eventType, err)
	}
}

// username snapshots the author's display name. A missing profile falls
// back to the session email.
func (s *ReviewService) username(ctx context.Context, session domain.Session) string {
	profile, err := s.profiles.Get(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "profile lookup failed, using fallback username",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		profile = &domain.Profile{UserID: session.UserID, Email: session.Email}
	}
	if profile.Email == "" {
		profile.Email = session.Email
	}
	return profile.DisplayName()
}
