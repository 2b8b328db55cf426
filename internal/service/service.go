// Package service holds the review, favorites and profile controllers.
// Every mutating call takes the caller's session explicitly.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utafrali/BookReviewGo/internal/domain"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/tracing"
)

const tracerName = "github.com/utafrali/BookReviewGo/internal/service"

var tracer = tracing.Tracer(tracerName)

// ReviewEvents publishes review changes to other instances.
type ReviewEvents interface {
	PublishReviewChanged(ctx context.Context, eventType string, review *domain.Review) error
}

// FavoriteEvents publishes favorite changes to other instances.
type FavoriteEvents interface {
	PublishFavoriteChanged(ctx context.Context, eventType, userID, bookID string) error
}

func requireSession(session domain.Session) error {
	if !session.Authenticated() {
		return apperrors.Unauthorized("sign in to continue")
	}
	return nil
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.Validation(field, "is required")
	}
	return nil
}

// logPublishError logs a failed change event. The mutation itself already
// succeeded and local subscribers were notified.
func logPublishError(ctx context.Context, logger *slog.Logger, eventType string, err error) {
	logger.WarnContext(ctx, "failed to publish change event",
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}
