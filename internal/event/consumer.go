package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/BookReviewGo/pkg/kafka"
)

// Notifier refreshes local live subscribers.
type Notifier interface {
	NotifyBook(ctx context.Context, bookID string)
	NotifyFavorites(ctx context.Context, userID string)
}

// Consumer turns change events published by other instances into local
// feed refreshes.
type Consumer struct {
	notifier Notifier
	source   string
	logger   *slog.Logger
}

// NewConsumer creates a consumer that ignores events published by source.
func NewConsumer(notifier Notifier, source string, logger *slog.Logger) *Consumer {
	return &Consumer{notifier: notifier, source: source, logger: logger}
}

// Handle processes one change event.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.Source == c.source {
		return nil
	}

	switch event.EventType {
	case ReviewCreated, ReviewUpdated, ReviewDeleted:
		var data ReviewChangedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
		if data.BookID == "" {
			return fmt.Errorf("%s event %s has no book id", event.EventType, event.EventID)
		}
		c.notifier.NotifyBook(ctx, data.BookID)

	case FavoriteAdded, FavoriteRemoved:
		var data FavoriteChangedData
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
		if data.UserID == "" {
			return fmt.Errorf("%s event %s has no user id", event.EventType, event.EventID)
		}
		c.notifier.NotifyFavorites(ctx, data.UserID)

	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	c.logger.DebugContext(ctx, "applied remote change",
		slog.String("event_type", event.EventType),
		slog.String("source", event.Source),
	)
	return nil
}
