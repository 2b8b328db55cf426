package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/BookReviewGo/internal/domain"
	pkgkafka "github.com/utafrali/BookReviewGo/pkg/kafka"
	"github.com/utafrali/BookReviewGo/pkg/logger"
)

// Topics carrying change notifications between instances.
var (
	TopicReviewChanged   = pkgkafka.Topic("review", "changed")
	TopicFavoriteChanged = pkgkafka.Topic("favorite", "changed")
)

// Event types.
const (
	ReviewCreated   = "review.created"
	ReviewUpdated   = "review.updated"
	ReviewDeleted   = "review.deleted"
	FavoriteAdded   = "favorite.added"
	FavoriteRemoved = "favorite.removed"
)

// Aggregate types.
const (
	AggregateBook      = "book"
	AggregateFavorites = "favorites"
)

// ReviewChangedData is the payload of every review.* event. Subscribers
// reload the book's review set, so the payload only identifies it.
type ReviewChangedData struct {
	ReviewID string `json:"review_id"`
	BookID   string `json:"book_id"`
	UserID   string `json:"user_id"`
}

// FavoriteChangedData is the payload of every favorite.* event.
type FavoriteChangedData struct {
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
}

// Publisher is the part of *pkgkafka.Producer the event producer uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review and favorite changes so other instances can
// refresh their live subscribers.
type Producer struct {
	kafka  Publisher
	source string
	logger *slog.Logger
}

// NewProducer creates a producer that stamps events with source, the id of
// this instance.
func NewProducer(kafka Publisher, source string, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, source: source, logger: logger}
}

// PublishReviewChanged publishes a review.* event keyed by book id.
func (p *Producer) PublishReviewChanged(ctx context.Context, eventType string, review *domain.Review) error {
	data := ReviewChangedData{ReviewID: review.ID, BookID: review.BookID, UserID: review.UserID}
	return p.publish(ctx, TopicReviewChanged, eventType, review.BookID, AggregateBook, data)
}

// PublishFavoriteChanged publishes a favorite.* event keyed by user id.
func (p *Producer) PublishFavoriteChanged(ctx context.Context, eventType, userID, bookID string) error {
	data := FavoriteChangedData{UserID: userID, BookID: bookID}
	return p.publish(ctx, TopicFavoriteChanged, eventType, userID, AggregateFavorites, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, key, aggregate string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, key, aggregate, p.source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published change event",
		slog.String("event_type", eventType),
		slog.String("key", key),
	)
	return nil
}
