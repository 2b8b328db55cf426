package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewChanged struct {
	BookID   string `json:"book_id"`
	ReviewID string `json:"review_id"`
}

func TestNewEvent(t *testing.T) {
	data := reviewChanged{BookID: "B1", ReviewID: "rev-1"}

	event, err := NewEvent("review.created", "B1", "book", "bookreview-1", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "review.created", event.EventType)
	assert.Equal(t, "B1", event.AggregateID)
	assert.Equal(t, "book", event.AggregateType)
	assert.Equal(t, "bookreview-1", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got reviewChanged
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_UnencodableData(t *testing.T) {
	_, err := NewEvent("x", "a", "b", "c", make(chan int))
	assert.Error(t, err)
}

func TestEvent_EncodeDecode(t *testing.T) {
	original, err := NewEvent("favorite.added", "user-1", "user", "bookreview-1", map[string]string{"book_id": "B1"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-1")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.JSONEq(t, string(original.Data), string(restored.Data))
}

func TestEvent_Headers(t *testing.T) {
	e, err := NewEvent("review.updated", "B1", "book", "bookreview-1", nil)
	require.NoError(t, err)
	assert.Len(t, e.headers(), 2)

	h := e.WithCorrelationID("corr-2").headers()
	require.Len(t, h, 3)
	assert.Equal(t, "correlation_id", h[2].Key)
	assert.Equal(t, "corr-2", string(h[2].Value))
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{not json"))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_type":"review.created"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestEvent_UnmarshalData_Empty(t *testing.T) {
	var target map[string]string
	assert.Error(t, (&Event{EventType: "review.created"}).UnmarshalData(&target))
}
