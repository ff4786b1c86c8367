package domain

import (
	"encoding/json"
	"time"
)

// EventType discriminates what a consumer must do with an event.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventDelete EventType = "DELETE"
)

// Event is the immutable envelope carried on the event channel. Key is the
// product id and doubles as the ordering key; Data is nil for deletions.
type Event[T any] struct {
	eventType EventType
	key       int
	data      *T
	createdAt time.Time
}

type eventWire[T any] struct {
	EventType EventType `json:"eventType"`
	Key       int       `json:"key"`
	Data      *T        `json:"data"`
	CreatedAt time.Time `json:"eventCreatedAt"`
}

// NewCreateEvent builds a CREATE envelope stamped with the current time.
func NewCreateEvent[T any](key int, data T) Event[T] {
	return Event[T]{eventType: EventCreate, key: key, data: &data, createdAt: time.Now().UTC()}
}

// NewDeleteEvent builds a DELETE envelope without payload.
func NewDeleteEvent[T any](key int) Event[T] {
	return Event[T]{eventType: EventDelete, key: key, createdAt: time.Now().UTC()}
}

func (e Event[T]) Type() EventType      { return e.eventType }
func (e Event[T]) Key() int             { return e.key }
func (e Event[T]) CreatedAt() time.Time { return e.createdAt }

// Data returns a copy of the payload, or nil when the event carries none.
func (e Event[T]) Data() *T {
	if e.data == nil {
		return nil
	}
	cp := *e.data
	return &cp
}

func (e Event[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventWire[T]{
		EventType: e.eventType,
		Key:       e.key,
		Data:      e.data,
		CreatedAt: e.createdAt,
	})
}

func (e *Event[T]) UnmarshalJSON(b []byte) error {
	var w eventWire[T]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Event[T]{eventType: w.EventType, key: w.Key, data: w.Data, createdAt: w.CreatedAt}
	return nil
}

// DecodeEvent parses a wire envelope. Unknown fields are ignored and unknown
// event types are preserved so the consumer can reject them explicitly.
func DecodeEvent[T any](body []byte) (Event[T], error) {
	var ev Event[T]
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event[T]{}, WrapError(ErrCodeBadRequest, "malformed event envelope", err)
	}
	return ev, nil
}
