package deadletter

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a message the consumer gave up on, kept for operators to inspect.
type Entry struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Group      string    `json:"group"`
	MessageID  string    `json:"messageId"`
	Key        string    `json:"key"`
	Code       string    `json:"code"`
	Reason     string    `json:"reason"`
	Body       string    `json:"body"`
	Deliveries int       `json:"deliveries"`
	Timestamp  time.Time `json:"timestamp"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}
