// Package messaging is the event channel between the composite and the core
// services: keyed, partitioned, at-least-once delivery with per-key ordering.
package messaging

import (
	"context"
	"hash/fnv"

	"github.com/google/uuid"
)

// HeaderPartitionKey carries the ordering key as transport metadata.
const HeaderPartitionKey = "partitionKey"

// Message is one record on a topic. Deliveries counts how many times the
// channel handed it to a consumer, starting at 1.
type Message struct {
	ID         string
	Topic      string
	Key        string
	Headers    map[string]string
	Body       []byte
	Deliveries int
}

// NewMessage builds a message keyed for partitioning.
func NewMessage(key string, body []byte) Message {
	return Message{
		ID:      uuid.NewString(),
		Key:     key,
		Headers: map[string]string{HeaderPartitionKey: key},
		Body:    body,
	}
}

// Outcome tells the channel what to do with a delivered message.
type Outcome int

const (
	// Ack removes the message from the consumer group.
	Ack Outcome = iota
	// Retry leaves it pending so it is delivered again, ahead of later messages of its partition.
	Retry
)

func (o Outcome) String() string {
	if o == Ack {
		return "ack"
	}
	return "retry"
}

type ProcessFunc func(ctx context.Context, msg Message) Outcome

type Publisher interface {
	// Publish returns once the channel has durably accepted msg.
	Publish(ctx context.Context, topic string, msg Message) error
}

type Subscriber interface {
	// Subscribe consumes topic as a member of group until ctx is cancelled.
	// Messages of one partition are processed one at a time, in order.
	Subscribe(ctx context.Context, topic, group string, process ProcessFunc) error
}

// Partition maps a key onto one of n partitions.
func Partition(key string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
