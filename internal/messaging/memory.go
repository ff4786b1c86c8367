package messaging

import (
	"context"
	"sync"
	"time"
)

// MemoryBus is an in-process channel with the same partitioning, ordering and
// redelivery rules as the Redis Streams channel. It also records everything
// published so callers can inspect it.
type MemoryBus struct {
	partitions int
	retryDelay time.Duration

	mu      sync.Mutex
	topics  map[string]*memoryTopic
	notify  chan struct{}
	failErr error
}

type memoryTopic struct {
	partitions [][]Message
	published  []Message
	offsets    map[string][]int
}

func NewMemoryBus(partitions int, retryDelay time.Duration) *MemoryBus {
	if partitions < 1 {
		partitions = 1
	}
	return &MemoryBus{
		partitions: partitions,
		retryDelay: retryDelay,
		topics:     make(map[string]*memoryTopic),
		notify:     make(chan struct{}),
	}
}

// FailPublishes makes every following Publish return err; nil restores normal behaviour.
func (b *MemoryBus) FailPublishes(err error) {
	b.mu.Lock()
	b.failErr = err
	b.mu.Unlock()
}

func (b *MemoryBus) topic(name string) *memoryTopic {
	t, ok := b.topics[name]
	if !ok {
		t = &memoryTopic{
			partitions: make([][]Message, b.partitions),
			offsets:    make(map[string][]int),
		}
		b.topics[name] = t
	}
	return t
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return b.failErr
	}
	msg.Topic = topic
	t := b.topic(topic)
	p := Partition(msg.Key, b.partitions)
	t.partitions[p] = append(t.partitions[p], msg)
	t.published = append(t.published, msg)

	close(b.notify)
	b.notify = make(chan struct{})
	return nil
}

// Published returns every message accepted on topic, in publish order.
func (b *MemoryBus) Published(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[topic]
	if !ok {
		return nil
	}
	out := make([]Message, len(t.published))
	copy(out, t.published)
	return out
}

// Pending reports how many messages of topic group has not acknowledged yet.
func (b *MemoryBus) Pending(topic, group string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.topic(topic)
	offsets := t.offsets[group]
	pending := 0
	for p, msgs := range t.partitions {
		done := 0
		if offsets != nil {
			done = offsets[p]
		}
		pending += len(msgs) - done
	}
	return pending
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic, group string, process ProcessFunc) error {
	b.mu.Lock()
	t := b.topic(topic)
	if _, ok := t.offsets[group]; !ok {
		t.offsets[group] = make([]int, b.partitions)
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for p := 0; p < b.partitions; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			b.consume(ctx, topic, group, p, process)
		}(p)
	}
	wg.Wait()
	return ctx.Err()
}

func (b *MemoryBus) consume(ctx context.Context, topic, group string, partition int, process ProcessFunc) {
	deliveries := 0
	for {
		b.mu.Lock()
		t := b.topics[topic]
		offset := t.offsets[group][partition]
		var (
			msg   Message
			ready bool
		)
		if offset < len(t.partitions[partition]) {
			msg = t.partitions[partition][offset]
			ready = true
		}
		wait := b.notify
		b.mu.Unlock()

		if !ready {
			select {
			case <-ctx.Done():
				return
			case <-wait:
				continue
			}
		}

		deliveries++
		msg.Deliveries = deliveries
		if process(ctx, msg) == Retry {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.retryDelay):
			}
			continue
		}

		deliveries = 0
		b.mu.Lock()
		t.offsets[group][partition]++
		b.mu.Unlock()
	}
}

var (
	_ Publisher  = (*MemoryBus)(nil)
	_ Subscriber = (*MemoryBus)(nil)
)
