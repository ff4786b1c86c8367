package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
)

// StreamsConfig tunes RedisStreams.
type StreamsConfig struct {
	Partitions int
	// InstanceIndex/InstanceCount split partitions between replicas of a
	// service: an instance consumes partition p only if p%count == index.
	InstanceIndex int
	InstanceCount int
	// Consumer must stay the same across restarts of one instance so that
	// entries it left pending are read again before anything newer.
	Consumer      string
	BatchSize     int
	Block         time.Duration
	RetryBackoff  time.Duration
	ClaimIdle     time.Duration
	MaxLen        int64
}

func (c *StreamsConfig) normalize() {
	if c.Partitions < 1 {
		c.Partitions = 1
	}
	if c.InstanceCount < 1 {
		c.InstanceCount = 1
	}
	if c.Consumer == "" {
		c.Consumer = fmt.Sprintf("consumer-%d", c.InstanceIndex)
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.Block <= 0 {
		c.Block = 2 * time.Second
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	if c.ClaimIdle <= 0 {
		c.ClaimIdle = 30 * time.Second
	}
}

// RedisStreams implements the event channel on Redis Streams. Every topic is
// split into Partitions streams named "<topic>.<n>"; each consumer group reads
// them with XREADGROUP and acknowledges with XACK.
type RedisStreams struct {
	client goRedis.UniversalClient
	cfg    StreamsConfig
	logger *zap.Logger

	mu   sync.Mutex
	subs []*streamSubscription
}

type streamSubscription struct {
	stream    string
	group     string
	reclaimed atomic.Bool
}

func NewRedisStreams(client goRedis.UniversalClient, cfg StreamsConfig, logger *zap.Logger) *RedisStreams {
	cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStreams{client: client, cfg: cfg, logger: logger}
}

// StreamName returns the Redis key of one partition of topic.
func StreamName(topic string, partition int) string {
	return fmt.Sprintf("%s.%d", topic, partition)
}

func (r *RedisStreams) Publish(ctx context.Context, topic string, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	headers, err := json.Marshal(msg.Headers)
	if err != nil {
		return err
	}
	args := &goRedis.XAddArgs{
		Stream: StreamName(topic, Partition(msg.Key, r.cfg.Partitions)),
		Values: map[string]interface{}{
			"id":      msg.ID,
			"key":     msg.Key,
			"headers": string(headers),
			"body":    string(msg.Body),
		},
	}
	if r.cfg.MaxLen > 0 {
		args.MaxLen = r.cfg.MaxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "event channel unavailable", err)
	}
	return nil
}

func (r *RedisStreams) Subscribe(ctx context.Context, topic, group string, process ProcessFunc) error {
	var subs []*streamSubscription
	for p := 0; p < r.cfg.Partitions; p++ {
		if p%r.cfg.InstanceCount != r.cfg.InstanceIndex {
			continue
		}
		stream := StreamName(topic, p)
		if err := r.ensureGroup(ctx, stream, group); err != nil {
			return err
		}
		subs = append(subs, &streamSubscription{stream: stream, group: group})
	}

	r.mu.Lock()
	r.subs = append(r.subs, subs...)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *streamSubscription) {
			defer wg.Done()
			r.consume(ctx, sub, process)
		}(sub)
	}
	wg.Wait()
	return ctx.Err()
}

func (r *RedisStreams) ensureGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, stream, err)
	}
	return nil
}

// consume processes one partition sequentially. It starts on the consumer's
// own pending entries, so a restart under the same consumer name resumes where
// it stopped, and goes back to them after every Retry so later messages never
// overtake a failed one.
func (r *RedisStreams) consume(ctx context.Context, sub *streamSubscription, process ProcessFunc) {
	log := r.logger.With(zap.String("stream", sub.stream), zap.String("group", sub.group))
	attempts := make(map[string]int)
	pending := true

	for ctx.Err() == nil {
		if sub.reclaimed.Swap(false) {
			pending = true
		}

		id, block := ">", r.cfg.Block
		if pending {
			id, block = "0", -1
		}
		res, err := r.client.XReadGroup(ctx, &goRedis.XReadGroupArgs{
			Group:    sub.group,
			Consumer: r.cfg.Consumer,
			Streams:  []string{sub.stream, id},
			Count:    int64(r.cfg.BatchSize),
			Block:    block,
		}).Result()
		if errors.Is(err, goRedis.Nil) {
			pending = false
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("read from stream failed", zap.Error(err))
			r.sleep(ctx)
			continue
		}

		var entries []goRedis.XMessage
		if len(res) > 0 {
			entries = res[0].Messages
		}
		if pending && len(entries) == 0 {
			pending = false
			continue
		}

		retry := false
		for _, entry := range entries {
			if entry.Values == nil {
				// trimmed while pending
				r.ack(ctx, sub, entry.ID, log)
				continue
			}
			attempts[entry.ID]++
			msg := decodeEntry(entry)
			msg.Deliveries = attempts[entry.ID]

			if process(ctx, msg) == Retry {
				retry = true
				break
			}
			r.ack(ctx, sub, entry.ID, log)
			delete(attempts, entry.ID)
		}
		if retry {
			pending = true
			r.sleep(ctx)
		}
	}
}

func (r *RedisStreams) ack(ctx context.Context, sub *streamSubscription, id string, log *zap.Logger) {
	if err := r.client.XAck(ctx, sub.stream, sub.group, id).Err(); err != nil {
		log.Warn("ack failed", zap.String("entry_id", id), zap.Error(err))
	}
}

func (r *RedisStreams) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(r.cfg.RetryBackoff):
	}
}

// Reclaim moves entries left pending longer than ClaimIdle by any consumer of
// the subscribed groups onto this consumer, which then redelivers them.
func (r *RedisStreams) Reclaim(ctx context.Context) (int, error) {
	r.mu.Lock()
	subs := make([]*streamSubscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	total := 0
	for _, sub := range subs {
		start := "0-0"
		for {
			claimed, next, err := r.client.XAutoClaim(ctx, &goRedis.XAutoClaimArgs{
				Stream:   sub.stream,
				Group:    sub.group,
				MinIdle:  r.cfg.ClaimIdle,
				Start:    start,
				Count:    int64(r.cfg.BatchSize),
				Consumer: r.cfg.Consumer,
			}).Result()
			if err != nil {
				return total, fmt.Errorf("reclaim %s: %w", sub.stream, err)
			}
			if len(claimed) > 0 {
				total += len(claimed)
				sub.reclaimed.Store(true)
			}
			if next == "0-0" || next == "" {
				break
			}
			start = next
		}
	}
	return total, nil
}

func decodeEntry(entry goRedis.XMessage) Message {
	msg := Message{ID: entry.ID}
	if v, ok := entry.Values["id"].(string); ok && v != "" {
		msg.ID = v
	}
	if v, ok := entry.Values["key"].(string); ok {
		msg.Key = v
	}
	if v, ok := entry.Values["body"].(string); ok {
		msg.Body = []byte(v)
	}
	if v, ok := entry.Values["headers"].(string); ok && v != "" {
		_ = json.Unmarshal([]byte(v), &msg.Headers)
	}
	return msg
}

var (
	_ Publisher  = (*RedisStreams)(nil)
	_ Subscriber = (*RedisStreams)(nil)
)
