package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreams(t *testing.T, cfg StreamsConfig) (*RedisStreams, *goRedis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStreams(client, cfg, nil), client
}

func TestRedisStreamsPublishPartitionsByKey(t *testing.T) {
	streams, client := newStreams(t, StreamsConfig{Partitions: 2})
	ctx := context.Background()

	msg := NewMessage("7", []byte(`{"key":7}`))
	require.NoError(t, streams.Publish(ctx, "products", msg))

	stream := StreamName("products", Partition("7", 2))
	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "7", entries[0].Values["key"])
	assert.Equal(t, msg.ID, entries[0].Values["id"])
	assert.JSONEq(t, `{"partitionKey":"7"}`, entries[0].Values["headers"].(string))
	assert.Equal(t, `{"key":7}`, entries[0].Values["body"])
}

type collector struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *collector) add(m Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, m)
	c.mu.Unlock()
}

func (c *collector) bodies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, string(m.Body))
	}
	return out
}

func TestRedisStreamsDeliversInOrderAndRetriesPending(t *testing.T) {
	streams, client := newStreams(t, StreamsConfig{
		Partitions:   1,
		Consumer:     "c1",
		Block:        20 * time.Millisecond,
		RetryBackoff: time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got collector
	failed := false
	process := func(_ context.Context, msg Message) Outcome {
		if string(msg.Body) == "first" && !failed {
			failed = true
			return Retry
		}
		got.add(msg)
		return Ack
	}

	require.NoError(t, streams.Publish(ctx, "reviews", NewMessage("1", []byte("first"))))
	require.NoError(t, streams.Publish(ctx, "reviews", NewMessage("1", []byte("second"))))

	done := make(chan error, 1)
	go func() { done <- streams.Subscribe(ctx, "reviews", "reviewsGroup", process) }()

	require.Eventually(t, func() bool { return len(got.bodies()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, got.bodies())

	got.mu.Lock()
	assert.Equal(t, 2, got.msgs[0].Deliveries)
	assert.Equal(t, "1", got.msgs[0].Headers[HeaderPartitionKey])
	got.mu.Unlock()

	pending, err := client.XPending(ctx, StreamName("reviews", 0), "reviewsGroup").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)

	cancel()
	<-done
}

func TestRedisStreamsReclaimsAbandonedMessages(t *testing.T) {
	streams, client := newStreams(t, StreamsConfig{
		Partitions:   1,
		Consumer:     "survivor",
		Block:        20 * time.Millisecond,
		RetryBackoff: time.Millisecond,
		ClaimIdle:    time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := StreamName("products", 0)
	require.NoError(t, client.XGroupCreateMkStream(ctx, stream, "productsGroup", "0").Err())
	require.NoError(t, streams.Publish(ctx, "products", NewMessage("3", []byte("orphan"))))

	// a consumer that crashed after reading
	_, err := client.XReadGroup(ctx, &goRedis.XReadGroupArgs{
		Group:    "productsGroup",
		Consumer: "crashed",
		Streams:  []string{stream, ">"},
		Count:    10,
		Block:    -1,
	}).Result()
	require.NoError(t, err)

	var got collector
	go func() {
		_ = streams.Subscribe(ctx, "products", "productsGroup", func(_ context.Context, msg Message) Outcome {
			got.add(msg)
			return Ack
		})
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, got.bodies())

	claimed, err := streams.Reclaim(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed)

	require.Eventually(t, func() bool { return len(got.bodies()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"orphan"}, got.bodies())
}

func TestRedisStreamsSkipsPartitionsOfOtherInstances(t *testing.T) {
	streams, client := newStreams(t, StreamsConfig{
		Partitions:    2,
		InstanceIndex: 1,
		InstanceCount: 2,
		Block:         20 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- streams.Subscribe(ctx, "products", "g", func(context.Context, Message) Outcome { return Ack })
	}()

	require.Eventually(t, func() bool {
		return client.Exists(context.Background(), StreamName("products", 1)).Val() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, client.Exists(context.Background(), StreamName("products", 0)).Val())

	cancel()
	<-done
}

func TestRedisStreamsRestartReadsPendingBeforeNewEntries(t *testing.T) {
	srv := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// no Consumer set: both runs derive the same name from the instance index
	cfg := StreamsConfig{Partitions: 1, Block: 20 * time.Millisecond, RetryBackoff: time.Millisecond}

	first := NewRedisStreams(client, cfg, nil)
	ctx1, cancel1 := context.WithCancel(context.Background())
	seen := make(chan struct{})
	done1 := make(chan error, 1)
	go func() {
		done1 <- first.Subscribe(ctx1, "products", "productsGroup", func(context.Context, Message) Outcome {
			select {
			case <-seen:
			default:
				close(seen)
			}
			return Retry
		})
	}()

	require.NoError(t, first.Publish(context.Background(), "products", NewMessage("1", []byte("CREATE 1"))))
	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never received the message")
	}
	cancel1()
	<-done1

	second := NewRedisStreams(client, cfg, nil)
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()

	var got collector
	done2 := make(chan error, 1)
	go func() {
		done2 <- second.Subscribe(ctx2, "products", "productsGroup", func(_ context.Context, msg Message) Outcome {
			got.add(msg)
			return Ack
		})
	}()
	require.NoError(t, second.Publish(context.Background(), "products", NewMessage("1", []byte("DELETE 1"))))

	require.Eventually(t, func() bool { return len(got.bodies()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"CREATE 1", "DELETE 1"}, got.bodies())

	cancel2()
	<-done2
}
