package messaging

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatcher is the subscription table of a service: which handler consumes
// which topic, under which group. It is filled at startup and read-only afterwards.
type Dispatcher struct {
	mu            sync.RWMutex
	routes        map[string]route
	sink          DeadLetterSink
	maxDeliveries int
	logger        *zap.Logger
}

type route struct {
	group   string
	handler Handler
}

func NewDispatcher(sink DeadLetterSink, maxDeliveries int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		routes:        make(map[string]route),
		sink:          sink,
		maxDeliveries: maxDeliveries,
		logger:        logger,
	}
}

// Register binds handler to topic. Registering a topic twice is a wiring bug.
func (d *Dispatcher) Register(topic, group string, handler Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.routes[topic]; exists {
		return fmt.Errorf("handler for topic %s already registered", topic)
	}
	d.routes[topic] = route{group: group, handler: handler}
	return nil
}

// Topics lists registered topics.
func (d *Dispatcher) Topics() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	topics := make([]string, 0, len(d.routes))
	for topic := range d.routes {
		topics = append(topics, topic)
	}
	return topics
}

// Run subscribes every route and blocks until ctx is cancelled or a
// subscription fails, which stops the others.
func (d *Dispatcher) Run(ctx context.Context, sub Subscriber) error {
	d.mu.RLock()
	routes := make(map[string]route, len(d.routes))
	for topic, r := range d.routes {
		routes[topic] = r
	}
	d.mu.RUnlock()

	if len(routes) == 0 {
		return fmt.Errorf("no topic registered")
	}

	g, gctx := errgroup.WithContext(ctx)
	for topic, r := range routes {
		consumer := NewConsumer(topic, r.group, r.handler, d.sink, d.maxDeliveries, d.logger)
		group := r.group
		g.Go(func() error {
			d.logger.Info("subscribing", zap.String("topic", topic), zap.String("group", group))
			return sub.Subscribe(gctx, topic, group, consumer.Process)
		})
	}
	return g.Wait()
}
