package messaging

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
)

// Handler applies one message. The returned error decides its fate, see Consumer.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

// DeadLetterSink keeps messages that must not be retried nor dropped.
type DeadLetterSink interface {
	Park(ctx context.Context, topic, group string, msg Message, cause error) error
}

// Consumer turns handler errors into channel outcomes:
//   - nil: ack
//   - INVALID_INPUT, NOT_FOUND, CONFLICT: rejected for good, logged and acked
//   - EVENT_PROCESSING, BAD_REQUEST: parked in the dead-letter store, then acked
//   - anything else: transient, retried until maxDeliveries, then parked
type Consumer struct {
	topic         string
	group         string
	handler       Handler
	sink          DeadLetterSink
	maxDeliveries int
	logger        *zap.Logger
}

func NewConsumer(topic, group string, handler Handler, sink DeadLetterSink, maxDeliveries int, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		topic:         topic,
		group:         group,
		handler:       handler,
		sink:          sink,
		maxDeliveries: maxDeliveries,
		logger:        logger.With(zap.String("topic", topic), zap.String("group", group)),
	}
}

// Process is the ProcessFunc handed to a Subscriber.
func (c *Consumer) Process(ctx context.Context, msg Message) Outcome {
	err := c.handler.Handle(ctx, msg)
	if err == nil {
		return Ack
	}

	log := c.logger.With(
		zap.String("message_id", msg.ID),
		zap.String("key", msg.Key),
		zap.Int("deliveries", msg.Deliveries),
		zap.Error(err),
	)

	switch domain.CodeOf(err) {
	case domain.ErrCodeInvalid, domain.ErrCodeNotFound, domain.ErrCodeConflict:
		log.Warn("message rejected")
		return Ack
	case domain.ErrCodeEventProcessing, domain.ErrCodeBadRequest:
		log.Error("message cannot be processed")
		return c.park(ctx, msg, err, log)
	}

	if errors.Is(err, context.Canceled) {
		return Retry
	}
	if c.maxDeliveries > 0 && msg.Deliveries >= c.maxDeliveries {
		log.Error("message exhausted its deliveries")
		return c.park(ctx, msg, err, log)
	}
	log.Warn("message processing failed, will retry")
	return Retry
}

func (c *Consumer) park(ctx context.Context, msg Message, cause error, log *zap.Logger) Outcome {
	if c.sink == nil {
		log.Error("no dead-letter store configured, message stays pending")
		return Retry
	}
	if err := c.sink.Park(ctx, c.topic, c.group, msg, cause); err != nil {
		log.Error("failed to park message", zap.NamedError("park_error", err))
		return Retry
	}
	return Ack
}
