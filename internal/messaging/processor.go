package messaging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
)

// Applier is the domain side of an event consumer.
type Applier[T any] interface {
	ApplyCreate(ctx context.Context, entity T) error
	// ApplyDelete removes everything stored under key; absence is success.
	ApplyDelete(ctx context.Context, key int) error
}

// EventProcessor decodes Event[T] envelopes and applies them.
type EventProcessor[T any] struct {
	applier Applier[T]
	logger  *zap.Logger
}

func NewEventProcessor[T any](applier Applier[T], logger *zap.Logger) *EventProcessor[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventProcessor[T]{applier: applier, logger: logger}
}

func (p *EventProcessor[T]) Handle(ctx context.Context, msg Message) error {
	ev, err := domain.DecodeEvent[T](msg.Body)
	if err != nil {
		return err
	}

	log := p.logger.With(zap.Int("key", ev.Key()), zap.String("event_type", string(ev.Type())))
	log.Info("process message", zap.Time("created_at", ev.CreatedAt()))

	switch ev.Type() {
	case domain.EventCreate:
		data := ev.Data()
		if data == nil {
			return domain.NewError(domain.ErrCodeBadRequest, "CREATE event without data")
		}
		err = p.applier.ApplyCreate(ctx, *data)
	case domain.EventDelete:
		err = p.applier.ApplyDelete(ctx, ev.Key())
	default:
		return domain.NewError(domain.ErrCodeEventProcessing,
			fmt.Sprintf("Incorrect event type: %s, expected a CREATE or DELETE event", ev.Type()))
	}
	if err != nil {
		return err
	}

	log.Info("message processing done")
	return nil
}
