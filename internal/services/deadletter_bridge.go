package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/infrastructure/deadletter"
	"github.com/fastygo/composite/internal/messaging"
)

// DeadLetterBridge parks rejected messages in the bbolt dead-letter store.
type DeadLetterBridge struct {
	store  *deadletter.Store
	logger *zap.Logger
}

func NewDeadLetterBridge(store *deadletter.Store, logger *zap.Logger) *DeadLetterBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadLetterBridge{store: store, logger: logger}
}

func (b *DeadLetterBridge) Park(_ context.Context, topic, group string, msg messaging.Message, cause error) error {
	entry := deadletter.Entry{
		Topic:      topic,
		Group:      group,
		MessageID:  msg.ID,
		Key:        msg.Key,
		Code:       string(domain.CodeOf(cause)),
		Body:       string(msg.Body),
		Deliveries: msg.Deliveries,
	}
	if cause != nil {
		entry.Reason = cause.Error()
	}
	if err := b.store.Park(entry); err != nil {
		return err
	}
	b.logger.Warn("message parked in dead-letter store",
		zap.String("topic", topic),
		zap.String("key", msg.Key),
		zap.String("code", entry.Code))
	return nil
}

var _ messaging.DeadLetterSink = (*DeadLetterBridge)(nil)
