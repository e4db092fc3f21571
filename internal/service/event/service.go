package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/healthbook/scheduling-api/internal/model"
	"github.com/healthbook/scheduling-api/pkg/logger"
)

// OutboxWriter appends events to the outbox. In practice this is the
// transaction-scoped appointment repository, so the event commits or
// rolls back together with the change it describes.
type OutboxWriter interface {
	CreateEvent(ctx context.Context, event *model.OutboxEvent) error
}

type Service struct {
	logger *logger.Logger
}

func NewService(logger *logger.Logger) *Service {
	return &Service{logger: logger}
}

// Record serializes the payload and writes it to the outbox.
func (s *Service) Record(ctx context.Context, w OutboxWriter, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}
	if err := w.CreateEvent(ctx, evt); err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}

	s.logger.Debug("recorded outbox event", "event_type", eventType)
	return nil
}
