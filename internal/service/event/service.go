// Package event records domain events in the outbox table. The worker
// binary drains the outbox into the message broker; emission here never
// blocks or fails the domain operation that caused it.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

// Domain event types published through the outbox.
const (
	TypeAppointmentCreated     = "appointment.created"
	TypeAppointmentCancelled   = "appointment.cancelled"
	TypeAppointmentRescheduled = "appointment.rescheduled"
	TypeAppointmentConfirmed   = "appointment.confirmed"
	TypeAppointmentCompleted   = "appointment.completed"
	TypeConsultationCreated    = "consultation.created"
	TypeConsultationAccepted   = "consultation.accepted"
	TypeConsultationCompleted  = "consultation.completed"
	TypeConsultationCancelled  = "consultation.cancelled"
	TypeScanUploaded           = "scan.uploaded"
	TypeScanAnalyzed           = "scan.analyzed"
)

// Emitter is the producer side of the outbox.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		logger:     logger.WithComponent("event"),
	}
}

// Emit records the event for the worker to publish. Failures are logged
// and swallowed so a broken outbox never rolls back a committed domain
// transition.
func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(fmt.Errorf("marshal payload: %w", err), "failed to emit event", "event_type", eventType)
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to emit event", "event_type", eventType)
	}
}
