// Package appointment implements the scheduler: slot exclusivity over
// active appointments and the pending/confirmed/completed/cancelled
// lifecycle. Each transition records its notification in the same
// transaction and then emits a domain event through the outbox.
package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	"github.com/hoosuem8800/portal-api/internal/service/access"
	"github.com/hoosuem8800/portal-api/internal/service/event"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/metrics"
)

const upcomingLimit = 5

type Service struct {
	repo    repository.AppointmentRepository
	events  event.Emitter
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, events event.Emitter, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		logger:  logger.WithComponent("appointment"),
		metrics: metrics,
	}
}

// Create books a slot. The owner is the actor unless an admin supplies an
// explicit target patient. The repository's unique index on active slots
// is the arbiter under concurrency; the HasActiveAt pre-check only gives
// a friendlier error on the common path.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	patientID := actor.ID
	if req.PatientID != nil {
		if !access.CanActFor(actor, *req.PatientID) {
			return nil, apperrors.PermissionDenied("cannot create an appointment for another patient")
		}
		patientID = *req.PatientID
	}

	if req.ScheduledAt.IsZero() {
		return nil, apperrors.Validation("scheduled_at is required")
	}
	slot := model.SlotKey(req.ScheduledAt)

	taken, err := s.repo.HasActiveAt(ctx, slot, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		s.metrics.SlotConflicts.Inc()
		return nil, apperrors.Conflict("appointment time slot is already taken")
	}

	status := model.AppointmentStatusConfirmed
	if req.Pending {
		status = model.AppointmentStatusPending
	}

	appointment := &model.Appointment{
		PatientID:   patientID,
		ScheduledAt: slot,
		Status:      status,
		Notes:       req.Notes,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		if apperrors.IsCode(err, apperrors.ErrConflict) {
			s.metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	// No notification on create; only transitions notify.
	s.metrics.AppointmentTransitions.WithLabelValues("create", string(status)).Inc()
	s.events.Emit(ctx, event.TypeAppointmentCreated, appointment)

	s.logger.Info("appointment created",
		"appointment_id", appointment.ID.String(),
		"patient_id", patientID.String(),
		"scheduled_at", slot.Format(time.RFC3339))

	return appointment, nil
}

// Cancel frees the slot. Allowed for the owning patient and staff; never
// from a terminal status.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanModifyAppointment(actor, appointment) {
		return nil, apperrors.PermissionDenied("cannot cancel this appointment")
	}
	if appointment.Status.Terminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot cancel a %s appointment", appointment.Status))
	}

	appointment.Status = model.AppointmentStatusCancelled
	note := transitionNotification(appointment, "Cancelled", "Your appointment has been cancelled")

	if err := s.repo.UpdateWithNotification(ctx, appointment, note); err != nil {
		return nil, err
	}

	s.metrics.AppointmentTransitions.WithLabelValues("cancel", string(appointment.Status)).Inc()
	s.events.Emit(ctx, event.TypeAppointmentCancelled, appointment)
	return appointment, nil
}

// Reschedule moves an active appointment to a new slot. On conflict the
// stored timestamp is unchanged.
func (s *Service) Reschedule(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.RescheduleRequest) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanModifyAppointment(actor, appointment) {
		return nil, apperrors.PermissionDenied("cannot reschedule this appointment")
	}
	if appointment.Status.Terminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot reschedule a %s appointment", appointment.Status))
	}
	if req.ScheduledAt.IsZero() {
		return nil, apperrors.Validation("scheduled_at is required")
	}

	slot := model.SlotKey(req.ScheduledAt)
	taken, err := s.repo.HasActiveAt(ctx, slot, &appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		s.metrics.SlotConflicts.Inc()
		return nil, apperrors.Conflict("appointment time slot is already taken")
	}

	appointment.ScheduledAt = slot
	note := transitionNotification(appointment, "Rescheduled", "Your appointment has been rescheduled")

	if err := s.repo.UpdateWithNotification(ctx, appointment, note); err != nil {
		if apperrors.IsCode(err, apperrors.ErrConflict) {
			s.metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.AppointmentTransitions.WithLabelValues("reschedule", string(appointment.Status)).Inc()
	s.events.Emit(ctx, event.TypeAppointmentRescheduled, appointment)
	return appointment, nil
}

// Confirm moves a pending appointment to confirmed. Staff only.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	if !access.CanSettleAppointment(actor) {
		return nil, apperrors.PermissionDenied("only admins and assistants may confirm appointments")
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status != model.AppointmentStatusPending {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot confirm a %s appointment", appointment.Status))
	}

	appointment.Status = model.AppointmentStatusConfirmed
	note := transitionNotification(appointment, "Confirmed", "Your appointment has been confirmed")

	if err := s.repo.UpdateWithNotification(ctx, appointment, note); err != nil {
		return nil, err
	}

	s.metrics.AppointmentTransitions.WithLabelValues("confirm", string(appointment.Status)).Inc()
	s.events.Emit(ctx, event.TypeAppointmentConfirmed, appointment)
	return appointment, nil
}

// Complete closes out an appointment. Staff only; never from a terminal
// status.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	if !access.CanSettleAppointment(actor) {
		return nil, apperrors.PermissionDenied("only admins and assistants may complete appointments")
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status.Terminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("cannot complete a %s appointment", appointment.Status))
	}

	appointment.Status = model.AppointmentStatusCompleted
	note := transitionNotification(appointment, "Completed", "Your appointment has been marked as completed")

	if err := s.repo.UpdateWithNotification(ctx, appointment, note); err != nil {
		return nil, err
	}

	s.metrics.AppointmentTransitions.WithLabelValues("complete", string(appointment.Status)).Inc()
	s.events.Emit(ctx, event.TypeAppointmentCompleted, appointment)
	return appointment, nil
}

// Get returns a single appointment the actor may see.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanViewAppointment(actor, appointment) {
		return nil, apperrors.PermissionDenied("cannot view this appointment")
	}
	return appointment, nil
}

// List returns the appointments visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	scoped, err := access.FilterAppointments(actor, filters)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scoped)
}

// ListUpcoming returns the actor's next few active future appointments in
// chronological order.
func (s *Service) ListUpcoming(ctx context.Context, actor model.Actor) ([]*model.Appointment, error) {
	var patientID *uuid.UUID
	switch actor.Role {
	case model.RolePatient:
		id := actor.ID
		patientID = &id
	case model.RoleAssistant, model.RoleAdmin:
		// staff see the global upcoming calendar
	default:
		return nil, apperrors.PermissionDenied("appointments are not visible to this role")
	}
	return s.repo.ListUpcoming(ctx, patientID, time.Now(), upcomingLimit)
}

// ListTakenSlots returns the time-of-day values, formatted HH:MM, of all
// active appointments on the given calendar date.
func (s *Service) ListTakenSlots(ctx context.Context, date time.Time) ([]string, error) {
	appointments, err := s.repo.ListActiveOn(ctx, date)
	if err != nil {
		return nil, err
	}

	slots := make([]string, 0, len(appointments))
	for _, appointment := range appointments {
		slots = append(slots, appointment.ScheduledAt.Format("15:04"))
	}
	return slots, nil
}

func transitionNotification(a *model.Appointment, action, message string) *model.Notification {
	return &model.Notification{
		UserID:  a.PatientID,
		Title:   "Appointment " + action,
		Message: message,
		Type:    model.NotificationTypeAppointment,
	}
}
