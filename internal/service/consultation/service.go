// Package consultation manages the doctor-patient consultation lifecycle:
// pending, accepted, completed, cancelled. Accepting an initial
// consultation rewrites its type to follow_up.
package consultation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	"github.com/hoosuem8800/portal-api/internal/service/access"
	"github.com/hoosuem8800/portal-api/internal/service/event"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

type Service struct {
	repo     repository.ConsultationRepository
	userRepo repository.UserRepository
	events   event.Emitter
	logger   *logger.Logger
}

func NewService(repo repository.ConsultationRepository, userRepo repository.UserRepository, events event.Emitter, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		events:   events,
		logger:   logger.WithComponent("consultation"),
	}
}

// Create books a consultation for the acting patient with the given doctor.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateConsultationRequest) (*model.Consultation, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.PermissionDenied("only patients may request consultations")
	}
	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor")
	}

	consultationType := req.Type
	if consultationType == "" {
		consultationType = model.ConsultationTypeInitial
	}

	consultation := &model.Consultation{
		PatientID: actor.ID,
		DoctorID:  req.DoctorID,
		ScanID:    req.ScanID,
		Type:      consultationType,
		Status:    model.ConsultationStatusPending,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, event.TypeConsultationCreated, consultation)
	return consultation, nil
}

// AdminCreate books a consultation on behalf of a patient/doctor pair.
// Either being absent is a not-found, not a validation failure.
func (s *Service) AdminCreate(ctx context.Context, actor model.Actor, req *model.AdminCreateConsultationRequest) (*model.Consultation, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperrors.PermissionDenied("only admins may create consultations on behalf of patients")
	}

	patient, err := s.userRepo.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != model.RolePatient {
		return nil, apperrors.NotFound("patient")
	}

	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor")
	}

	consultationType := req.Type
	if consultationType == "" {
		consultationType = model.ConsultationTypeInitial
	}

	consultation := &model.Consultation{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		ScanID:    req.ScanID,
		Type:      consultationType,
		Status:    model.ConsultationStatusPending,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, event.TypeConsultationCreated, consultation)
	return consultation, nil
}

// Accept moves a pending consultation to accepted. An initial consultation
// becomes a follow_up on acceptance.
func (s *Service) Accept(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Consultation, error) {
	consultation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, consultation) {
		return nil, apperrors.PermissionDenied("cannot accept this consultation")
	}
	if consultation.Status != model.ConsultationStatusPending {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("consultation is already %s and cannot be accepted", consultation.Status))
	}

	consultation.Status = model.ConsultationStatusAccepted
	if consultation.Type == model.ConsultationTypeInitial {
		consultation.Type = model.ConsultationTypeFollowUp
	}

	note := &model.Notification{
		UserID:  consultation.PatientID,
		Title:   "Consultation Accepted",
		Message: fmt.Sprintf("Your consultation request has been accepted by %s. You will be contacted for further details.", s.doctorName(ctx, consultation.DoctorID)),
		Type:    model.NotificationTypeConsultation,
	}

	if err := s.repo.UpdateWithNotification(ctx, consultation, note); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, event.TypeConsultationAccepted, consultation)
	return consultation, nil
}

// Complete closes a consultation. Already-completed is rejected.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Consultation, error) {
	consultation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, consultation) {
		return nil, apperrors.PermissionDenied("cannot complete this consultation")
	}
	if consultation.Status == model.ConsultationStatusCompleted {
		return nil, apperrors.InvalidTransition("consultation is already completed")
	}

	consultation.Status = model.ConsultationStatusCompleted

	note := &model.Notification{
		UserID:  consultation.PatientID,
		Title:   "Consultation Completed",
		Message: "Your consultation has been completed. Please check the recommendations and prescription.",
		Type:    model.NotificationTypeConsultation,
	}

	if err := s.repo.UpdateWithNotification(ctx, consultation, note); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, event.TypeConsultationCompleted, consultation)
	return consultation, nil
}

// Cancel aborts an open consultation.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Consultation, error) {
	consultation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canCancel(actor, consultation) {
		return nil, apperrors.PermissionDenied("cannot cancel this consultation")
	}
	if !consultation.Status.Active() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("consultation is already %s", consultation.Status))
	}

	consultation.Status = model.ConsultationStatusCancelled

	note := &model.Notification{
		UserID:  consultation.PatientID,
		Title:   "Consultation Cancelled",
		Message: "Your consultation has been cancelled.",
		Type:    model.NotificationTypeConsultation,
	}

	if err := s.repo.UpdateWithNotification(ctx, consultation, note); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, event.TypeConsultationCancelled, consultation)
	return consultation, nil
}

// UpdateStatus is the staff escape hatch to set status, type and notes
// directly. The patient is notified of the resulting status.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status model.ConsultationStatus, consultationType model.ConsultationType, notes string) (*model.Consultation, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.PermissionDenied("only admins and assistants may update consultation status directly")
	}

	consultation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if consultationType != "" {
		consultation.Type = consultationType
	}
	if notes != "" {
		consultation.Notes = notes
	}

	var note *model.Notification
	if status != "" {
		consultation.Status = status
		note = &model.Notification{
			UserID:  consultation.PatientID,
			Title:   fmt.Sprintf("Consultation %s", capitalize(string(status))),
			Message: statusMessage(s.doctorName(ctx, consultation.DoctorID), status),
			Type:    model.NotificationTypeConsultation,
		}
	}

	if err := s.repo.UpdateWithNotification(ctx, consultation, note); err != nil {
		return nil, err
	}
	return consultation, nil
}

// Get returns a single consultation the actor may see.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Consultation, error) {
	consultation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanViewConsultation(actor, consultation) {
		return nil, apperrors.PermissionDenied("cannot view this consultation")
	}
	return consultation, nil
}

// List returns the consultations visible to the actor.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	scoped, err := access.FilterConsultations(actor, filters)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scoped)
}

// ListUpcoming returns the actor's pending consultations, oldest first.
func (s *Service) ListUpcoming(ctx context.Context, actor model.Actor) ([]*model.Consultation, error) {
	filters := &model.ConsultationFilters{Status: model.ConsultationStatusPending}
	scoped, err := access.FilterConsultations(actor, filters)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scoped)
}

// canManage covers accept and complete: the consultation's doctor or staff.
func canManage(actor model.Actor, c *model.Consultation) bool {
	return actor.ID == c.DoctorID || actor.Role.IsStaff()
}

// canCancel additionally allows the owning patient.
func canCancel(actor model.Actor, c *model.Consultation) bool {
	return actor.ID == c.PatientID || canManage(actor, c)
}

func (s *Service) doctorName(ctx context.Context, doctorID uuid.UUID) string {
	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil || doctor.FirstName == "" && doctor.LastName == "" {
		return "your doctor"
	}
	return "Dr. " + doctor.FullName()
}

func statusMessage(doctorName string, status model.ConsultationStatus) string {
	switch status {
	case model.ConsultationStatusCompleted:
		return "Your consultation has been completed. Please check the recommendations."
	case model.ConsultationStatusAccepted:
		return fmt.Sprintf("Your consultation has been accepted by %s.", doctorName)
	case model.ConsultationStatusCancelled:
		return "Your consultation has been cancelled."
	}
	return fmt.Sprintf("Your consultation status has been updated to %s.", status)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
