// Package scan owns X-ray uploads, their analysis through the external
// classifier, and the consultation booking flow that follows a worrying
// result.
package scan

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoosuem8800/portal-api/internal/mlclient"
	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	"github.com/hoosuem8800/portal-api/internal/service/access"
	"github.com/hoosuem8800/portal-api/internal/service/event"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/metrics"
)

// Analyzer is the classifier round trip.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, image io.Reader) (*mlclient.Prediction, error)
}

// Booker books an appointment slot under the scheduler's exclusivity
// rules.
type Booker interface {
	Create(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error)
}

// DoctorOption is one selectable doctor in a consultation suggestion.
type DoctorOption struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Experience     int       `json:"experience"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
}

// ConsultationSuggestion lists doctors and dates for a follow-up booking.
type ConsultationSuggestion struct {
	ScanID         uuid.UUID      `json:"scan_id"`
	Doctors        []DoctorOption `json:"doctors"`
	AvailableDates []string       `json:"available_dates"`
	Message        string         `json:"message"`
}

// BookingResult reports the appointment/consultation pair created off a
// scan.
type BookingResult struct {
	AppointmentID   uuid.UUID `json:"appointment_id"`
	ConsultationID  uuid.UUID `json:"consultation_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentTime string    `json:"appointment_time"`
}

type Service struct {
	repo             repository.ScanRepository
	consultationRepo repository.ConsultationRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	analyzer         Analyzer
	booker           Booker
	events           event.Emitter
	logger           *logger.Logger
	metrics          *metrics.Metrics
}

func NewService(
	repo repository.ScanRepository,
	consultationRepo repository.ConsultationRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	analyzer Analyzer,
	booker Booker,
	events event.Emitter,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:             repo,
		consultationRepo: consultationRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		analyzer:         analyzer,
		booker:           booker,
		events:           events,
		logger:           logger.WithComponent("scan"),
		metrics:          metrics,
	}
}

// Upload records a new scan owned by the actor.
func (s *Service) Upload(ctx context.Context, actor model.Actor, imagePath, notes string) (*model.Scan, error) {
	if imagePath == "" {
		return nil, apperrors.Validation("image is required")
	}

	scan := &model.Scan{
		UserID:    actor.ID,
		ImagePath: imagePath,
		Status:    model.ScanStatusPending,
		Notes:     notes,
	}
	if err := s.repo.Create(ctx, scan); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, event.TypeScanUploaded, scan)
	return scan, nil
}

// Get returns a single scan the actor may see. For doctors that means
// their own uploads or a scan referenced by one of their consultations.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Scan, error) {
	scan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	linked := false
	if actor.Role == model.RoleDoctor && scan.UserID != actor.ID {
		linked, err = s.linkedToDoctor(ctx, actor.ID, scan.ID)
		if err != nil {
			return nil, err
		}
	}
	if !access.CanViewScan(actor, scan, linked) {
		return nil, apperrors.PermissionDenied("cannot view this scan")
	}
	return scan, nil
}

// List returns the scans visible to the actor.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.ScanFilters) ([]*model.Scan, error) {
	scoped, err := access.FilterScans(actor, filters)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scoped)
}

// Analyze sends the image to the classifier and folds the answer back
// into the scan. Diagnosis mapping: Normal is healthy, Pneumonia
// requires a consultation, anything else makes one optional.
func (s *Service) Analyze(ctx context.Context, actor model.Actor, id uuid.UUID, filename string, image io.Reader) (*model.Scan, error) {
	scan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if scan.UserID != actor.ID && !actor.Role.IsStaff() {
		return nil, apperrors.PermissionDenied("cannot analyze this scan")
	}

	scan.Status = model.ScanStatusProcessing
	if err := s.repo.Update(ctx, scan); err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(s.metrics.ScanAnalysisLatency)
	prediction, err := s.analyzer.Analyze(ctx, filename, image)
	timer.ObserveDuration()

	if err != nil {
		s.metrics.ScanAnalyses.WithLabelValues("failed").Inc()
		scan.Status = model.ScanStatusFailed
		if updateErr := s.repo.Update(ctx, scan); updateErr != nil {
			s.logger.Error(updateErr, "failed to mark scan failed", "scan_id", scan.ID.String())
		}
		return nil, err
	}

	scan.Status = model.ScanStatusCompleted
	scan.Result = fmt.Sprintf("Diagnosis: %s with %g%% confidence", prediction.Diagnosis, prediction.Confidence)
	confidence := prediction.Confidence
	scan.ConfidenceScore = &confidence

	switch prediction.Diagnosis {
	case "Normal":
		scan.ResultStatus = model.ScanResultHealthy
		scan.RequiresConsultation = false
	case "Pneumonia":
		scan.ResultStatus = model.ScanResultRequiresConsultation
		scan.RequiresConsultation = true
	default:
		scan.ResultStatus = model.ScanResultOptionalConsultation
		scan.RequiresConsultation = true
	}

	if err := s.repo.Update(ctx, scan); err != nil {
		return nil, err
	}

	s.metrics.ScanAnalyses.WithLabelValues("completed").Inc()
	s.events.Emit(ctx, event.TypeScanAnalyzed, scan)

	s.logger.Info("scan analyzed",
		"scan_id", scan.ID.String(),
		"diagnosis", prediction.Diagnosis,
		"result_status", string(scan.ResultStatus))

	return scan, nil
}

// SuggestConsultation lists the doctors and the next seven days for a
// scan whose result calls for a follow-up.
func (s *Service) SuggestConsultation(ctx context.Context, actor model.Actor, id uuid.UUID) (*ConsultationSuggestion, error) {
	scan, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !scan.RequiresConsultation {
		return nil, apperrors.Validation("this scan does not require consultation")
	}

	doctors, err := s.userRepo.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, err
	}

	options := make([]DoctorOption, 0, len(doctors))
	for _, doctor := range doctors {
		count, err := s.consultationRepo.CountForDoctor(ctx, doctor.ID)
		if err != nil {
			return nil, err
		}

		specialization := "General"
		if profile, err := s.userRepo.GetDoctorProfile(ctx, doctor.ID); err == nil && profile.Specialty != "" {
			specialization = profile.Specialty
		}

		options = append(options, DoctorOption{
			ID:             doctor.ID,
			Name:           "Dr. " + doctor.FullName(),
			Specialization: specialization,
			Experience:     count,
			ProfilePicture: doctor.ProfilePicture,
		})
	}

	today := time.Now().UTC()
	dates := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format("2006-01-02"))
	}

	return &ConsultationSuggestion{
		ScanID:         scan.ID,
		Doctors:        options,
		AvailableDates: dates,
		Message:        "Please select a doctor and preferred date for your consultation",
	}, nil
}

// BookConsultation creates a confirmed appointment through the scheduler
// and a pending initial consultation off the back of a scan, notifying
// both parties.
func (s *Service) BookConsultation(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.BookConsultationRequest) (*BookingResult, error) {
	scan, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor")
	}

	scheduledAt, err := time.Parse("2006-01-02 15:04", req.Date+" "+req.Time)
	if err != nil {
		return nil, apperrors.Validation("date must be YYYY-MM-DD and time must be HH:MM")
	}

	createReq := &model.CreateAppointmentRequest{
		ScheduledAt: scheduledAt,
		Notes:       fmt.Sprintf("Consultation for scan #%s", scan.ID),
	}
	if scan.UserID != actor.ID {
		patientID := scan.UserID
		createReq.PatientID = &patientID
	}

	appointment, err := s.booker.Create(ctx, actor, createReq)
	if err != nil {
		return nil, err
	}

	consultation := &model.Consultation{
		PatientID: scan.UserID,
		DoctorID:  doctor.ID,
		ScanID:    &scan.ID,
		Type:      model.ConsultationTypeInitial,
		Status:    model.ConsultationStatusPending,
	}
	if err := s.consultationRepo.Create(ctx, consultation); err != nil {
		return nil, err
	}

	when := appointment.ScheduledAt.Format("January 2, 2006 at 3:04 PM")
	doctorName := doctor.FullName()

	patientNote := &model.Notification{
		UserID:  scan.UserID,
		Title:   "Consultation Scheduled",
		Message: fmt.Sprintf("Your consultation with Dr. %s has been scheduled for %s", doctorName, when),
		Type:    model.NotificationTypeAppointment,
	}
	if err := s.notificationRepo.Create(ctx, patientNote); err != nil {
		s.logger.Error(err, "failed to notify patient", "scan_id", scan.ID.String())
	}

	patient, err := s.userRepo.Get(ctx, scan.UserID)
	patientName := "a patient"
	if err == nil {
		patientName = patient.FullName()
	}
	doctorNote := &model.Notification{
		UserID:  doctor.ID,
		Title:   "New Consultation Scheduled",
		Message: fmt.Sprintf("A consultation has been scheduled with %s for %s", patientName, when),
		Type:    model.NotificationTypeAppointment,
	}
	if err := s.notificationRepo.Create(ctx, doctorNote); err != nil {
		s.logger.Error(err, "failed to notify doctor", "scan_id", scan.ID.String())
	}

	s.events.Emit(ctx, event.TypeConsultationCreated, consultation)

	return &BookingResult{
		AppointmentID:   appointment.ID,
		ConsultationID:  consultation.ID,
		DoctorName:      doctorName,
		AppointmentTime: when,
	}, nil
}

func (s *Service) linkedToDoctor(ctx context.Context, doctorID, scanID uuid.UUID) (bool, error) {
	consultations, err := s.consultationRepo.List(ctx, &model.ConsultationFilters{DoctorID: &doctorID})
	if err != nil {
		return false, err
	}
	for _, c := range consultations {
		if c.ScanID != nil && *c.ScanID == scanID {
			return true, nil
		}
	}
	return false, nil
}
