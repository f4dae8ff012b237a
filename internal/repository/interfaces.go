package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository owns the appointment calendar. Create and
	// Reschedule rely on a partial unique index over active
	// appointments' slot keys; the store is the arbiter under
	// concurrency and unique violations surface as conflict errors.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// UpdateWithNotification applies a state change and records its
		// notification in one transaction.
		UpdateWithNotification(ctx context.Context, appointment *model.Appointment, note *model.Notification) error
		HasActiveAt(ctx context.Context, slot time.Time, excludeID *uuid.UUID) (bool, error)
		ListActiveOn(ctx context.Context, date time.Time) ([]*model.Appointment, error)
		ListUpcoming(ctx context.Context, patientID *uuid.UUID, after time.Time, limit int) ([]*model.Appointment, error)
	}

	ConsultationRepository interface {
		Create(ctx context.Context, consultation *model.Consultation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		List(ctx context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error)
		UpdateWithNotification(ctx context.Context, consultation *model.Consultation, note *model.Notification) error
		CountForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
	}

	ScanRepository interface {
		Create(ctx context.Context, scan *model.Scan) error
		Get(ctx context.Context, id uuid.UUID) (*model.Scan, error)
		Update(ctx context.Context, scan *model.Scan) error
		List(ctx context.Context, filters *model.ScanFilters) ([]*model.Scan, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) error
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
		GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
		UpdateDoctorProfilePicture(ctx context.Context, userID uuid.UUID, path string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
