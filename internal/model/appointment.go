package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Active reports whether the status occupies a slot.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// Terminal reports whether the status admits no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// SlotKey canonicalizes a timestamp into the slot key used for
// exclusivity checks. The zone annotation is discarded and the
// wall-clock value is kept, truncated to the minute. All clients are
// expected to agree on a single implicit zone.
func SlotKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequest struct {
	ScheduledAt time.Time  `json:"scheduled_at" binding:"required"`
	Notes       string     `json:"notes" binding:"max=1000"`
	PatientID   *uuid.UUID `json:"patient_id"`
	Pending     bool       `json:"pending"`
}

type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type AppointmentFilters struct {
	PatientID *uuid.UUID
	Status    AppointmentStatus
	From      *time.Time
	To        *time.Time
}
