package model

import (
	"github.com/google/uuid"
)

type ConsultationType string

const (
	ConsultationTypeInitial   ConsultationType = "initial"
	ConsultationTypeFollowUp  ConsultationType = "follow_up"
	ConsultationTypeEmergency ConsultationType = "emergency"
)

type ConsultationStatus string

const (
	ConsultationStatusPending   ConsultationStatus = "pending"
	ConsultationStatusAccepted  ConsultationStatus = "accepted"
	ConsultationStatusCompleted ConsultationStatus = "completed"
	ConsultationStatusCancelled ConsultationStatus = "cancelled"
)

// Active reports whether the consultation is still open.
func (s ConsultationStatus) Active() bool {
	return s == ConsultationStatusPending || s == ConsultationStatusAccepted
}

type Consultation struct {
	Base
	PatientID uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	ScanID    *uuid.UUID         `db:"scan_id" json:"scan_id,omitempty"`
	Type      ConsultationType   `db:"type" json:"type"`
	Status    ConsultationStatus `db:"status" json:"status"`
	Notes     string             `db:"notes" json:"notes,omitempty"`
}

type CreateConsultationRequest struct {
	DoctorID uuid.UUID        `json:"doctor_id" binding:"required"`
	ScanID   *uuid.UUID       `json:"scan_id"`
	Type     ConsultationType `json:"type" binding:"omitempty,oneof=initial follow_up emergency"`
	Notes    string           `json:"notes" binding:"max=2000"`
}

type AdminCreateConsultationRequest struct {
	PatientID uuid.UUID        `json:"patient_id" binding:"required"`
	DoctorID  uuid.UUID        `json:"doctor_id" binding:"required"`
	ScanID    *uuid.UUID       `json:"scan_id"`
	Type      ConsultationType `json:"type" binding:"omitempty,oneof=initial follow_up emergency"`
	Notes     string           `json:"notes" binding:"max=2000"`
}

type ConsultationFilters struct {
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	Status     ConsultationStatus
	ActiveOnly bool
}
