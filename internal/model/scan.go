package model

import (
	"github.com/google/uuid"
)

type ScanStatus string

const (
	ScanStatusPending    ScanStatus = "pending"
	ScanStatusProcessing ScanStatus = "processing"
	ScanStatusCompleted  ScanStatus = "completed"
	ScanStatusFailed     ScanStatus = "failed"
)

type ScanResultStatus string

const (
	ScanResultHealthy              ScanResultStatus = "healthy"
	ScanResultRequiresConsultation ScanResultStatus = "requires_consultation"
	ScanResultInconclusive         ScanResultStatus = "inconclusive"
	ScanResultOptionalConsultation ScanResultStatus = "optional_consultation"
)

type Scan struct {
	Base
	UserID               uuid.UUID        `db:"user_id" json:"user_id"`
	ImagePath            string           `db:"image_path" json:"image_path"`
	Status               ScanStatus       `db:"status" json:"status"`
	Result               string           `db:"result" json:"result,omitempty"`
	ResultStatus         ScanResultStatus `db:"result_status" json:"result_status"`
	ConfidenceScore      *float64         `db:"confidence_score" json:"confidence_score,omitempty"`
	Notes                string           `db:"notes" json:"notes,omitempty"`
	RequiresConsultation bool             `db:"requires_consultation" json:"requires_consultation"`
}

type ScanFilters struct {
	UserID   *uuid.UUID
	DoctorID *uuid.UUID
	Status   ScanStatus
}

// BookConsultationRequest books a consultation slot off the back of a scan.
type BookConsultationRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     string    `json:"date" binding:"required"`
	Time     string    `json:"time" binding:"required"`
}
