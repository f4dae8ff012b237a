package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeAppointment  NotificationType = "appointment"
	NotificationTypeScan         NotificationType = "scan"
	NotificationTypePayment      NotificationType = "payment"
	NotificationTypeSystem       NotificationType = "system"
	NotificationTypeXRay         NotificationType = "xray"
	NotificationTypeConsultation NotificationType = "consultation"
)

// Notification is append-only; the read flag is the only mutable field.
type Notification struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

type CreateNotificationRequest struct {
	UserID  uuid.UUID        `json:"user_id" binding:"required"`
	Title   string           `json:"title" binding:"required,max=255"`
	Message string           `json:"message" binding:"required"`
	Type    NotificationType `json:"type" binding:"omitempty,oneof=appointment scan payment system xray consultation"`
}
