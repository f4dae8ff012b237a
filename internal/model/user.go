package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the actor role attached to every authenticated request.
type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleAssistant Role = "assistant"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAssistant, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role carries staff-level rights.
func (r Role) IsStaff() bool {
	return r == RoleAssistant || r == RoleAdmin
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

type User struct {
	Base
	Email          string  `db:"email" json:"email"`
	PasswordHash   string  `db:"password_hash" json:"-"`
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
	Role           Role    `db:"role" json:"role"`
	Location       *string `db:"location" json:"location,omitempty"`
	ProfilePicture *string `db:"profile_picture" json:"profile_picture,omitempty"`
}

// FullName returns the display name used in notification messages.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}

// DoctorProfile holds doctor-specific attributes for users with the doctor role.
type DoctorProfile struct {
	Base
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Specialty       string    `db:"specialty" json:"specialty"`
	LicenseNumber   string    `db:"license_number" json:"license_number"`
	YearsExperience int       `db:"years_experience" json:"years_experience"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	ProfilePicture  *string   `db:"profile_picture" json:"profile_picture,omitempty"`
	AcceptingNew    bool      `db:"accepting_new" json:"accepting_new"`
}

type UpdateProfileRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Location       *string `json:"location"`
	ProfilePicture *string `json:"profile_picture"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}
