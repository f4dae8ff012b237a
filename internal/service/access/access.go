// Package access resolves what an actor may see and mutate. Every rule is
// a pure function of (actor, entity); request data never widens scope.
// Domain services call these guards before touching state.
package access

import (
	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/model"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
)

// CanActFor reports whether actor may create or operate on resources owned
// by ownerID. Only admins act on behalf of another identity.
func CanActFor(actor model.Actor, ownerID uuid.UUID) bool {
	return actor.ID == ownerID || actor.Role == model.RoleAdmin
}

// CanViewAppointment applies the appointment column of the visibility table.
// Doctors do not see appointments directly; they act through consultations.
func CanViewAppointment(actor model.Actor, a *model.Appointment) bool {
	switch actor.Role {
	case model.RolePatient:
		return a.PatientID == actor.ID
	case model.RoleAssistant, model.RoleAdmin:
		return true
	}
	return false
}

// CanModifyAppointment covers cancel and reschedule. Mutation rights are a
// strict subset of visibility rights.
func CanModifyAppointment(actor model.Actor, a *model.Appointment) bool {
	switch actor.Role {
	case model.RolePatient:
		return a.PatientID == actor.ID
	case model.RoleAssistant, model.RoleAdmin:
		return true
	}
	return false
}

// CanSettleAppointment covers confirm and complete, which are staff-only.
func CanSettleAppointment(actor model.Actor) bool {
	return actor.Role.IsStaff()
}

// FilterAppointments narrows the given filters to the actor's visible set.
// The filters argument may be nil.
func FilterAppointments(actor model.Actor, filters *model.AppointmentFilters) (*model.AppointmentFilters, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	switch actor.Role {
	case model.RolePatient:
		id := actor.ID
		filters.PatientID = &id
		return filters, nil
	case model.RoleAssistant, model.RoleAdmin:
		return filters, nil
	}
	return nil, apperrors.PermissionDenied("appointments are not visible to this role")
}

// CanViewConsultation applies the consultation column of the table.
// Assistants only see active (pending or accepted) consultations.
func CanViewConsultation(actor model.Actor, c *model.Consultation) bool {
	switch actor.Role {
	case model.RolePatient:
		return c.PatientID == actor.ID
	case model.RoleDoctor:
		return c.DoctorID == actor.ID
	case model.RoleAssistant:
		return c.Status.Active()
	case model.RoleAdmin:
		return true
	}
	return false
}

// FilterConsultations narrows the given filters to the actor's visible set.
func FilterConsultations(actor model.Actor, filters *model.ConsultationFilters) (*model.ConsultationFilters, error) {
	if filters == nil {
		filters = &model.ConsultationFilters{}
	}
	switch actor.Role {
	case model.RolePatient:
		id := actor.ID
		filters.PatientID = &id
		return filters, nil
	case model.RoleDoctor:
		id := actor.ID
		filters.DoctorID = &id
		return filters, nil
	case model.RoleAssistant:
		filters.ActiveOnly = true
		return filters, nil
	case model.RoleAdmin:
		return filters, nil
	}
	return nil, apperrors.PermissionDenied("consultations are not visible to this role")
}

// CanViewScan applies the scan column of the table. For doctors,
// linkedViaConsultation reports whether one of the doctor's own
// consultations references the scan; the caller resolves that.
func CanViewScan(actor model.Actor, s *model.Scan, linkedViaConsultation bool) bool {
	switch actor.Role {
	case model.RolePatient:
		return s.UserID == actor.ID
	case model.RoleDoctor:
		return s.UserID == actor.ID || linkedViaConsultation
	case model.RoleAssistant, model.RoleAdmin:
		return true
	}
	return false
}

// FilterScans narrows the given filters to the actor's visible set. The
// doctor scope is resolved by the repository as own uploads plus scans
// linked through the doctor's consultations.
func FilterScans(actor model.Actor, filters *model.ScanFilters) (*model.ScanFilters, error) {
	if filters == nil {
		filters = &model.ScanFilters{}
	}
	switch actor.Role {
	case model.RolePatient:
		id := actor.ID
		filters.UserID = &id
		return filters, nil
	case model.RoleDoctor:
		id := actor.ID
		filters.DoctorID = &id
		return filters, nil
	case model.RoleAssistant, model.RoleAdmin:
		return filters, nil
	}
	return nil, apperrors.PermissionDenied("scans are not visible to this role")
}
