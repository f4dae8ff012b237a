package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoosuem8800/portal-api/internal/model"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
)

func actorWith(role model.Role) model.Actor {
	return model.Actor{ID: uuid.New(), Role: role}
}

func TestCanActFor(t *testing.T) {
	owner := uuid.New()

	assert.True(t, CanActFor(model.Actor{ID: owner, Role: model.RolePatient}, owner))
	assert.False(t, CanActFor(actorWith(model.RolePatient), owner))
	assert.False(t, CanActFor(actorWith(model.RoleAssistant), owner))
	assert.True(t, CanActFor(actorWith(model.RoleAdmin), owner))
}

func TestAppointmentVisibility(t *testing.T) {
	patient := actorWith(model.RolePatient)
	own := &model.Appointment{PatientID: patient.ID}
	other := &model.Appointment{PatientID: uuid.New()}

	tests := []struct {
		name        string
		actor       model.Actor
		appointment *model.Appointment
		want        bool
	}{
		{"patient sees own", patient, own, true},
		{"patient does not see others", patient, other, false},
		{"doctor sees none", actorWith(model.RoleDoctor), own, false},
		{"assistant sees all", actorWith(model.RoleAssistant), other, true},
		{"admin sees all", actorWith(model.RoleAdmin), other, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewAppointment(tt.actor, tt.appointment))
			assert.Equal(t, tt.want, CanModifyAppointment(tt.actor, tt.appointment))
		})
	}
}

func TestCanSettleAppointment(t *testing.T) {
	assert.False(t, CanSettleAppointment(actorWith(model.RolePatient)))
	assert.False(t, CanSettleAppointment(actorWith(model.RoleDoctor)))
	assert.True(t, CanSettleAppointment(actorWith(model.RoleAssistant)))
	assert.True(t, CanSettleAppointment(actorWith(model.RoleAdmin)))
}

func TestFilterAppointments(t *testing.T) {
	t.Run("patient scoped to own", func(t *testing.T) {
		patient := actorWith(model.RolePatient)
		filters, err := FilterAppointments(patient, nil)
		require.NoError(t, err)
		require.NotNil(t, filters.PatientID)
		assert.Equal(t, patient.ID, *filters.PatientID)
	})

	t.Run("patient cannot widen scope", func(t *testing.T) {
		patient := actorWith(model.RolePatient)
		someoneElse := uuid.New()
		filters, err := FilterAppointments(patient, &model.AppointmentFilters{PatientID: &someoneElse})
		require.NoError(t, err)
		assert.Equal(t, patient.ID, *filters.PatientID)
	})

	t.Run("doctor denied", func(t *testing.T) {
		_, err := FilterAppointments(actorWith(model.RoleDoctor), nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))
	})

	t.Run("staff unrestricted", func(t *testing.T) {
		filters, err := FilterAppointments(actorWith(model.RoleAssistant), nil)
		require.NoError(t, err)
		assert.Nil(t, filters.PatientID)
	})
}

func TestConsultationVisibility(t *testing.T) {
	patient := actorWith(model.RolePatient)
	doctor := actorWith(model.RoleDoctor)

	ownAsPatient := &model.Consultation{PatientID: patient.ID, DoctorID: uuid.New(), Status: model.ConsultationStatusPending}
	ownAsDoctor := &model.Consultation{PatientID: uuid.New(), DoctorID: doctor.ID, Status: model.ConsultationStatusAccepted}
	completed := &model.Consultation{PatientID: uuid.New(), DoctorID: uuid.New(), Status: model.ConsultationStatusCompleted}

	assert.True(t, CanViewConsultation(patient, ownAsPatient))
	assert.False(t, CanViewConsultation(patient, ownAsDoctor))
	assert.True(t, CanViewConsultation(doctor, ownAsDoctor))
	assert.False(t, CanViewConsultation(doctor, ownAsPatient))

	// assistants only see active consultations
	assistant := actorWith(model.RoleAssistant)
	assert.True(t, CanViewConsultation(assistant, ownAsPatient))
	assert.True(t, CanViewConsultation(assistant, ownAsDoctor))
	assert.False(t, CanViewConsultation(assistant, completed))

	assert.True(t, CanViewConsultation(actorWith(model.RoleAdmin), completed))
}

func TestFilterConsultations(t *testing.T) {
	t.Run("doctor scoped to own", func(t *testing.T) {
		doctor := actorWith(model.RoleDoctor)
		filters, err := FilterConsultations(doctor, nil)
		require.NoError(t, err)
		require.NotNil(t, filters.DoctorID)
		assert.Equal(t, doctor.ID, *filters.DoctorID)
	})

	t.Run("assistant gets active only", func(t *testing.T) {
		filters, err := FilterConsultations(actorWith(model.RoleAssistant), nil)
		require.NoError(t, err)
		assert.True(t, filters.ActiveOnly)
	})

	t.Run("admin unrestricted", func(t *testing.T) {
		filters, err := FilterConsultations(actorWith(model.RoleAdmin), nil)
		require.NoError(t, err)
		assert.Nil(t, filters.PatientID)
		assert.Nil(t, filters.DoctorID)
		assert.False(t, filters.ActiveOnly)
	})
}

func TestScanVisibility(t *testing.T) {
	patient := actorWith(model.RolePatient)
	doctor := actorWith(model.RoleDoctor)

	own := &model.Scan{UserID: patient.ID}
	foreign := &model.Scan{UserID: uuid.New()}

	assert.True(t, CanViewScan(patient, own, false))
	assert.False(t, CanViewScan(patient, foreign, false))

	// doctor: own uploads or consultation-linked
	doctorUpload := &model.Scan{UserID: doctor.ID}
	assert.True(t, CanViewScan(doctor, doctorUpload, false))
	assert.False(t, CanViewScan(doctor, foreign, false))
	assert.True(t, CanViewScan(doctor, foreign, true))

	assert.True(t, CanViewScan(actorWith(model.RoleAssistant), foreign, false))
	assert.True(t, CanViewScan(actorWith(model.RoleAdmin), foreign, false))
}

func TestFilterScans(t *testing.T) {
	doctor := actorWith(model.RoleDoctor)
	filters, err := FilterScans(doctor, &model.ScanFilters{})
	require.NoError(t, err)
	require.NotNil(t, filters.DoctorID)
	assert.Equal(t, doctor.ID, *filters.DoctorID)

	patient := actorWith(model.RolePatient)
	filters, err = FilterScans(patient, nil)
	require.NoError(t, err)
	require.NotNil(t, filters.UserID)
	assert.Equal(t, patient.ID, *filters.UserID)
}
