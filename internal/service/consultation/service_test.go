package consultation

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoosuem8800/portal-api/internal/model"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

type fakeConsultationRepo struct {
	consultations map[uuid.UUID]*model.Consultation
	notifications []*model.Notification
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{consultations: make(map[uuid.UUID]*model.Consultation)}
}

func (f *fakeConsultationRepo) Create(_ context.Context, c *model.Consultation) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.consultations[c.ID] = &stored
	return nil
}

func (f *fakeConsultationRepo) Get(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, ok := f.consultations[id]
	if !ok {
		return nil, apperrors.NotFound("consultation")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeConsultationRepo) List(_ context.Context, filters *model.ConsultationFilters) ([]*model.Consultation, error) {
	var out []*model.Consultation
	for _, c := range f.consultations {
		if filters != nil {
			if filters.PatientID != nil && c.PatientID != *filters.PatientID {
				continue
			}
			if filters.DoctorID != nil && c.DoctorID != *filters.DoctorID {
				continue
			}
			if filters.Status != "" && c.Status != filters.Status {
				continue
			}
			if filters.ActiveOnly && !c.Status.Active() {
				continue
			}
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeConsultationRepo) UpdateWithNotification(_ context.Context, c *model.Consultation, note *model.Notification) error {
	stored, ok := f.consultations[c.ID]
	if !ok {
		return apperrors.NotFound("consultation")
	}
	*stored = *c
	if note != nil {
		f.notifications = append(f.notifications, note)
	}
	return nil
}

func (f *fakeConsultationRepo) CountForDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.consultations {
		if c.DoctorID == doctorID {
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) add(role model.Role, first, last string) *model.User {
	u := &model.User{
		Base:      model.Base{ID: uuid.New()},
		Email:     first + "@example.com",
		FirstName: first,
		LastName:  last,
		Role:      role,
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (f *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func (f *fakeUserRepo) ListByRole(_ context.Context, role model.Role) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetDoctorProfile(_ context.Context, _ uuid.UUID) (*model.DoctorProfile, error) {
	return nil, apperrors.NotFound("doctor profile")
}

func (f *fakeUserRepo) UpdateDoctorProfilePicture(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

type fakeEmitter struct {
	emitted []string
}

func (f *fakeEmitter) Emit(_ context.Context, eventType string, _ interface{}) {
	f.emitted = append(f.emitted, eventType)
}

type fixture struct {
	svc     *Service
	repo    *fakeConsultationRepo
	users   *fakeUserRepo
	emitter *fakeEmitter
	patient *model.User
	doctor  *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeConsultationRepo()
	users := newFakeUserRepo()
	emitter := &fakeEmitter{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return &fixture{
		svc:     NewService(repo, users, emitter, log),
		repo:    repo,
		users:   users,
		emitter: emitter,
		patient: users.add(model.RolePatient, "Jane", "Smith"),
		doctor:  users.add(model.RoleDoctor, "Gregory", "House"),
	}
}

func (fx *fixture) patientActor() model.Actor {
	return model.Actor{ID: fx.patient.ID, Role: model.RolePatient}
}

func (fx *fixture) doctorActor() model.Actor {
	return model.Actor{ID: fx.doctor.ID, Role: model.RoleDoctor}
}

func (fx *fixture) create(t *testing.T, consultationType model.ConsultationType) *model.Consultation {
	t.Helper()
	c, err := fx.svc.Create(context.Background(), fx.patientActor(), &model.CreateConsultationRequest{
		DoctorID: fx.doctor.ID,
		Type:     consultationType,
	})
	require.NoError(t, err)
	return c
}

func TestCreateDefaultsToInitialPending(t *testing.T) {
	fx := newFixture(t)

	c := fx.create(t, "")
	assert.Equal(t, model.ConsultationTypeInitial, c.Type)
	assert.Equal(t, model.ConsultationStatusPending, c.Status)
	assert.Equal(t, fx.patient.ID, c.PatientID)
	assert.Empty(t, fx.repo.notifications, "no notification on create")
	assert.Equal(t, []string{"consultation.created"}, fx.emitter.emitted)
}

func TestCreateRequiresDoctorRole(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.patientActor(), &model.CreateConsultationRequest{
		DoctorID: fx.patient.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestAdminCreate(t *testing.T) {
	fx := newFixture(t)
	adminActor := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("creates for the pair", func(t *testing.T) {
		c, err := fx.svc.AdminCreate(context.Background(), adminActor, &model.AdminCreateConsultationRequest{
			PatientID: fx.patient.ID,
			DoctorID:  fx.doctor.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, fx.patient.ID, c.PatientID)
		assert.Equal(t, fx.doctor.ID, c.DoctorID)
	})

	t.Run("absent patient is not found", func(t *testing.T) {
		_, err := fx.svc.AdminCreate(context.Background(), adminActor, &model.AdminCreateConsultationRequest{
			PatientID: uuid.New(),
			DoctorID:  fx.doctor.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
	})

	t.Run("non-admin denied", func(t *testing.T) {
		_, err := fx.svc.AdminCreate(context.Background(), fx.patientActor(), &model.AdminCreateConsultationRequest{
			PatientID: fx.patient.ID,
			DoctorID:  fx.doctor.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))
	})
}

func TestAcceptRewritesInitialToFollowUp(t *testing.T) {
	fx := newFixture(t)
	c := fx.create(t, model.ConsultationTypeInitial)

	accepted, err := fx.svc.Accept(context.Background(), fx.doctorActor(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusAccepted, accepted.Status)
	assert.Equal(t, model.ConsultationTypeFollowUp, accepted.Type)

	require.Len(t, fx.repo.notifications, 1)
	note := fx.repo.notifications[0]
	assert.Equal(t, "Consultation Accepted", note.Title)
	assert.Equal(t, "Your consultation request has been accepted by Dr. Gregory House. You will be contacted for further details.", note.Message)
	assert.Equal(t, fx.patient.ID, note.UserID)
}

func TestAcceptKeepsEmergencyType(t *testing.T) {
	fx := newFixture(t)
	c := fx.create(t, model.ConsultationTypeEmergency)

	accepted, err := fx.svc.Accept(context.Background(), fx.doctorActor(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationTypeEmergency, accepted.Type)
}

func TestAcceptOnlyFromPending(t *testing.T) {
	fx := newFixture(t)
	c := fx.create(t, model.ConsultationTypeInitial)

	_, err := fx.svc.Accept(context.Background(), fx.doctorActor(), c.ID)
	require.NoError(t, err)

	_, err = fx.svc.Accept(context.Background(), fx.doctorActor(), c.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestAcceptDeniedForPatient(t *testing.T) {
	fx := newFixture(t)
	c := fx.create(t, model.ConsultationTypeInitial)

	_, err := fx.svc.Accept(context.Background(), fx.patientActor(), c.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))
}

func TestComplete(t *testing.T) {
	fx := newFixture(t)
	c := fx.create(t, model.ConsultationTypeInitial)

	done, err := fx.svc.Complete(context.Background(), fx.doctorActor(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusCompleted, done.Status)

	require.Len(t, fx.repo.notifications, 1)
	assert.Equal(t, "Consultation Completed", fx.repo.notifications[0].Title)

	_, err = fx.svc.Complete(context.Background(), fx.doctorActor(), c.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestCancel(t *testing.T) {
	fx := newFixture(t)

	t.Run("patient may cancel own", func(t *testing.T) {
		c := fx.create(t, model.ConsultationTypeInitial)
		cancelled, err := fx.svc.Cancel(context.Background(), fx.patientActor(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ConsultationStatusCancelled, cancelled.Status)
	})

	t.Run("foreign patient denied", func(t *testing.T) {
		c := fx.create(t, model.ConsultationTypeInitial)
		_, err := fx.svc.Cancel(context.Background(), model.Actor{ID: uuid.New(), Role: model.RolePatient}, c.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))
	})

	t.Run("terminal statuses rejected", func(t *testing.T) {
		c := fx.create(t, model.ConsultationTypeInitial)
		_, err := fx.svc.Cancel(context.Background(), fx.patientActor(), c.ID)
		require.NoError(t, err)

		_, err = fx.svc.Cancel(context.Background(), fx.patientActor(), c.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
	})
}

func TestUpdateStatus(t *testing.T) {
	fx := newFixture(t)
	assistantActor := model.Actor{ID: uuid.New(), Role: model.RoleAssistant}

	c := fx.create(t, model.ConsultationTypeInitial)

	updated, err := fx.svc.UpdateStatus(context.Background(), assistantActor, c.ID, model.ConsultationStatusAccepted, model.ConsultationTypeEmergency, "urgent")
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusAccepted, updated.Status)
	assert.Equal(t, model.ConsultationTypeEmergency, updated.Type)
	assert.Equal(t, "urgent", updated.Notes)

	require.Len(t, fx.repo.notifications, 1)
	assert.Equal(t, "Consultation Accepted", fx.repo.notifications[0].Title)

	_, err = fx.svc.UpdateStatus(context.Background(), fx.doctorActor(), c.ID, model.ConsultationStatusCancelled, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))
}

func TestListVisibility(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	c := fx.create(t, model.ConsultationTypeInitial)
	_, err := fx.svc.Complete(ctx, fx.doctorActor(), c.ID)
	require.NoError(t, err)
	fx.create(t, model.ConsultationTypeInitial)

	t.Run("patient sees own", func(t *testing.T) {
		out, err := fx.svc.List(ctx, fx.patientActor(), nil)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("doctor sees own", func(t *testing.T) {
		out, err := fx.svc.List(ctx, fx.doctorActor(), nil)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("assistant sees active only", func(t *testing.T) {
		out, err := fx.svc.List(ctx, model.Actor{ID: uuid.New(), Role: model.RoleAssistant}, nil)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.True(t, out[0].Status.Active())
	})

	t.Run("admin sees all", func(t *testing.T) {
		out, err := fx.svc.List(ctx, model.Actor{ID: uuid.New(), Role: model.RoleAdmin}, nil)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})
}

func TestListUpcomingPendingOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	c := fx.create(t, model.ConsultationTypeInitial)
	_, err := fx.svc.Accept(ctx, fx.doctorActor(), c.ID)
	require.NoError(t, err)
	pending := fx.create(t, model.ConsultationTypeInitial)

	out, err := fx.svc.ListUpcoming(ctx, fx.patientActor())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, pending.ID, out[0].ID)
}
