package user

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoosuem8800/portal-api/internal/model"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

type fakeUserRepo struct {
	users          map[uuid.UUID]*model.User
	profiles       map[uuid.UUID]*model.DoctorProfile
	syncedPictures map[uuid.UUID]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:          make(map[uuid.UUID]*model.User),
		profiles:       make(map[uuid.UUID]*model.DoctorProfile),
		syncedPictures: make(map[uuid.UUID]string),
	}
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
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return apperrors.NotFound("user")
	}
	*stored = *user
	return nil
}

func (f *fakeUserRepo) ListByRole(_ context.Context, role model.Role) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.users {
		if u.Role == role {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetDoctorProfile(_ context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("doctor profile")
	}
	return p, nil
}

func (f *fakeUserRepo) UpdateDoctorProfilePicture(_ context.Context, userID uuid.UUID, path string) error {
	if _, ok := f.profiles[userID]; !ok {
		return apperrors.NotFound("doctor profile")
	}
	f.syncedPictures[userID] = path
	return nil
}

func newTestService(repo *fakeUserRepo) *Service {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(repo, log)
}

func strPtr(s string) *string { return &s }

func TestUpdateProfileMergesProvidedFields(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.add(model.RolePatient, "Jane", "Smith")
	svc := newTestService(repo)

	updated, err := svc.UpdateProfile(context.Background(), model.Actor{ID: u.ID, Role: u.Role}, &model.UpdateProfileRequest{
		FirstName: strPtr("Janet"),
		Location:  strPtr("Lagos"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, "Smith", updated.LastName)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Lagos", *updated.Location)
}

func TestUpdateProfileSyncsDoctorPicture(t *testing.T) {
	repo := newFakeUserRepo()
	doc := repo.add(model.RoleDoctor, "Gregory", "House")
	repo.profiles[doc.ID] = &model.DoctorProfile{UserID: doc.ID, Specialty: "Pulmonology"}
	svc := newTestService(repo)

	_, err := svc.UpdateProfile(context.Background(), model.Actor{ID: doc.ID, Role: doc.Role}, &model.UpdateProfileRequest{
		ProfilePicture: strPtr("uploads/house.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, "uploads/house.png", repo.syncedPictures[doc.ID])
}

func TestSyncProfilePictureIgnoresNonDoctors(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.add(model.RolePatient, "Jane", "Smith")
	u.ProfilePicture = strPtr("uploads/jane.png")
	svc := newTestService(repo)

	require.NoError(t, svc.SyncProfilePicture(context.Background(), u.ID))
	assert.Empty(t, repo.syncedPictures)
}

func TestSyncProfilePictureToleratesMissingProfile(t *testing.T) {
	repo := newFakeUserRepo()
	doc := repo.add(model.RoleDoctor, "Gregory", "House")
	doc.ProfilePicture = strPtr("uploads/house.png")
	svc := newTestService(repo)

	// doctor user without a doctor_profiles row
	require.NoError(t, svc.SyncProfilePicture(context.Background(), doc.ID))
}

func TestListAssistantsStaffOnly(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(model.RoleAssistant, "Amy", "Pond")
	patient := repo.add(model.RolePatient, "Jane", "Smith")
	admin := repo.add(model.RoleAdmin, "Ada", "Root")
	svc := newTestService(repo)

	_, err := svc.ListAssistants(context.Background(), model.Actor{ID: patient.ID, Role: model.RolePatient})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))

	assistants, err := svc.ListAssistants(context.Background(), model.Actor{ID: admin.ID, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, assistants, 1)
}

func TestListDoctorsVisibleToEveryRole(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(model.RoleDoctor, "Gregory", "House")
	repo.add(model.RolePatient, "Jane", "Smith")
	svc := newTestService(repo)

	doctors, err := svc.ListDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Gregory House", doctors[0].FullName())
}
