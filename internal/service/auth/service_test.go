package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoosuem8800/portal-api/internal/model"
	pkgauth "github.com/hoosuem8800/portal-api/pkg/auth"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/security"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) Get(_ context.Context, _ uuid.UUID) (*model.User, error) {
	return nil, apperrors.NotFound("user")
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func (f *fakeUserRepo) ListByRole(_ context.Context, _ model.Role) ([]*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetDoctorProfile(_ context.Context, _ uuid.UUID) (*model.DoctorProfile, error) {
	return nil, apperrors.NotFound("doctor profile")
}

func (f *fakeUserRepo) UpdateDoctorProfilePicture(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *model.User) {
	t.Helper()

	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        "jane@example.com",
		PasswordHash: hash,
		FirstName:    "Jane",
		LastName:     "Smith",
		Role:         model.RolePatient,
	}
	repo := &fakeUserRepo{users: map[string]*model.User{user.Email: user}}

	jwtSvc := pkgauth.NewJWTService("test-secret", time.Hour)
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(repo, jwtSvc, hasher, time.Hour, log), user
}

func TestLoginIssuesToken(t *testing.T) {
	svc, user := newTestService(t)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := pkgauth.NewJWTService("test-secret", time.Hour).ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(model.RolePatient), claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "invalid email or password")
}
