package notification

import (
	"context"
	"errors"
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

type fakeNotificationRepo struct {
	notifications map[uuid.UUID]*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[uuid.UUID]*model.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	stored := *n
	f.notifications[n.ID] = &stored
	return nil
}

func (f *fakeNotificationRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	n, ok := f.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.NotFound("notification")
	}
	n.IsRead = true
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, apperrors.NotFound("user")
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

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(to, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestService(repo *fakeNotificationRepo, users *fakeUserRepo, mailer *fakeMailer) *Service {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(repo, users, mailer, log)
}

func TestCreateAdminOnly(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := newTestService(repo, &fakeUserRepo{users: map[uuid.UUID]*model.User{}}, &fakeMailer{})

	_, err := svc.Create(context.Background(), model.Actor{ID: uuid.New(), Role: model.RolePatient}, &model.CreateNotificationRequest{
		UserID:  uuid.New(),
		Title:   "Maintenance",
		Message: "The portal will be down tonight.",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermissionDenied))
	assert.Empty(t, repo.notifications)
}

func TestCreateDefaultsToSystemTypeAndMirrorsEmail(t *testing.T) {
	repo := newFakeNotificationRepo()
	recipient := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "jane@example.com",
		Role:  model.RolePatient,
	}
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{recipient.ID: recipient}}
	mailer := &fakeMailer{}
	svc := newTestService(repo, users, mailer)

	note, err := svc.Create(context.Background(), model.Actor{ID: uuid.New(), Role: model.RoleAdmin}, &model.CreateNotificationRequest{
		UserID:  recipient.ID,
		Title:   "Maintenance",
		Message: "The portal will be down tonight.",
	})
	require.NoError(t, err)

	assert.Equal(t, model.NotificationTypeSystem, note.Type)
	assert.Equal(t, []string{"jane@example.com"}, mailer.sent)
}

func TestCreateSurvivesEmailFailure(t *testing.T) {
	repo := newFakeNotificationRepo()
	recipient := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "jane@example.com",
	}
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{recipient.ID: recipient}}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := newTestService(repo, users, mailer)

	_, err := svc.Create(context.Background(), model.Actor{ID: uuid.New(), Role: model.RoleAdmin}, &model.CreateNotificationRequest{
		UserID:  recipient.ID,
		Title:   "Maintenance",
		Message: "The portal will be down tonight.",
	})
	require.NoError(t, err)
	assert.Len(t, repo.notifications, 1)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := newFakeNotificationRepo()
	owner := uuid.New()
	note := &model.Notification{UserID: owner, Title: "Hi", Message: "msg", Type: model.NotificationTypeSystem}
	require.NoError(t, repo.Create(context.Background(), note))

	svc := newTestService(repo, &fakeUserRepo{users: map[uuid.UUID]*model.User{}}, &fakeMailer{})

	err := svc.MarkRead(context.Background(), model.Actor{ID: uuid.New(), Role: model.RolePatient}, note.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	require.NoError(t, svc.MarkRead(context.Background(), model.Actor{ID: owner, Role: model.RolePatient}, note.ID))

	count, err := svc.CountUnread(context.Background(), model.Actor{ID: owner, Role: model.RolePatient})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	owner := uuid.New()
	for i := 0; i < 3; i++ {
		n := &model.Notification{UserID: owner, Title: "Hi", Message: "msg", Type: model.NotificationTypeSystem}
		require.NoError(t, repo.Create(context.Background(), n))
	}

	svc := newTestService(repo, &fakeUserRepo{users: map[uuid.UUID]*model.User{}}, &fakeMailer{})
	actor := model.Actor{ID: owner, Role: model.RolePatient}

	count, err := svc.CountUnread(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, svc.MarkAllRead(context.Background(), actor))

	count, err = svc.CountUnread(context.Background(), actor)
	require.NoError(t, err)
	assert.Zero(t, count)
}
