// Package notification serves the per-user notification feed. Entries are
// created by domain transitions; direct creation is an admin tool.
package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/email"
	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

type Service struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	mailer   email.Sender
	logger   *logger.Logger
}

func NewService(repo repository.NotificationRepository, userRepo repository.UserRepository, mailer email.Sender, logger *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger.WithComponent("notification"),
	}
}

// Create records a notification directly. Admin only; domain transitions
// write theirs inside their own transactions.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateNotificationRequest) (*model.Notification, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperrors.PermissionDenied("only admins may create notifications directly")
	}

	notificationType := req.Type
	if notificationType == "" {
		notificationType = model.NotificationTypeSystem
	}

	note := &model.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    notificationType,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}

	s.deliverEmail(ctx, note)
	return note, nil
}

// List returns the actor's notifications, newest first.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.Notification, error) {
	return s.repo.ListForUser(ctx, actor.ID)
}

// MarkRead flips the read flag on one of the actor's notifications.
func (s *Service) MarkRead(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, actor.ID)
}

// MarkAllRead flips the read flag on everything the actor has.
func (s *Service) MarkAllRead(ctx context.Context, actor model.Actor) error {
	return s.repo.MarkAllRead(ctx, actor.ID)
}

// CountUnread returns the actor's unread notification count.
func (s *Service) CountUnread(ctx context.Context, actor model.Actor) (int, error) {
	return s.repo.CountUnread(ctx, actor.ID)
}

// deliverEmail mirrors the notification to the recipient's inbox.
// Delivery failures are logged, never surfaced.
func (s *Service) deliverEmail(ctx context.Context, note *model.Notification) {
	if s.mailer == nil {
		return
	}
	user, err := s.userRepo.Get(ctx, note.UserID)
	if err != nil {
		s.logger.Error(err, "failed to resolve notification recipient", "user_id", note.UserID.String())
		return
	}
	if err := s.mailer.Send(user.Email, note.Title, note.Message); err != nil {
		s.logger.Error(err, "failed to deliver notification email", "user_id", note.UserID.String())
	}
}
