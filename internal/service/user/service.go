// Package user serves profiles and doctor/assistant directories.
package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

type Service struct {
	repo   repository.UserRepository
	logger *logger.Logger
}

func NewService(repo repository.UserRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.WithComponent("user"),
	}
}

// GetProfile returns the actor's own profile.
func (s *Service) GetProfile(ctx context.Context, actor model.Actor) (*model.User, error) {
	return s.repo.Get(ctx, actor.ID)
}

// UpdateProfile applies the provided fields to the actor's profile and
// keeps the doctor record's picture in step when it changed.
func (s *Service) UpdateProfile(ctx context.Context, actor model.Actor, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	pictureChanged := false
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Location != nil {
		user.Location = req.Location
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = req.ProfilePicture
		pictureChanged = true
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if pictureChanged {
		if err := s.SyncProfilePicture(ctx, user.ID); err != nil {
			s.logger.Error(err, "failed to sync doctor profile picture", "user_id", user.ID.String())
		}
	}
	return user, nil
}

// SyncProfilePicture copies the user's picture onto their doctor record.
// An explicit operation invoked by the write path that changed the
// picture; no-op for non-doctors.
func (s *Service) SyncProfilePicture(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != model.RoleDoctor || user.ProfilePicture == nil {
		return nil
	}

	err = s.repo.UpdateDoctorProfilePicture(ctx, userID, *user.ProfilePicture)
	if err != nil && apperrors.IsCode(err, apperrors.ErrNotFound) {
		// doctors without a profile record have nothing to sync
		return nil
	}
	return err
}

// ListDoctors returns the doctor directory. Visible to every role.
func (s *Service) ListDoctors(ctx context.Context) ([]*model.User, error) {
	return s.repo.ListByRole(ctx, model.RoleDoctor)
}

// ListAssistants returns the assistant directory. Staff only.
func (s *Service) ListAssistants(ctx context.Context, actor model.Actor) ([]*model.User, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.PermissionDenied("only staff may list assistants")
	}
	return s.repo.ListByRole(ctx, model.RoleAssistant)
}

// GetDoctorProfile returns the doctor-specific record for a doctor user.
func (s *Service) GetDoctorProfile(ctx context.Context, doctorID uuid.UUID) (*model.DoctorProfile, error) {
	return s.repo.GetDoctorProfile(ctx, doctorID)
}
