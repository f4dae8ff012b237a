// Package auth handles login. Registration is handled out of band.
package auth

import (
	"context"
	"time"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/repository"
	"github.com/hoosuem8800/portal-api/pkg/auth"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
	"github.com/hoosuem8800/portal-api/pkg/security"
)

type Service struct {
	userRepo repository.UserRepository
	jwt      auth.JWTService
	hasher   security.PasswordHasher
	expiry   time.Duration
	logger   *logger.Logger
}

func NewService(userRepo repository.UserRepository, jwt auth.JWTService, hasher security.PasswordHasher, expiry time.Duration, logger *logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwt,
		hasher:   hasher,
		expiry:   expiry,
		logger:   logger.WithComponent("auth"),
	}
}

// Login verifies the credentials and issues a bearer token. An unknown
// email and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn("failed login attempt", "email", req.Email)
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.expiry),
		User:        user,
	}, nil
}
