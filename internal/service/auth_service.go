package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/repository"
	"go-sales-crm/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (policy.Caller, error)
	ChangePassword(ctx context.Context, caller policy.Caller, oldPassword, newPassword string) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	signer   *jwt.Signer
}

func NewAuthService(userRepo repository.UserRepository, signer *jwt.Signer) AuthService {
	return &authService{
		userRepo: userRepo,
		signer:   signer,
	}
}

// Login checks the credentials and starts a new session. Issuing a new token
// version invalidates every token handed out before.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single Session: Generate New Token Version
	version := uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	token, err := s.signer.GenerateToken(user.ID, user.Username, user.Role, version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

// Authenticate resolves a bearer token into the caller identity. The role is
// read from the store so that demotions apply immediately.
func (s *authService) Authenticate(ctx context.Context, token string) (policy.Caller, error) {
	claims, err := s.signer.ValidateToken(token)
	if err != nil {
		return policy.Caller{}, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return policy.Caller{}, apperr.ErrUnauthorized
		}
		return policy.Caller{}, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return policy.Caller{}, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return policy.Caller{}, ErrSessionReplaced
	}

	return policy.Caller{UserID: user.ID, Role: user.Role}, nil
}

func (s *authService) ChangePassword(ctx context.Context, caller policy.Caller, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.Validation("new_password", "must be at least 6 characters")
	}

	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}
