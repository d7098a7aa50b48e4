package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/repository"
	"go-sales-crm/pkg/validator"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, req *UpdateUserRequest) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name"`
	Zone     string `json:"zone"`
	Role     string `json:"role" validate:"required,oneof=ADMIN USER"`
}

type UpdateUserRequest struct {
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName string  `json:"full_name"`
	Zone     string  `json:"zone"`
	Role     string  `json:"role" validate:"required,oneof=ADMIN USER"`
	IsActive *bool   `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		FullName: req.FullName,
		Zone:     req.Zone,
		Role:     req.Role,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser edits profile fields. Changing the password or deactivating
// the account ends the current session.
func (s *userService) UpdateUser(ctx context.Context, id uint, req *UpdateUserRequest) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, err
	}

	user.FullName = req.FullName
	user.Zone = req.Zone
	user.Role = req.Role
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if !user.IsActive {
			user.TokenVersion = uuid.NewString()
		}
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.TokenVersion = uuid.NewString()
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

// ResetPassword sets a new password without knowing the old one and ends
// the user's session. Used by the admin CLI.
func (s *userService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.Validation("password", "must be at least 6 characters")
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("user", username)
		}
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.TokenVersion = uuid.NewString()
	return s.userRepo.Update(ctx, user)
}

// EnsureAdmin creates the administrator account on first start. It reports
// whether a user was created.
func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return false, nil
	} else if !apperr.IsNotFound(err) {
		return false, err
	}

	_, err := s.CreateUser(ctx, &CreateUserRequest{
		Username: username,
		Password: password,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
	})
	return err == nil, err
}
