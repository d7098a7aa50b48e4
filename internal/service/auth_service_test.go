package service

import (
	"errors"
	"testing"
	"time"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/repository"
	"go-sales-crm/pkg/database"
	"go-sales-crm/pkg/jwt"
)

func newAuth(t *testing.T) (AuthService, UserService) {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	users := repository.NewUserRepo(db)
	return NewAuthService(users, jwt.NewSigner("test-secret", time.Hour)), NewUserService(users)
}

func TestLoginAndAuthenticate(t *testing.T) {
	auth, users := newAuth(t)

	if _, err := users.CreateUser(ctxBack, &CreateUserRequest{
		Username: "vendedora", Password: "secreta1", Role: model.RoleUser,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := auth.Login(ctxBack, "vendedora", "incorrecta"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := auth.Login(ctxBack, "nadie", "secreta1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}

	first, err := auth.Login(ctxBack, "vendedora", "secreta1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	caller, err := auth.Authenticate(ctxBack, first.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if caller.UserID != first.User.ID || caller.Role != model.RoleUser {
		t.Errorf("caller = %+v", caller)
	}

	// A second login replaces the first session.
	second, err := auth.Login(ctxBack, "vendedora", "secreta1")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if _, err := auth.Authenticate(ctxBack, first.Token); !errors.Is(err, ErrSessionReplaced) {
		t.Errorf("old token: err = %v, want ErrSessionReplaced", err)
	}
	if _, err := auth.Authenticate(ctxBack, second.Token); err != nil {
		t.Errorf("new token: %v", err)
	}
	if _, err := auth.Authenticate(ctxBack, "garbage"); !errors.Is(err, jwt.ErrInvalidToken) {
		t.Errorf("garbage token: err = %v", err)
	}
}

func TestUserLifecycle(t *testing.T) {
	auth, users := newAuth(t)

	created, err := users.EnsureAdmin(ctxBack, "admin", "admin123")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin = %v, %v", created, err)
	}
	if created, err := users.EnsureAdmin(ctxBack, "admin", "admin123"); err != nil || created {
		t.Errorf("second EnsureAdmin = %v, %v, want false", created, err)
	}

	_, err = users.CreateUser(ctxBack, &CreateUserRequest{Username: "admin", Password: "otra-clave", Role: model.RoleUser})
	if c := wantErr[*apperr.ConflictError](t, err); c.Field != "username" {
		t.Errorf("conflict field = %q", c.Field)
	}
	_, err = users.CreateUser(ctxBack, &CreateUserRequest{Username: "x", Password: "123456", Role: "ROOT"})
	wantErr[*apperr.ValidationError](t, err)

	login, err := auth.Login(ctxBack, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := users.ResetPassword(ctxBack, "admin", "nueva-clave"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := auth.Authenticate(ctxBack, login.Token); !errors.Is(err, ErrSessionReplaced) {
		t.Errorf("token after reset: err = %v", err)
	}
	if _, err := auth.Login(ctxBack, "admin", "nueva-clave"); err != nil {
		t.Errorf("Login with new password: %v", err)
	}

	inactive := false
	if _, err := users.UpdateUser(ctxBack, login.User.ID, &UpdateUserRequest{Role: model.RoleAdmin, IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if _, err := auth.Login(ctxBack, "admin", "nueva-clave"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("inactive login: err = %v", err)
	}

	list, err := users.GetAllUsers(ctxBack)
	if err != nil || len(list) != 1 {
		t.Errorf("GetAllUsers = %v, %v", list, err)
	}
}
