package model

import (
	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated seller or administrator.
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" validate:"required"`
	Password     string `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string `gorm:"type:varchar(255)" json:"full_name"`
	Zone         string `gorm:"type:varchar(100)" json:"zone"`
	Role         string `gorm:"type:varchar(20);not null;default:'USER'" json:"role" validate:"required,oneof=ADMIN USER"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// IsAdmin reports whether the user carries the administrative role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Zone     string `json:"zone"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Zone:     u.Zone,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
