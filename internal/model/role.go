package model

// Role codes carried by every authenticated caller.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// IsValidRole reports whether code is one of the known role codes.
func IsValidRole(code string) bool {
	return code == RoleAdmin || code == RoleUser
}
