// Package policy decides whether a caller may read or mutate a client or a
// sale. The two resource types deliberately use separate policies: sales
// honour the ADMIN override, clients never do.
package policy

import (
	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"
)

// Caller is the authenticated identity passed explicitly into every core
// operation.
type Caller struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the caller carries the ADMIN role.
func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// Ownable is implemented by resources that belong to exactly one user.
type Ownable interface {
	GetUserID() uint
}

// Decision is the outcome of an access check.
type Decision int

const (
	Allow Decision = iota
	NotFound
	Forbidden
)

// Err converts the decision into the matching apperr value, or nil on Allow.
func (d Decision) Err(resource string, id any) error {
	switch d {
	case NotFound:
		return apperr.NotFound(resource, id)
	case Forbidden:
		return apperr.Forbidden(resource)
	}
	return nil
}

// CanAccess is the base rule: the caller owns the resource, or is an admin
// and the resource type allows the override.
func CanAccess(caller Caller, ownerID uint, adminOverride bool) bool {
	if adminOverride && caller.IsAdmin() {
		return true
	}
	return ownerID == caller.UserID
}

// ClientPolicy is strictly owner-scoped.
type ClientPolicy struct{}

// Check resolves a nil resource to NotFound before looking at ownership.
func (ClientPolicy) Check(caller Caller, resource Ownable) Decision {
	if isNil(resource) {
		return NotFound
	}
	if !CanAccess(caller, resource.GetUserID(), false) {
		return Forbidden
	}
	return Allow
}

// SalePolicy lets admins read and delete any sale.
type SalePolicy struct{}

// Check resolves a nil resource to NotFound before looking at ownership.
func (SalePolicy) Check(caller Caller, resource Ownable) Decision {
	if isNil(resource) {
		return NotFound
	}
	if !CanAccess(caller, resource.GetUserID(), true) {
		return Forbidden
	}
	return Allow
}

func isNil(r Ownable) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *model.Client:
		return v == nil
	case *model.Sale:
		return v == nil
	}
	return false
}
