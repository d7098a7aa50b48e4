package policy_test

import (
	"errors"
	"testing"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
)

func TestClientPolicy_OwnerOnly(t *testing.T) {
	p := policy.ClientPolicy{}
	client := &model.Client{UserID: 1}

	owner := policy.Caller{UserID: 1, Role: model.RoleUser}
	if d := p.Check(owner, client); d != policy.Allow {
		t.Errorf("owner decision = %v, want Allow", d)
	}

	other := policy.Caller{UserID: 2, Role: model.RoleUser}
	if d := p.Check(other, client); d != policy.Forbidden {
		t.Errorf("non-owner decision = %v, want Forbidden", d)
	}

	// No admin override for clients.
	admin := policy.Caller{UserID: 99, Role: model.RoleAdmin}
	if d := p.Check(admin, client); d != policy.Forbidden {
		t.Errorf("admin decision = %v, want Forbidden", d)
	}
}

func TestSalePolicy_AdminOverride(t *testing.T) {
	p := policy.SalePolicy{}
	sale := &model.Sale{UserID: 1}

	admin := policy.Caller{UserID: 99, Role: model.RoleAdmin}
	if d := p.Check(admin, sale); d != policy.Allow {
		t.Errorf("admin decision = %v, want Allow", d)
	}

	other := policy.Caller{UserID: 2, Role: model.RoleUser}
	if d := p.Check(other, sale); d != policy.Forbidden {
		t.Errorf("non-owner decision = %v, want Forbidden", d)
	}

	owner := policy.Caller{UserID: 1, Role: model.RoleUser}
	if d := p.Check(owner, sale); d != policy.Allow {
		t.Errorf("owner decision = %v, want Allow", d)
	}
}

func TestMissingResourceIsNotFound(t *testing.T) {
	admin := policy.Caller{UserID: 1, Role: model.RoleAdmin}

	var sale *model.Sale
	if d := (policy.SalePolicy{}).Check(admin, sale); d != policy.NotFound {
		t.Errorf("nil sale decision = %v, want NotFound", d)
	}

	var client *model.Client
	if d := (policy.ClientPolicy{}).Check(admin, client); d != policy.NotFound {
		t.Errorf("nil client decision = %v, want NotFound", d)
	}
}

func TestDecisionErr(t *testing.T) {
	var nf *apperr.NotFoundError
	if err := policy.NotFound.Err("sale", 7); !errors.As(err, &nf) {
		t.Errorf("NotFound.Err = %v, want NotFoundError", err)
	}

	var fb *apperr.ForbiddenError
	if err := policy.Forbidden.Err("client", 7); !errors.As(err, &fb) {
		t.Errorf("Forbidden.Err = %v, want ForbiddenError", err)
	}

	if err := policy.Allow.Err("client", 7); err != nil {
		t.Errorf("Allow.Err = %v, want nil", err)
	}
}
