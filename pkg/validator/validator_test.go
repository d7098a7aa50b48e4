package validator

import (
	"errors"
	"testing"

	"go-sales-crm/internal/apperr"
)

type itemReq struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type saleReq struct {
	ClientID uint      `json:"client_id" validate:"required"`
	Items    []itemReq `json:"items" validate:"required,min=1,dive"`
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		req       saleReq
		wantField string
	}{
		{"valid", saleReq{ClientID: 1, Items: []itemReq{{ProductID: 1, Quantity: 2}}}, ""},
		{"missing client", saleReq{Items: []itemReq{{ProductID: 1, Quantity: 2}}}, "ClientID"},
		{"no items", saleReq{ClientID: 1}, "Items"},
		{"zero quantity", saleReq{ClientID: 1, Items: []itemReq{{ProductID: 1}}}, "Quantity"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(&tc.req)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("Check() = %v, want nil", err)
				}
				return
			}
			var v *apperr.ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("Check() = %v, want ValidationError", err)
			}
			if v.Field != tc.wantField {
				t.Errorf("Field = %q, want %q", v.Field, tc.wantField)
			}
		})
	}
}
