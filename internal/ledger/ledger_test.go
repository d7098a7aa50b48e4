package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"go-sales-crm/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSaleTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []model.SaleItem
		want  string
	}{
		{"empty", nil, "0"},
		{"single line", []model.SaleItem{{Quantity: 3, UnitPriceAtSale: d("1190")}}, "3570"},
		{
			"several lines",
			[]model.SaleItem{
				{Quantity: 2, UnitPriceAtSale: d("10.50")},
				{Quantity: 1, UnitPriceAtSale: d("0.25")},
				{Quantity: 4, UnitPriceAtSale: d("100")},
			},
			"421.25",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SaleTotal(tc.items); !got.Equal(d(tc.want)) {
				t.Errorf("SaleTotal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSaleTotalIgnoresCurrentProductPrice(t *testing.T) {
	items := []model.SaleItem{{
		Quantity:        2,
		UnitPriceAtSale: d("500"),
		Product:         &model.Product{NetPrice: d("9999"), TotalPrice: d("9999")},
	}}
	if got := SaleTotal(items); !got.Equal(d("1000")) {
		t.Errorf("SaleTotal = %s, want 1000", got)
	}
}

func TestCalendarGross(t *testing.T) {
	items := []model.SaleItem{
		{Quantity: 2, UnitPriceAtSale: d("1"), Product: &model.Product{NetPrice: d("1000")}},
		{Quantity: 1, UnitPriceAtSale: d("1"), Product: &model.Product{NetPrice: d("500")}},
		{Quantity: 5, UnitPriceAtSale: d("1")}, // product not loaded
	}

	if got := NetTotal(items); !got.Equal(d("2500")) {
		t.Errorf("NetTotal = %s, want 2500", got)
	}
	if got := CalendarGross(items); !got.Equal(d("2975")) {
		t.Errorf("CalendarGross = %s, want 2975", got)
	}
}

func TestFormatRounds(t *testing.T) {
	if Format(d("1189.6")) != Format(d("1190")) {
		t.Errorf("Format(1189.6) = %q, want same as Format(1190) = %q", Format(d("1189.6")), Format(d("1190")))
	}
	if Format(d("0")) == "" {
		t.Error("Format(0) should not be empty")
	}
}
