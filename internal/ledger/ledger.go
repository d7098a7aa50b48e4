// Package ledger holds the pure arithmetic of the sales ledger.
//
// Two totals exist on purpose. SaleTotal uses the price captured on each line
// when the sale was recorded and never changes afterwards. CalendarGross is an
// estimate recomputed from the product's current net price plus the fixed
// surcharge; it moves whenever a product is re-priced.
package ledger

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"go-sales-crm/internal/model"
)

// Currency used for display formatting.
const Currency = money.CLP

// SurchargeRate is the tax applied on top of the net total in the calendar view.
var SurchargeRate = decimal.RequireFromString("0.19")

// LineTotal is quantity × unit price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SaleTotal sums every line at its sale-time price.
func SaleTotal(items []model.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it.Quantity, it.UnitPriceAtSale))
	}
	return total
}

// NetTotal sums every line at the product's current net price. Lines whose
// product was not loaded count as zero.
func NetTotal(items []model.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		total = total.Add(LineTotal(it.Quantity, it.Product.NetPrice))
	}
	return total
}

// CalendarGross is NetTotal with the surcharge applied.
func CalendarGross(items []model.SaleItem) decimal.Decimal {
	return NetTotal(items).Mul(decimal.NewFromInt(1).Add(SurchargeRate))
}

// Format renders amount in Currency, rounded to the currency's minor unit.
func Format(amount decimal.Decimal) string {
	cur := money.GetCurrency(Currency)
	factor := decimal.NewFromInt(10).Pow(decimal.NewFromInt(int64(cur.Fraction)))
	minor := amount.Mul(factor).Round(0).IntPart()
	return money.New(minor, Currency).Display()
}
