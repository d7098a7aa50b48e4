package model

import "github.com/shopspring/decimal"

// Product is read by the sales ledger. NetPrice is the price before tax,
// TotalPrice the tax-inclusive price copied into sale line items.
type Product struct {
	BaseModel
	Name       string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	NetPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"net_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_price"`
}
