package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a dated transaction against one client. It has no persisted
// total; totals are always derived from its line items.
type Sale struct {
	BaseModel
	Date        time.Time  `gorm:"not null;index" json:"date"`
	Description *string    `gorm:"type:text" json:"description"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	ClientID    uint       `gorm:"not null;index" json:"client_id"`
	Client      *Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items       []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

// GetUserID returns the owning user.
func (s *Sale) GetUserID() uint {
	return s.UserID
}

// SaleItem is a line of a sale. UnitPriceAtSale is copied from the product's
// total price when the sale is created and never recomputed.
type SaleItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SaleID          uint            `gorm:"not null;index" json:"sale_id"`
	ProductID       uint            `gorm:"not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPriceAtSale decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price_at_sale"`
}
