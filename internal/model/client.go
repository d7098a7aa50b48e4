package model

// PaymentStatus is the collection state of a client account.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentOverdue PaymentStatus = "OVERDUE"
)

// Client is a customer owned by exactly one user.
//
// (email, user_id) is unique, and (tax_id, user_id) is unique when tax_id
// is set. Name is a legacy display field kept equal to LegalName.
type Client struct {
	BaseModel
	UserID uint `gorm:"not null;index;uniqueIndex:idx_clients_email_user,priority:2;uniqueIndex:idx_clients_tax_id_user,priority:2" json:"user_id"`

	Name          string        `gorm:"type:varchar(255);not null" json:"name"`
	LegalName     string        `gorm:"type:varchar(255);not null;index" json:"legal_name"`
	AliasName     string        `gorm:"type:varchar(255)" json:"alias_name"`
	TaxID         *string       `gorm:"type:varchar(50);uniqueIndex:idx_clients_tax_id_user,priority:1" json:"tax_id"`
	Email         string        `gorm:"type:varchar(255);not null;uniqueIndex:idx_clients_email_user,priority:1" json:"email"`
	Phone         string        `gorm:"type:varchar(50)" json:"phone"`
	Address       string        `gorm:"type:varchar(500)" json:"address"`
	Latitude      *float64      `json:"latitude"`
	Longitude     *float64      `json:"longitude"`
	PaymentTerms  string        `gorm:"type:varchar(255)" json:"payment_terms"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"payment_status"`

	// Commercial classification, mostly populated by spreadsheet imports.
	Company      string `gorm:"type:varchar(255)" json:"company"`
	ClientCode   string `gorm:"type:varchar(100)" json:"client_code"`
	DispatchType string `gorm:"type:varchar(100)" json:"dispatch_type"`
	Channel      string `gorm:"type:varchar(100)" json:"channel"`
	SubChannel   string `gorm:"type:varchar(100)" json:"sub_channel"`
	BusinessLine string `gorm:"type:varchar(255)" json:"business_line"`
	Contact      string `gorm:"type:varchar(255)" json:"contact"`
	PriceList    string `gorm:"type:varchar(100)" json:"price_list"`
	SalesRep     string `gorm:"type:varchar(255)" json:"sales_rep"`
	AddressType  string `gorm:"type:varchar(100)" json:"address_type"`
	City         string `gorm:"type:varchar(100)" json:"city"`
	District     string `gorm:"type:varchar(100)" json:"district"`

	Sales []Sale `gorm:"foreignKey:ClientID" json:"sales,omitempty"`
}

// GetUserID returns the owning user.
func (c *Client) GetUserID() uint {
	return c.UserID
}

// DisplayName prefers the legal name and falls back to the legacy name.
func (c *Client) DisplayName() string {
	if c.LegalName != "" {
		return c.LegalName
	}
	return c.Name
}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue:
		return true
	}
	return false
}

// UpsertColumns lists the columns overwritten when an import row matches an
// existing (email, user_id) pair.
var UpsertColumns = []string{
	"name", "legal_name", "alias_name", "tax_id", "phone", "address",
	"payment_terms", "payment_status", "company", "client_code",
	"dispatch_type", "channel", "sub_channel", "business_line", "contact",
	"price_list", "sales_rep", "address_type", "city", "district",
	"updated_at",
}
