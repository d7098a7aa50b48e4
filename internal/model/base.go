package model

import (
	"time"
)

// BaseModel handles the surrogate integer ID and the audit timestamps.
// Records are hard-deleted: ownership uniqueness (email, rut) must be
// reusable once a client is gone, so there is no soft delete column.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
