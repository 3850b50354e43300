package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Cart and order handlers read price and stock;
// only admin product endpoints and GRN receipts mutate them.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Description  *string         `gorm:"column:description" json:"description,omitempty"`
	CategoryID   uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index" json:"category_id"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null" json:"selling_price"`
	Stock        int             `gorm:"column:stock;not null;default:0" json:"stock"`
	Unit         string          `gorm:"column:unit;not null;default:'piece'" json:"unit"`
	ImageURL     *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
