package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one (product, quantity) line in a cart. Vendor-sourced lines
// carry their own price override instead of the catalog selling price.
type CartItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID      uuid.UUID        `gorm:"column:cart_id;type:uuid;not null;index" json:"cart_id"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity    int              `gorm:"column:quantity;not null" json:"quantity"`
	IsVendor    bool             `gorm:"column:is_vendor;not null;default:false" json:"is_vendor"`
	VendorPrice *decimal.Decimal `gorm:"column:vendor_price;type:numeric(12,2)" json:"vendor_price,omitempty"`
	Product     *Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// UnitPrice returns the effective price for the line: the vendor override when
// the line is vendor-sourced, the catalog selling price otherwise.
func (i CartItem) UnitPrice() decimal.Decimal {
	if i.IsVendor {
		if i.VendorPrice != nil {
			return *i.VendorPrice
		}
		return decimal.Zero
	}
	if i.Product != nil {
		return i.Product.SellingPrice
	}
	return decimal.Zero
}
