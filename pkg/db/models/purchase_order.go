package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// PurchaseOrder is an admin procurement order placed with a vendor.
type PurchaseOrder struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID    uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null;index" json:"vendor_id"`
	Status      enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	Notes       *string                   `gorm:"column:notes" json:"notes,omitempty"`
	TotalCost   decimal.Decimal           `gorm:"column:total_cost;type:numeric(12,2);not null" json:"total_cost"`
	CreatedByID uuid.UUID                 `gorm:"column:created_by_id;type:uuid;not null" json:"created_by_id"`
	Items       []PurchaseOrderItem       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// PurchaseOrderItem is one product line on a PO. ReceivedQty accumulates as
// GRNs are posted against the order.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null" json:"unit_cost"`
	ReceivedQty     int             `gorm:"column:received_qty;not null;default:0" json:"received_qty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// GoodsReceivedNote confirms receipt of goods against a purchase order.
type GoodsReceivedNote struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID `gorm:"column:purchase_order_id;type:uuid;not null;index" json:"purchase_order_id"`
	ReceivedByID    uuid.UUID `gorm:"column:received_by_id;type:uuid;not null" json:"received_by_id"`
	Notes           *string   `gorm:"column:notes" json:"notes,omitempty"`
	Lines           []GRNLine `gorm:"foreignKey:GRNID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// GRNLine records the received quantity for one PO line.
type GRNLine struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GRNID               uuid.UUID `gorm:"column:grn_id;type:uuid;not null;index" json:"grn_id"`
	PurchaseOrderItemID uuid.UUID `gorm:"column:purchase_order_item_id;type:uuid;not null" json:"purchase_order_item_id"`
	ProductID           uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity            int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
