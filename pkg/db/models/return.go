package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Return is a customer-initiated return request against a delivered order.
type Return struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	CustomerID   uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	Status       enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'requested'" json:"status"`
	Reason       string             `gorm:"column:reason;not null" json:"reason"`
	RefundAmount decimal.Decimal    `gorm:"column:refund_amount;type:numeric(12,2);not null" json:"refund_amount"`
	Items        []ReturnItem       `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ReturnItem identifies which order lines (and how many units) come back.
type ReturnItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnID    uuid.UUID `gorm:"column:return_id;type:uuid;not null;index" json:"return_id"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null" json:"order_item_id"`
	Quantity    int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
