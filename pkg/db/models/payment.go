package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Payment records a tender against an order. Settlement with a processor
// happens outside this service; only the outcome is stored.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Method    enums.PaymentMethod `gorm:"column:method;type:text;not null" json:"method"`
	Status    enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Reference *string             `gorm:"column:reference" json:"reference,omitempty"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
