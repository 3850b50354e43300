package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
)

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateInput places a new order from the customer's active cart.
type CreateInput struct {
	CustomerID      uuid.UUID
	DeliveryAddress string
}

// UpdateInput edits order fields directly. Nil pointers leave fields
// untouched; which fields a role may touch is decided by the field policy.
type UpdateInput struct {
	OrderID         uuid.UUID
	Actor           Actor
	DeliveryAddress *string
	TotalAmount     *decimal.Decimal
}

// UpdateStatusInput requests a status transition on an order.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   Actor
}

// AssignAgentInput attaches a delivery agent to an order.
type AssignAgentInput struct {
	OrderID uuid.UUID
	AgentID uuid.UUID
	Actor   Actor
}

// ListFilters narrows an order listing.
type ListFilters struct {
	CustomerID      *uuid.UUID
	DeliveryAgentID *uuid.UUID
	Status          *enums.OrderStatus
}

// OrderList is one page of orders plus the unclamped total.
type OrderList struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
