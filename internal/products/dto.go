package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
)

// CreateInput describes a new catalog product.
type CreateInput struct {
	Name         string
	Description  *string
	CategoryID   uuid.UUID
	Price        decimal.Decimal
	SellingPrice decimal.Decimal
	Stock        int
	Unit         string
	ImageURL     *string
}

// UpdateInput carries the patchable product fields; nil means unchanged.
type UpdateInput struct {
	Name         *string
	Description  *string
	CategoryID   *uuid.UUID
	Price        *decimal.Decimal
	SellingPrice *decimal.Decimal
	Stock        *int
	Unit         *string
	ImageURL     *string
	IsActive     *bool
}

// ListFilters narrows a product listing.
type ListFilters struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	Search     string
}

// ProductList is one page of products plus the unclamped total.
type ProductList struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}
