package procurement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// Repository is the persistence surface for purchase orders and GRNs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, po *models.PurchaseOrder) (*models.PurchaseOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.PurchaseOrder, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus) error
	AddReceivedQty(ctx context.Context, itemID uuid.UUID, qty int) error
	CreateGRN(ctx context.Context, grn *models.GoodsReceivedNote) (*models.GoodsReceivedNote, error)
	ListGRNs(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.GoodsReceivedNote, error)
}

// ListFilters narrows purchase order listings.
type ListFilters struct {
	VendorID *uuid.UUID
	Status   *enums.PurchaseOrderStatus
}

// VendorReader confirms the vendor a PO is placed with.
type VendorReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// ProductChecker reports which of the given product IDs exist and are active.
type ProductChecker interface {
	ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// StockAdjuster moves received goods into product stock inside the caller's
// transaction.
type StockAdjuster interface {
	Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}
