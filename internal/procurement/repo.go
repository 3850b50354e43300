package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a procurement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, po *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return nil, err
	}
	return po, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.PurchaseOrder, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if filters.VendorID != nil {
		query = query.Where("vendor_id = ?", *filters.VendorID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []models.PurchaseOrder
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&pos).Error
	if err != nil {
		return nil, 0, err
	}
	return pos, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) AddReceivedQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE purchase_order_items
		SET received_qty = received_qty + ?
		WHERE id = ?
	`, qty, itemID).Error
}

func (r *repository) CreateGRN(ctx context.Context, grn *models.GoodsReceivedNote) (*models.GoodsReceivedNote, error) {
	if err := r.db.WithContext(ctx).Create(grn).Error; err != nil {
		return nil, err
	}
	return grn, nil
}

func (r *repository) ListGRNs(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.GoodsReceivedNote, error) {
	var grns []models.GoodsReceivedNote
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at ASC").
		Find(&grns).Error
	if err != nil {
		return nil, err
	}
	return grns, nil
}
