package procurement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// nextPOStatuses covers the explicit lifecycle moves. partially_received and
// received are reached only by posting GRNs, never by a direct status change.
var nextPOStatuses = map[enums.PurchaseOrderStatus][]enums.PurchaseOrderStatus{
	enums.PurchaseOrderStatusDraft: {
		enums.PurchaseOrderStatusSubmitted,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusSubmitted: {
		enums.PurchaseOrderStatusApproved,
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusApproved: {
		enums.PurchaseOrderStatusCancelled,
	},
	enums.PurchaseOrderStatusReceived: {
		enums.PurchaseOrderStatusClosed,
	},
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// LineInput is one product line on a new purchase order.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  decimal.Decimal
}

// CreateInput opens a draft purchase order with a vendor.
type CreateInput struct {
	VendorID uuid.UUID
	Notes    *string
	Lines    []LineInput
}

// GRNLineInput records received units against one PO line.
type GRNLineInput struct {
	PurchaseOrderItemID uuid.UUID
	Quantity            int
}

// PostGRNInput confirms a goods receipt against an approved purchase order.
type PostGRNInput struct {
	PurchaseOrderID uuid.UUID
	Notes           *string
	Lines           []GRNLineInput
}

// PurchaseOrderList is one page of purchase orders with the total match count.
type PurchaseOrderList struct {
	PurchaseOrders []models.PurchaseOrder `json:"purchase_orders"`
	Total          int64                  `json:"total"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
}

// Service defines procurement operations. All of them are admin-only.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*PurchaseOrderList, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.PurchaseOrderStatus) (*models.PurchaseOrder, error)
	PostGRN(ctx context.Context, actor Actor, input PostGRNInput) (*models.GoodsReceivedNote, error)
	ListGRNs(ctx context.Context, actor Actor, purchaseOrderID uuid.UUID) ([]models.GoodsReceivedNote, error)
}

type service struct {
	repo     Repository
	vendors  VendorReader
	products ProductChecker
	stock    StockAdjuster
	tx       txRunner
}

// NewService builds a procurement service with the required dependencies.
func NewService(repo Repository, vendors VendorReader, products ProductChecker, stock StockAdjuster, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("procurement repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor reader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, vendors: vendors, products: products, stock: stock, tx: tx}, nil
}

// Create opens a draft PO. Total cost is computed from the lines.
func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order needs at least one line")
	}

	vendor, err := s.vendors.FindByID(ctx, input.VendorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if !vendor.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor is inactive")
	}

	ids := make([]uuid.UUID, 0, len(input.Lines))
	total := decimal.Zero
	items := make([]models.PurchaseOrderItem, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id required", i))
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if line.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit cost cannot be negative", i))
		}
		ids = append(ids, line.ProductID)
		total = total.Add(line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.PurchaseOrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		})
	}

	existing, err := s.products.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check products")
	}
	var missing []string
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "some products do not exist").
			WithDetails(map[string]any{"missing_product_ids": missing})
	}

	po := &models.PurchaseOrder{
		VendorID:    input.VendorID,
		Status:      enums.PurchaseOrderStatusDraft,
		Notes:       input.Notes,
		TotalCost:   total,
		CreatedByID: actor.UserID,
		Items:       items,
	}
	created, err := s.repo.Create(ctx, po)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*PurchaseOrderList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	params = params.Normalize()
	pos, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	return &PurchaseOrderList{PurchaseOrders: pos, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// UpdateStatus moves a PO along the explicit lifecycle edges.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.PurchaseOrderStatus) (*models.PurchaseOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown purchase order status").
			WithDetails(map[string]any{"status": string(status)})
	}

	po, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowedPOTransition(po.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("purchase order may not move from %s to %s", po.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
	}
	po.Status = status
	return po, nil
}

// PostGRN records a goods receipt: it accumulates received quantities on the
// PO lines, moves the received units into product stock and settles the PO
// status, all in one transaction.
func (s *service) PostGRN(ctx context.Context, actor Actor, input PostGRNInput) (*models.GoodsReceivedNote, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "goods receipt needs at least one line")
	}

	po, err := s.load(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po.Status != enums.PurchaseOrderStatusApproved && po.Status != enums.PurchaseOrderStatusPartiallyReceived {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot receive goods against a %s purchase order", po.Status))
	}

	poItems := make(map[uuid.UUID]*models.PurchaseOrderItem, len(po.Items))
	for i := range po.Items {
		poItems[po.Items[i].ID] = &po.Items[i]
	}

	seen := make(map[uuid.UUID]bool, len(input.Lines))
	lines := make([]models.GRNLine, 0, len(input.Lines))
	for i, line := range input.Lines {
		item, ok := poItems[line.PurchaseOrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: item does not belong to this purchase order", i))
		}
		if seen[line.PurchaseOrderItemID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: duplicate purchase order item", i))
		}
		seen[line.PurchaseOrderItemID] = true
		outstanding := item.Quantity - item.ReceivedQty
		if line.Quantity <= 0 || line.Quantity > outstanding {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: quantity must be between 1 and %d", i, outstanding))
		}
		lines = append(lines, models.GRNLine{
			PurchaseOrderItemID: line.PurchaseOrderItemID,
			ProductID:           item.ProductID,
			Quantity:            line.Quantity,
		})
	}

	var created *models.GoodsReceivedNote
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		grn, err := repo.CreateGRN(ctx, &models.GoodsReceivedNote{
			PurchaseOrderID: po.ID,
			ReceivedByID:    actor.UserID,
			Notes:           input.Notes,
			Lines:           lines,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create goods received note")
		}
		created = grn

		for _, line := range lines {
			if err := repo.AddReceivedQty(ctx, line.PurchaseOrderItemID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accumulate received quantity")
			}
			if err := s.stock.Increment(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			poItems[line.PurchaseOrderItemID].ReceivedQty += line.Quantity
		}

		next := enums.PurchaseOrderStatusReceived
		for _, item := range po.Items {
			if item.ReceivedQty < item.Quantity {
				next = enums.PurchaseOrderStatusPartiallyReceived
				break
			}
		}
		if err := repo.UpdateStatus(ctx, po.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle purchase order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) ListGRNs(ctx context.Context, actor Actor, purchaseOrderID uuid.UUID) ([]models.GoodsReceivedNote, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, purchaseOrderID); err != nil {
		return nil, err
	}
	grns, err := s.repo.ListGRNs(ctx, purchaseOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list goods received notes")
	}
	return grns, nil
}

func allowedPOTransition(current, target enums.PurchaseOrderStatus) bool {
	for _, candidate := range nextPOStatuses[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

func requireAdmin(actor Actor) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admin may manage procurement")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	po, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return po, nil
}
