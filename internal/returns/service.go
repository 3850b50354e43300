package returns

import (
	"context"
	"fmt"
	"strings"

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

// nextReturnStatuses is the return lifecycle: a request is triaged to
// approved or rejected, approved goods are picked up, picked-up goods are
// refunded. Rejected and refunded are terminal.
var nextReturnStatuses = map[enums.ReturnStatus][]enums.ReturnStatus{
	enums.ReturnStatusRequested: {enums.ReturnStatusApproved, enums.ReturnStatusRejected},
	enums.ReturnStatusApproved:  {enums.ReturnStatusPickedUp},
	enums.ReturnStatusPickedUp:  {enums.ReturnStatusRefunded},
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// LineInput names one order line coming back and how many units of it.
type LineInput struct {
	OrderItemID uuid.UUID
	Quantity    int
}

// CreateInput is a customer's return request against a delivered order.
type CreateInput struct {
	OrderID uuid.UUID
	Reason  string
	Lines   []LineInput
}

// ReturnList is one page of returns with the total match count.
type ReturnList struct {
	Returns []models.Return `json:"returns"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// Service defines return operations exposed to the API layer.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateInput) (*models.Return, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Return, error)
	List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*ReturnList, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.ReturnStatus) (*models.Return, error)
}

type service struct {
	repo     Repository
	orders   OrderReader
	notifier Notifier
	tx       txRunner
}

// NewService builds a return service with the required dependencies.
func NewService(repo Repository, orders OrderReader, notifier Notifier, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("return repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: orders, notifier: notifier, tx: tx}, nil
}

// Create raises a return against a delivered order. The refund amount is
// derived from the order's price snapshots, never from the request.
func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*models.Return, error) {
	if actor.Role != enums.UserRoleCustomer && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return needs at least one line")
	}

	order, err := s.loadOrder(ctx, actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
	}

	orderItems := make(map[uuid.UUID]models.OrderItem, len(order.Items))
	for _, item := range order.Items {
		orderItems[item.ID] = item
	}

	refund := decimal.Zero
	items := make([]models.ReturnItem, 0, len(input.Lines))
	seen := make(map[uuid.UUID]bool, len(input.Lines))
	for i, line := range input.Lines {
		item, ok := orderItems[line.OrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: item does not belong to this order", i))
		}
		if seen[line.OrderItemID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: duplicate order item", i))
		}
		seen[line.OrderItemID] = true
		if line.Quantity <= 0 || line.Quantity > item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: quantity must be between 1 and %d", i, item.Quantity))
		}
		refund = refund.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.ReturnItem{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}

	var created *models.Return
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.Create(ctx, &models.Return{
			OrderID:      order.ID,
			CustomerID:   order.CustomerID,
			Status:       enums.ReturnStatusRequested,
			Reason:       strings.TrimSpace(input.Reason),
			RefundAmount: refund,
			Items:        items,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		created = ret

		return s.notifier.NotifyTx(ctx, tx, order.CustomerID, enums.NotificationTypeReturnStatus,
			"Return requested",
			fmt.Sprintf("Your return for %s has been requested.", refund.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Return, error) {
	ret, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(actor, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// List scopes results by role: customers see their own returns, admin sees
// everything.
func (s *service) List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*ReturnList, error) {
	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleCustomer:
		filters.CustomerID = &actor.UserID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}

	params = params.Normalize()
	rets, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return &ReturnList{Returns: rets, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// UpdateStatus moves a return along its lifecycle. Admin only; the customer
// is notified on every change.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.ReturnStatus) (*models.Return, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admin may triage returns")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown return status").
			WithDetails(map[string]any{"status": string(status)})
	}

	ret, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowedReturnTransition(ret.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("return may not move from %s to %s", ret.Status, status))
	}

	var updated *models.Return
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return")
		}
		ret.Status = status
		updated = ret

		body := fmt.Sprintf("Your return is now %s.", status)
		if status == enums.ReturnStatusRefunded {
			body = fmt.Sprintf("Your refund of %s has been issued.", ret.RefundAmount.StringFixed(2))
		}
		return s.notifier.NotifyTx(ctx, tx, ret.CustomerID, enums.NotificationTypeReturnStatus,
			"Return update", body)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func allowedReturnTransition(current, target enums.ReturnStatus) bool {
	for _, candidate := range nextReturnStatuses[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

func (s *service) checkVisibility(actor Actor, ret *models.Return) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleCustomer:
		if ret.CustomerID == actor.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	ret, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
	}
	return ret, nil
}

func (s *service) loadOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if actor.Role == enums.UserRoleCustomer && order.CustomerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}
