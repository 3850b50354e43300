package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// RecordInput registers a tender against an order.
type RecordInput struct {
	OrderID   uuid.UUID
	Method    enums.PaymentMethod
	Amount    decimal.Decimal
	Reference *string
}

// Service defines payment operations exposed to the API layer.
type Service interface {
	Record(ctx context.Context, actor Actor, input RecordInput) (*models.Payment, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.PaymentStatus) (*models.Payment, error)
	ListByOrder(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo   Repository
	orders OrderReader
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, orders OrderReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	return &service{repo: repo, orders: orders}, nil
}

// Record registers a payment against an order. Customers may only pay their
// own orders; cancelled orders take no payments.
func (s *service) Record(ctx context.Context, actor Actor, input RecordInput) (*models.Payment, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"method": string(input.Method)})
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	order, err := s.loadOrder(ctx, actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders take no payments")
	}
	if input.Amount.GreaterThan(order.TotalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds order total").
			WithDetails(map[string]any{
				"order_total": order.TotalAmount.StringFixed(2),
				"amount":      input.Amount.StringFixed(2),
			})
	}

	payment := &models.Payment{
		OrderID:   order.ID,
		Method:    input.Method,
		Status:    enums.PaymentStatusPending,
		Amount:    input.Amount,
		Reference: input.Reference,
	}
	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	return created, nil
}

// UpdateStatus settles or fails a pending payment. Admin only; completed and
// failed payments are final.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.PaymentStatus) (*models.Payment, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admin may settle payments")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
			WithDetails(map[string]any{"status": string(status)})
	}

	payment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment is already %s", payment.Status))
	}
	if status == enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already pending")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
	}
	return s.load(ctx, id)
}

func (s *service) ListByOrder(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.loadOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return payments, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
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

	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleCustomer:
		if order.CustomerID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return order, nil
}
