package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/internal/cart"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
	Update(ctx context.Context, input UpdateInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	AssignAgent(ctx context.Context, input AssignAgentInput) (*models.Order, error)
	Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error
}

type service struct {
	repo     Repository
	cartRepo cart.Repository
	stock    StockAdjuster
	notifier Notifier
	agents   AgentChecker
	tx       txRunner
	policy   enums.VendorPricePolicy
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, cartRepo cart.Repository, stock StockAdjuster, notifier Notifier, agents AgentChecker, tx txRunner, policy enums.VendorPricePolicy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid vendor price policy %q", policy)
	}
	return &service{
		repo:     repo,
		cartRepo: cartRepo,
		stock:    stock,
		notifier: notifier,
		agents:   agents,
		tx:       tx,
		policy:   policy,
	}, nil
}

// Create turns the customer's active cart into a pending order, decrements
// stock and empties the cart, all inside one transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		activeCart, err := cartRepo.FindByUserID(ctx, input.CustomerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(activeCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		totals, err := cart.ComputeTotals(activeCart.Items, s.policy)
		if err != nil {
			return err
		}

		order := &models.Order{
			CustomerID:      input.CustomerID,
			Status:          enums.OrderStatusPending,
			DeliveryAddress: input.DeliveryAddress,
			TotalAmount:     totals.Subtotal,
		}
		for _, item := range activeCart.Items {
			name := ""
			if item.Product != nil {
				name = item.Product.Name
			}
			unit := item.UnitPrice()
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: name,
				Quantity:    item.Quantity,
				UnitPrice:   unit,
				LineTotal:   unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
			if err := s.stock.Decrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		created, err = s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := cartRepo.DeleteItems(ctx, activeCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
		}

		return s.notifier.NotifyTx(ctx, tx, input.CustomerID, enums.NotificationTypeOrderStatus,
			"Order placed", fmt.Sprintf("Your order for %s is pending.", totals.Subtotal.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns one order, scoped to what the actor may see.
func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns a page of orders. Customers see their own, delivery agents see
// their assignments, admins see everything (optionally filtered).
func (s *service) List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error) {
	switch actor.Role {
	case enums.UserRoleAdmin:
		// filters pass through untouched
	case enums.UserRoleCustomer:
		id := actor.UserID
		filters.CustomerID = &id
		filters.DeliveryAgentID = nil
	case enums.UserRoleDelivery:
		id := actor.UserID
		filters.DeliveryAgentID = &id
		filters.CustomerID = nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not list orders")
	}

	params = params.Normalize()
	orders, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: orders, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// Update edits order fields directly. Visibility is enforced first, then the
// field policy decides what the role may touch. Non-admins lose edit access
// once the order reaches a terminal status.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Order, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.load(ctx, s.repo, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(input.Actor, order); err != nil {
		return nil, err
	}

	requested := map[string]any{}
	if input.DeliveryAddress != nil {
		address := strings.TrimSpace(*input.DeliveryAddress)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address cannot be empty")
		}
		requested["delivery_address"] = address
	}
	if input.TotalAmount != nil {
		if !input.TotalAmount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
		}
		requested["total_amount"] = *input.TotalAmount
	}

	updates, err := DecideFields(input.Actor.Role, requested)
	if err != nil {
		return nil, err
	}
	if input.Actor.Role != enums.UserRoleAdmin && TerminalStatus(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order can no longer be edited while %s", order.Status))
	}

	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	if address, ok := updates["delivery_address"].(string); ok {
		order.DeliveryAddress = address
	}
	if total, ok := updates["total_amount"].(decimal.Decimal); ok {
		order.TotalAmount = total
	}
	return order, nil
}

// UpdateStatus applies a role-checked status transition and notifies the
// customer.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := s.checkVisibility(input.Actor, order); err != nil {
			return err
		}
		if err := Decide(input.Actor.Role, order.Status, input.Target); err != nil {
			return err
		}

		if err := repo.UpdateStatus(ctx, order.ID, input.Target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if input.Target == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := s.stock.Increment(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		order.Status = input.Target
		updated = order
		return s.notifier.NotifyTx(ctx, tx, order.CustomerID, enums.NotificationTypeOrderStatus,
			"Order update", fmt.Sprintf("Your order is now %s.", input.Target))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignAgent attaches a delivery agent to the order and moves a pending order
// into progress.
func (s *service) AssignAgent(ctx context.Context, input AssignAgentInput) (*models.Order, error) {
	if input.Actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may assign delivery agents")
	}
	if input.OrderID == uuid.Nil || input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and agent id required")
	}

	ok, err := s.agents.IsDeliveryAgent(ctx, input.AgentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check delivery agent")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a delivery agent")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusInProgress {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot assign agent while order is %s", order.Status))
		}

		if err := repo.AssignAgent(ctx, order.ID, input.AgentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign agent")
		}
		if order.Status == enums.OrderStatusPending {
			if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order status")
			}
			order.Status = enums.OrderStatusInProgress
		}
		agentID := input.AgentID
		order.DeliveryAgentID = &agentID
		updated = order

		return s.notifier.NotifyTx(ctx, tx, input.AgentID, enums.NotificationTypeOrderStatus,
			"Delivery assigned", "A new order has been assigned to you.")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes an order. Admins may delete any order; customers only
// their own while still pending.
func (s *service) Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return err
	}

	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleCustomer:
		if order.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be deleted")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role may not delete orders")
	}

	if err := s.repo.Delete(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) checkVisibility(actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleCustomer:
		if order.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		return nil
	case enums.UserRoleDelivery:
		if order.DeliveryAgentID == nil || *order.DeliveryAgentID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to agent")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role may not view orders")
	}
}
