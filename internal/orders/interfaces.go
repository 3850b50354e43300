package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// Repository is the persistence surface for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AssignAgent(ctx context.Context, id uuid.UUID, agentID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockAdjuster moves product stock as orders are placed and cancelled.
type StockAdjuster interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Increment(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Notifier records an in-app notification inside the caller's transaction.
type Notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.NotificationType, title, body string) error
}

// AgentChecker confirms that a user exists and holds the delivery role.
type AgentChecker interface {
	IsDeliveryAgent(ctx context.Context, userID uuid.UUID) (bool, error)
}
