package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// Repository is the persistence surface for return requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.Return) (*models.Return, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Return, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReturnStatus) error
}

// ListFilters narrows return listings.
type ListFilters struct {
	CustomerID *uuid.UUID
	OrderID    *uuid.UUID
	Status     *enums.ReturnStatus
}

// OrderReader loads the order a return is raised against, items included.
type OrderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Notifier records an in-app notification inside the caller's transaction.
type Notifier interface {
	NotifyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.NotificationType, title, body string) error
}
