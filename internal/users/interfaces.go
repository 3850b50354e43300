package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// Repository is the persistence surface for user accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.User, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	IsDeliveryAgent(ctx context.Context, id uuid.UUID) (bool, error)
}

// ListFilters narrows user listings.
type ListFilters struct {
	Role       *enums.UserRole
	ActiveOnly bool
}
