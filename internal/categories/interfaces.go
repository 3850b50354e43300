package categories

import (
	"context"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// ListFilters narrows a category listing. ParentID nil selects the top
// level; inactive categories are hidden unless IncludeInactive is set.
type ListFilters struct {
	ParentID        *uuid.UUID
	IncludeInactive bool
}

// Repository is the persistence surface for the category tree.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Category, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
}

// ObjectStore is the slice of the storage client the category service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	DeleteFolder(ctx context.Context, prefix string) error
}
