package categories

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// CreateInput carries a new category. The image is optional; when present it
// is uploaded after the row is inserted, and an upload failure leaves the
// category in place.
type CreateInput struct {
	Name        string
	Description string
	ParentID    *uuid.UUID
	Image       *UploadImageInput
}

// CreateResult is the persisted category plus the image outcome. The row
// insert and the image upload are separate phases; ImageUploadError carries
// the failure reason when only the second phase failed.
type CreateResult struct {
	Category         *models.Category `json:"category"`
	ImageUploadError string           `json:"image_upload_error,omitempty"`
}

// UpdateInput patches category fields. Nil pointers leave fields untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// UploadImageInput is the second phase of category creation: the image bytes
// for an already-persisted category.
type UploadImageInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CategoryList is one page of categories with the total match count.
type CategoryList struct {
	Categories []models.Category `json:"categories"`
	Total      int64             `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
}

// Service defines category tree operations exposed to the API layer.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*CategoryList, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Category, error)
	UploadImage(ctx context.Context, id uuid.UUID, input UploadImageInput) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo  Repository
	store ObjectStore
	logg  *logger.Logger
}

// NewService builds a category service with the required dependencies.
func NewService(repo Repository, store ObjectStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, store: store, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if input.ParentID != nil {
		if _, err := s.load(ctx, *input.ParentID); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist")
			}
			return nil, err
		}
	}

	category := &models.Category{
		Name:     strings.TrimSpace(input.Name),
		ParentID: input.ParentID,
		IsActive: true,
	}
	if input.Description != "" {
		category.Description = &input.Description
	}
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}

	result := &CreateResult{Category: created}
	if input.Image != nil {
		url, imgErr := s.storeImage(ctx, created.ID, *input.Image)
		if imgErr != nil {
			ctx = s.logg.WithField(ctx, "category_id", created.ID.String())
			s.logg.Warn(ctx, "category created without image: "+imgErr.Error())
			result.ImageUploadError = publicMessage(imgErr)
			return result, nil
		}
		created.ImageURL = &url
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*CategoryList, error) {
	params = params.Normalize()
	categories, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return &CategoryList{Categories: categories, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Category, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return s.load(ctx, id)
}

// UploadImage stores the image under the category's folder and records the
// public URL.
func (s *service) UploadImage(ctx context.Context, id uuid.UUID, input UploadImageInput) (*models.Category, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.storeImage(ctx, id, input); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// storeImage uploads the image and records the public URL on the row. If the
// record update fails, the uploaded object is removed best-effort so storage
// does not accumulate orphans.
func (s *service) storeImage(ctx context.Context, id uuid.UUID, input UploadImageInput) (string, error) {
	if input.Body == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image body required")
	}
	filename := sanitizeFilename(input.Filename)
	if filename == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image filename required")
	}

	key := fmt.Sprintf("categories/%s/%s", id, filename)
	url, err := s.store.Upload(ctx, key, input.ContentType, input.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload category image").
			WithDetails(map[string]any{"category_id": id.String()})
	}

	if err := s.repo.Update(ctx, id, map[string]any{"image_url": url}); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{"category_id": id.String(), "key": key})
			s.logg.Warn(ctx, "orphaned category image left in storage: "+delErr.Error())
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record category image")
	}
	return url, nil
}

// Delete removes a category and best-effort cleans up its storage folder.
// Categories with subcategories must be emptied first.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subcategories")
	}
	if hasChildren {
		return pkgerrors.New(pkgerrors.CodeConflict, "category has subcategories")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if err := s.store.DeleteFolder(ctx, fmt.Sprintf("categories/%s", id)); err != nil {
		ctx = s.logg.WithField(ctx, "category_id", id.String())
		s.logg.Warn(ctx, "category storage cleanup incomplete: "+err.Error())
	}
	return nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
