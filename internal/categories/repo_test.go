package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

func setupCategoriesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  parent_id TEXT,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string, parentID *uuid.UUID) *models.Category {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: name, ParentID: parentID, IsActive: true}
	require.NoError(t, db.Create(category).Error)
	return category
}

func TestListTopLevelPreloadsSubcategories(t *testing.T) {
	db := setupCategoriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	produce := seedCategory(t, db, "Fresh Produce", nil)
	dairy := seedCategory(t, db, "Dairy", nil)
	seedCategory(t, db, "Leafy Greens", &produce.ID)
	seedCategory(t, db, "Citrus", &produce.ID)

	list, total, err := repo.List(ctx, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)

	// name ASC: Dairy before Fresh Produce
	assert.Equal(t, dairy.ID, list[0].ID)
	assert.Empty(t, list[0].Subcategories)
	assert.Equal(t, produce.ID, list[1].ID)
	require.Len(t, list[1].Subcategories, 2)
	assert.Equal(t, "Citrus", list[1].Subcategories[0].Name)
}

func TestListByParentClampsPagination(t *testing.T) {
	db := setupCategoriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	produce := seedCategory(t, db, "Fresh Produce", nil)
	seedCategory(t, db, "Leafy Greens", &produce.ID)
	seedCategory(t, db, "Citrus", &produce.ID)
	seedCategory(t, db, "Root Vegetables", &produce.ID)

	list, total, err := repo.List(ctx, ListFilters{ParentID: &produce.ID}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 2)

	list, _, err = repo.List(ctx, ListFilters{ParentID: &produce.ID}, pagination.Params{Limit: -5, Offset: -1})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestListHidesInactiveByDefault(t *testing.T) {
	db := setupCategoriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedCategory(t, db, "Fresh Produce", nil)
	seasonal := seedCategory(t, db, "Seasonal", nil)
	require.NoError(t, db.Model(seasonal).Update("is_active", false).Error)

	list, total, err := repo.List(ctx, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Fresh Produce", list[0].Name)

	list, total, err = repo.List(ctx, ListFilters{IncludeInactive: true}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)
}

func TestExistsAndHasChildren(t *testing.T) {
	db := setupCategoriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	produce := seedCategory(t, db, "Fresh Produce", nil)
	sub := seedCategory(t, db, "Leafy Greens", &produce.ID)
	inactive := seedCategory(t, db, "Seasonal", nil)
	require.NoError(t, db.Model(&models.Category{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	exists, err := repo.Exists(ctx, produce.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	hasChildren, err := repo.HasChildren(ctx, produce.ID)
	require.NoError(t, err)
	assert.True(t, hasChildren)

	hasChildren, err = repo.HasChildren(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, hasChildren)
}
