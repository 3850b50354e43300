package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the catalog tree; subcategories point at their parent
// via ParentID.
type Category struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Description   *string    `gorm:"column:description" json:"description,omitempty"`
	ParentID      *uuid.UUID `gorm:"column:parent_id;type:uuid;index" json:"parent_id,omitempty"`
	ImageURL      *string    `gorm:"column:image_url" json:"image_url,omitempty"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Subcategories []Category `gorm:"foreignKey:ParentID" json:"subcategories,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
