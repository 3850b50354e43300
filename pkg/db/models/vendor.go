package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a supplier record. Compliance documents live in object storage
// under vendors/{id}/; only their URLs are stored here.
type Vendor struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string    `gorm:"column:name;not null" json:"name"`
	ContactName         *string   `gorm:"column:contact_name" json:"contact_name,omitempty"`
	Email               string    `gorm:"column:email;not null" json:"email"`
	Phone               *string   `gorm:"column:phone" json:"phone,omitempty"`
	Address             *string   `gorm:"column:address" json:"address,omitempty"`
	GSTNumber           *string   `gorm:"column:gst_number" json:"gst_number,omitempty"`
	FSSAINumber         *string   `gorm:"column:fssai_number" json:"fssai_number,omitempty"`
	GSTCertificateURL   *string   `gorm:"column:gst_certificate_url" json:"gst_certificate_url,omitempty"`
	FSSAICertificateURL *string   `gorm:"column:fssai_certificate_url" json:"fssai_certificate_url,omitempty"`
	BankDetailsURL      *string   `gorm:"column:bank_details_url" json:"bank_details_url,omitempty"`
	IsActive            bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
