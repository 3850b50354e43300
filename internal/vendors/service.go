package vendors

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// DocumentKind names a compliance document slot on the vendor record.
type DocumentKind string

const (
	DocumentGSTCertificate   DocumentKind = "gst_certificate"
	DocumentFSSAICertificate DocumentKind = "fssai_certificate"
	DocumentBankDetails      DocumentKind = "bank_details"
)

// Column returns the vendor column holding this document's URL.
func (k DocumentKind) Column() string {
	switch k {
	case DocumentGSTCertificate:
		return "gst_certificate_url"
	case DocumentFSSAICertificate:
		return "fssai_certificate_url"
	case DocumentBankDetails:
		return "bank_details_url"
	}
	return ""
}

// IsValid reports whether k names a known document slot.
func (k DocumentKind) IsValid() bool {
	return k.Column() != ""
}

// CreateInput carries a new vendor record.
type CreateInput struct {
	Name        string `validate:"required"`
	ContactName *string
	Email       string `validate:"required,email"`
	Phone       *string
	Address     *string
	GSTNumber   *string
	FSSAINumber *string
}

// UpdateInput patches vendor fields. Nil pointers leave fields untouched.
type UpdateInput struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	GSTNumber   *string
	FSSAINumber *string
	IsActive    *bool
}

// UploadDocumentInput carries the bytes for one compliance document.
type UploadDocumentInput struct {
	Kind        DocumentKind
	Filename    string
	ContentType string
	Body        io.Reader
}

// VendorList is one page of vendors with the total match count.
type VendorList struct {
	Vendors []models.Vendor `json:"vendors"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// Service defines vendor operations exposed to the API layer.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, activeOnly bool, params pagination.Params) (*VendorList, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Vendor, error)
	UploadDocument(ctx context.Context, id uuid.UUID, input UploadDocumentInput) (*models.Vendor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	store    ObjectStore
	validate *validator.Validate
	logg     *logger.Logger
}

// NewService builds a vendor service with the required dependencies.
func NewService(repo Repository, store ObjectStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Vendor, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor")
	}

	vendor := &models.Vendor{
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		GSTNumber:   input.GSTNumber,
		FSSAINumber: input.FSSAINumber,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, activeOnly bool, params pagination.Params) (*VendorList, error) {
	params = params.Normalize()
	vendors, total, err := s.repo.List(ctx, activeOnly, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return &VendorList{Vendors: vendors, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Vendor, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.ContactName != nil {
		updates["contact_name"] = *input.ContactName
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if err := s.validate.Var(email, "required,email"); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor email")
		}
		updates["email"] = email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.GSTNumber != nil {
		updates["gst_number"] = *input.GSTNumber
	}
	if input.FSSAINumber != nil {
		updates["fssai_number"] = *input.FSSAINumber
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return s.load(ctx, id)
}

// UploadDocument stores a compliance document under the vendor's folder and
// records its URL in the matching column.
func (s *service) UploadDocument(ctx context.Context, id uuid.UUID, input UploadDocumentInput) (*models.Vendor, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown document kind").
			WithDetails(map[string]any{"kind": string(input.Kind)})
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document body required")
	}
	filename := path.Base(strings.TrimSpace(input.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document filename required")
	}

	key := fmt.Sprintf("vendors/%s/%s/%s", id, input.Kind, filename)
	url, err := s.store.Upload(ctx, key, input.ContentType, input.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload vendor document").
			WithDetails(map[string]any{"vendor_id": id.String(), "kind": string(input.Kind)})
	}

	if err := s.repo.Update(ctx, id, map[string]any{input.Kind.Column(): url}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record vendor document")
	}
	return s.load(ctx, id)
}

// Delete removes the vendor record, then best-effort clears the vendor's
// storage folder. Storage failures are logged, never surfaced: the record is
// already gone and the request has succeeded.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vendor")
	}

	if err := s.store.DeleteFolder(ctx, fmt.Sprintf("vendors/%s", id)); err != nil {
		ctx = s.logg.WithField(ctx, "vendor_id", id.String())
		s.logg.Warn(ctx, "vendor storage cleanup incomplete: "+err.Error())
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}
