package vendors

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type stubVendorsRepo struct {
	vendors map[uuid.UUID]*models.Vendor
	updates map[uuid.UUID]map[string]any
	deleted []uuid.UUID
}

func newStubVendorsRepo() *stubVendorsRepo {
	return &stubVendorsRepo{
		vendors: map[uuid.UUID]*models.Vendor{},
		updates: map[uuid.UUID]map[string]any{},
	}
}

func (s *stubVendorsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubVendorsRepo) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	s.vendors[vendor.ID] = vendor
	return vendor, nil
}

func (s *stubVendorsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *vendor
	return &copied, nil
}

func (s *stubVendorsRepo) List(ctx context.Context, activeOnly bool, params pagination.Params) ([]models.Vendor, int64, error) {
	var out []models.Vendor
	for _, vendor := range s.vendors {
		if activeOnly && !vendor.IsActive {
			continue
		}
		out = append(out, *vendor)
	}
	return out, int64(len(out)), nil
}

func (s *stubVendorsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	if url, ok := updates["gst_certificate_url"].(string); ok {
		s.vendors[id].GSTCertificateURL = &url
	}
	if url, ok := updates["fssai_certificate_url"].(string); ok {
		s.vendors[id].FSSAICertificateURL = &url
	}
	if url, ok := updates["bank_details_url"].(string); ok {
		s.vendors[id].BankDetailsURL = &url
	}
	return nil
}

func (s *stubVendorsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.vendors, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubVendorStore struct {
	uploads       map[string]string
	folderDeletes []string
	uploadErr     error
	folderErr     error
}

func newStubVendorStore() *stubVendorStore {
	return &stubVendorStore{uploads: map[string]string{}}
}

func (s *stubVendorStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, _ := io.ReadAll(body)
	s.uploads[key] = string(data)
	return "https://cdn.test/greenbasket/" + key, nil
}

func (s *stubVendorStore) DeleteFolder(ctx context.Context, prefix string) error {
	if s.folderErr != nil {
		return s.folderErr
	}
	s.folderDeletes = append(s.folderDeletes, prefix)
	return nil
}

func newTestVendorService(t *testing.T, repo Repository, store ObjectStore) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "vendors-test", Output: os.Stderr})
	svc, err := NewService(repo, store, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateValidatesEmail(t *testing.T) {
	svc := newTestVendorService(t, newStubVendorsRepo(), newStubVendorStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Sunrise Farms", Email: "not-an-email"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	created, err := svc.Create(ctx, CreateInput{Name: "Sunrise Farms", Email: "Orders@Sunrise.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "orders@sunrise.example" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if !created.IsActive {
		t.Fatal("new vendors should be active")
	}
}

func TestUploadDocumentRecordsURL(t *testing.T) {
	repo := newStubVendorsRepo()
	store := newStubVendorStore()
	svc := newTestVendorService(t, repo, store)
	ctx := context.Background()

	vendor, err := svc.Create(ctx, CreateInput{Name: "Sunrise Farms", Email: "orders@sunrise.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UploadDocument(ctx, vendor.ID, UploadDocumentInput{
		Kind:        DocumentGSTCertificate,
		Filename:    "gst.pdf",
		ContentType: "application/pdf",
		Body:        bytes.NewBufferString("pdf-bytes"),
	})
	if err != nil {
		t.Fatalf("upload document: %v", err)
	}

	wantKey := "vendors/" + vendor.ID.String() + "/gst_certificate/gst.pdf"
	if _, ok := store.uploads[wantKey]; !ok {
		t.Fatalf("expected object at %q, got %v", wantKey, store.uploads)
	}
	if updated.GSTCertificateURL == nil || *updated.GSTCertificateURL != "https://cdn.test/greenbasket/"+wantKey {
		t.Fatalf("unexpected gst certificate url %v", updated.GSTCertificateURL)
	}
}

func TestUploadDocumentRejectsUnknownKind(t *testing.T) {
	repo := newStubVendorsRepo()
	svc := newTestVendorService(t, repo, newStubVendorStore())
	ctx := context.Background()

	vendor, err := svc.Create(ctx, CreateInput{Name: "Sunrise Farms", Email: "orders@sunrise.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UploadDocument(ctx, vendor.ID, UploadDocumentInput{
		Kind:     DocumentKind("tax_return"),
		Filename: "doc.pdf",
		Body:     bytes.NewBufferString("pdf-bytes"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteCleansUpStorageFolder(t *testing.T) {
	repo := newStubVendorsRepo()
	store := newStubVendorStore()
	svc := newTestVendorService(t, repo, store)
	ctx := context.Background()

	vendor, err := svc.Create(ctx, CreateInput{Name: "Sunrise Farms", Email: "orders@sunrise.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, vendor.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != vendor.ID {
		t.Fatalf("expected record deleted, got %v", repo.deleted)
	}
	wantPrefix := "vendors/" + vendor.ID.String()
	if len(store.folderDeletes) != 1 || store.folderDeletes[0] != wantPrefix {
		t.Fatalf("expected folder cleanup for %q, got %v", wantPrefix, store.folderDeletes)
	}
}

func TestDeleteSucceedsWhenStorageCleanupFails(t *testing.T) {
	repo := newStubVendorsRepo()
	store := newStubVendorStore()
	store.folderErr = errors.New("storage unavailable")
	svc := newTestVendorService(t, repo, store)
	ctx := context.Background()

	vendor, err := svc.Create(ctx, CreateInput{Name: "Sunrise Farms", Email: "orders@sunrise.example"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, vendor.ID); err != nil {
		t.Fatalf("delete should not surface storage errors, got %v", err)
	}
}

func TestDeleteMissingVendor(t *testing.T) {
	svc := newTestVendorService(t, newStubVendorsRepo(), newStubVendorStore())

	err := svc.Delete(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
