package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	categorysvc "github.com/greenbasket/greenbasket-backend/internal/categories"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

type stubCategoryService struct {
	result *categorysvc.CreateResult
	err    error

	createInput categorysvc.CreateInput
	imageBytes  []byte
}

func (s *stubCategoryService) Create(ctx context.Context, input categorysvc.CreateInput) (*categorysvc.CreateResult, error) {
	s.createInput = input
	if input.Image != nil && input.Image.Body != nil {
		s.imageBytes, _ = io.ReadAll(input.Image.Body)
	}
	return s.result, s.err
}

func (s *stubCategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return nil, s.err
}

func (s *stubCategoryService) List(ctx context.Context, filters categorysvc.ListFilters, params pagination.Params) (*categorysvc.CategoryList, error) {
	return nil, s.err
}

func (s *stubCategoryService) Update(ctx context.Context, id uuid.UUID, input categorysvc.UpdateInput) (*models.Category, error) {
	return nil, s.err
}

func (s *stubCategoryService) UploadImage(ctx context.Context, id uuid.UUID, input categorysvc.UploadImageInput) (*models.Category, error) {
	return nil, s.err
}

func (s *stubCategoryService) Delete(ctx context.Context, id uuid.UUID) error { return s.err }

func (s *stubCategoryService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, s.err
}

func TestAdminCreateCategoryDecodesBase64Image(t *testing.T) {
	svc := &stubCategoryService{result: &categorysvc.CreateResult{
		Category: &models.Category{ID: uuid.New(), Name: "Dairy"},
	}}
	handler := AdminCreateCategory(svc, testLogger())

	body, _ := json.Marshal(map[string]any{
		"name":           "Dairy",
		"image":          base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		"image_filename": "dairy.png",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req = authedRequest(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.createInput.Image == nil {
		t.Fatal("expected image forwarded to the service")
	}
	if string(svc.imageBytes) != "png-bytes" {
		t.Fatalf("expected decoded image bytes, got %q", svc.imageBytes)
	}
	if svc.createInput.Image.Filename != "dairy.png" {
		t.Fatalf("unexpected filename %q", svc.createInput.Image.Filename)
	}
}

func TestAdminCreateCategoryRejectsBadBase64(t *testing.T) {
	svc := &stubCategoryService{}
	handler := AdminCreateCategory(svc, testLogger())

	body := []byte(`{"name":"Dairy","image":"not-base64!!"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req = authedRequest(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminCreateCategorySurfacesImageUploadError(t *testing.T) {
	svc := &stubCategoryService{result: &categorysvc.CreateResult{
		Category:         &models.Category{ID: uuid.New(), Name: "Dairy"},
		ImageUploadError: "upload category image",
	}}
	handler := AdminCreateCategory(svc, testLogger())

	body, _ := json.Marshal(map[string]any{
		"name":  "Dairy",
		"image": base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", bytes.NewReader(body))
	req = authedRequest(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Category         json.RawMessage `json:"category"`
			ImageUploadError string          `json:"image_upload_error"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ImageUploadError != "upload category image" {
		t.Fatalf("expected image_upload_error in response, got %q", envelope.Data.ImageUploadError)
	}
}

func TestAdminCreateCategoryMultipart(t *testing.T) {
	svc := &stubCategoryService{result: &categorysvc.CreateResult{
		Category: &models.Category{ID: uuid.New(), Name: "Dairy"},
	}}
	handler := AdminCreateCategory(svc, testLogger())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("name", "Dairy")
	part, _ := writer.CreateFormFile("file", "dairy.png")
	_, _ = part.Write([]byte("png-bytes"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/categories", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = authedRequest(req, uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.createInput.Name != "Dairy" {
		t.Fatalf("unexpected name %q", svc.createInput.Name)
	}
	if string(svc.imageBytes) != "png-bytes" {
		t.Fatalf("expected file bytes forwarded, got %q", svc.imageBytes)
	}
}
