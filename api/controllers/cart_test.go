package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket-backend/api/middleware"
	cartsvc "github.com/greenbasket/greenbasket-backend/internal/cart"
	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role.String())
	return req.WithContext(ctx)
}

func withPathParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type stubCartService struct {
	view *cartsvc.View
	err  error

	replacedLines []cartsvc.LineInput
}

func (s *stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	return s.view, s.err
}

func (s *stubCartService) ReplaceItems(ctx context.Context, userID uuid.UUID, lines []cartsvc.LineInput) (*cartsvc.View, error) {
	s.replacedLines = lines
	return s.view, s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cartsvc.View, error) {
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.View, error) {
	return s.view, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.err
}

func TestCartFetchReturnsView(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{view: &cartsvc.View{Cart: models.Cart{ID: uuid.New(), UserID: userID}}}
	handler := CartFetch(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, userID, enums.UserRoleCustomer))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Cart models.Cart `json:"cart"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Cart.UserID != userID {
		t.Fatalf("expected cart owned by %s got %s", userID, envelope.Data.Cart.UserID)
	}
}

func TestCartFetchRequiresActor(t *testing.T) {
	handler := CartFetch(&stubCartService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartReplaceForwardsLines(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{view: &cartsvc.View{Cart: models.Cart{UserID: userID}}}
	handler := CartReplace(svc, testLogger())

	body := []byte(`{"items":[{"product_id":"` + productID.String() + `","quantity":3}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, userID, enums.UserRoleCustomer))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.replacedLines) != 1 {
		t.Fatalf("expected 1 line forwarded got %d", len(svc.replacedLines))
	}
	if svc.replacedLines[0].ProductID != productID || svc.replacedLines[0].Quantity != 3 {
		t.Fatalf("unexpected line forwarded: %+v", svc.replacedLines[0])
	}
}

func TestCartReplaceRejectsUnknownFields(t *testing.T) {
	handler := CartReplace(&stubCartService{}, testLogger())

	body := []byte(`{"items":[],"coupon":"FREE"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, uuid.New(), enums.UserRoleCustomer))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemPropagatesConflict(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")}
	handler := CartUpdateItem(svc, testLogger())

	body := []byte(`{"quantity":5}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/"+uuid.NewString(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withPathParam(req, "itemId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(req, uuid.New(), enums.UserRoleCustomer))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
