package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

type stubCartRepo struct {
	cart       *models.Cart
	products   map[uuid.UUID]*models.Product
	deletedAll int
	inserted   []models.CartItem
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubCartRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil || s.cart.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.cart
	copied.Items = make([]models.CartItem, len(s.cart.Items))
	for i, item := range s.cart.Items {
		copied.Items[i] = item
		if product, ok := s.products[item.ProductID]; ok {
			copied.Items[i].Product = product
		}
	}
	return &copied, nil
}

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	s.cart = cart
	return cart, nil
}

func (s *stubCartRepo) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	s.deletedAll++
	if s.cart != nil {
		s.cart.Items = nil
	}
	return nil
}

func (s *stubCartRepo) InsertItems(ctx context.Context, items []models.CartItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	s.inserted = append(s.inserted, items...)
	if s.cart != nil {
		s.cart.Items = append(s.cart.Items, items...)
	}
	return nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	if s.cart == nil || s.cart.ID != cartID {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			return &s.cart.Items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if s.cart == nil {
		return gorm.ErrRecordNotFound
	}
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if s.cart == nil {
		return gorm.ErrRecordNotFound
	}
	items := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	s.cart.Items = items
	return nil
}

func (s *stubCartRepo) Touch(ctx context.Context, cartID uuid.UUID) error {
	return nil
}

type stubProductChecker struct {
	existing map[uuid.UUID]bool
}

func (s *stubProductChecker) ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		result[id] = s.existing[id]
	}
	return result, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubCartRepo, checker *stubProductChecker) Service {
	t.Helper()
	svc, err := NewService(repo, checker, stubTxRunner{}, enums.VendorPricePolicyReject)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestGetCreatesCartOnFirstAccess(t *testing.T) {
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, &stubProductChecker{})
	userID := uuid.New()

	view, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.cart == nil || repo.cart.UserID != userID {
		t.Fatal("expected cart created for user")
	}
	if len(view.Cart.Items) != 0 {
		t.Fatalf("expected empty cart got %d items", len(view.Cart.Items))
	}
	if !view.Totals.Subtotal.IsZero() {
		t.Fatalf("expected zero subtotal got %s", view.Totals.Subtotal)
	}
}

func TestReplaceItemsSwapsContentsAndComputesTotals(t *testing.T) {
	userID := uuid.New()
	productA := &models.Product{ID: uuid.New(), SellingPrice: decimal.RequireFromString("3.99")}
	productB := &models.Product{ID: uuid.New(), SellingPrice: decimal.RequireFromString("5.00")}
	repo := &stubCartRepo{
		cart: &models.Cart{
			ID:     uuid.New(),
			UserID: userID,
			Items:  []models.CartItem{{ID: uuid.New(), ProductID: uuid.New(), Quantity: 9}},
		},
		products: map[uuid.UUID]*models.Product{productA.ID: productA, productB.ID: productB},
	}
	checker := &stubProductChecker{existing: map[uuid.UUID]bool{productA.ID: true, productB.ID: true}}
	svc := newTestService(t, repo, checker)

	view, err := svc.ReplaceItems(context.Background(), userID, []LineInput{
		{ProductID: productA.ID, Quantity: 2},
		{ProductID: productB.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.deletedAll != 1 {
		t.Fatalf("expected old items deleted once got %d", repo.deletedAll)
	}
	if len(view.Cart.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(view.Cart.Items))
	}
	if !view.Totals.Subtotal.Equal(decimal.RequireFromString("12.98")) {
		t.Fatalf("expected subtotal 12.98 got %s", view.Totals.Subtotal)
	}
}

func TestReplaceItemsRejectsUnknownProducts(t *testing.T) {
	userID := uuid.New()
	knownID := uuid.New()
	unknownID := uuid.New()
	repo := &stubCartRepo{}
	checker := &stubProductChecker{existing: map[uuid.UUID]bool{knownID: true}}
	svc := newTestService(t, repo, checker)

	_, err := svc.ReplaceItems(context.Background(), userID, []LineInput{
		{ProductID: knownID, Quantity: 1},
		{ProductID: unknownID, Quantity: 1},
	})
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map got %T", typed.Details())
	}
	missing, ok := details["missing_product_ids"].([]string)
	if !ok || len(missing) != 1 || missing[0] != unknownID.String() {
		t.Fatalf("unexpected missing ids %v", details["missing_product_ids"])
	}
	if repo.deletedAll != 0 {
		t.Fatal("cart must not be touched when validation fails")
	}
}

func TestReplaceItemsVendorLineWithoutPriceRejected(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	checker := &stubProductChecker{existing: map[uuid.UUID]bool{productID: true}}
	svc := newTestService(t, &stubCartRepo{}, checker)

	_, err := svc.ReplaceItems(context.Background(), userID, []LineInput{
		{ProductID: productID, Quantity: 1, IsVendor: true},
	})
	if err == nil {
		t.Fatal("expected error for vendor line without price")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()
	product := &models.Product{ID: uuid.New(), SellingPrice: decimal.RequireFromString("2.00")}
	repo := &stubCartRepo{
		cart: &models.Cart{
			ID:     uuid.New(),
			UserID: userID,
			Items:  []models.CartItem{{ID: itemID, ProductID: product.ID, Quantity: 1}},
		},
		products: map[uuid.UUID]*models.Product{product.ID: product},
	}
	svc := newTestService(t, repo, &stubProductChecker{})

	view, err := svc.UpdateItemQuantity(context.Background(), userID, itemID, 5)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !view.Totals.Subtotal.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected subtotal 10.00 got %s", view.Totals.Subtotal)
	}

	if _, err := svc.UpdateItemQuantity(context.Background(), userID, itemID, 0); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if _, err := svc.UpdateItemQuantity(context.Background(), userID, uuid.New(), 2); err == nil {
		t.Fatal("expected error for unknown item")
	}
}

func TestClearMissingCartIsNoOp(t *testing.T) {
	svc := newTestService(t, &stubCartRepo{}, &stubProductChecker{})
	if err := svc.Clear(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected no-op got %v", err)
	}
}
