package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the cart operations exposed to the API layer.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	ReplaceItems(ctx context.Context, userID uuid.UUID, lines []LineInput) (*View, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// LineInput is one requested cart line on a full replace.
type LineInput struct {
	ProductID   uuid.UUID
	Quantity    int
	IsVendor    bool
	VendorPrice *decimal.Decimal
}

// View is a cart plus its derived totals.
type View struct {
	Cart   models.Cart `json:"cart"`
	Totals Totals      `json:"totals"`
}

type service struct {
	repo     Repository
	products ProductChecker
	tx       txRunner
	policy   enums.VendorPricePolicy
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products ProductChecker, tx txRunner, policy enums.VendorPricePolicy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid vendor price policy %q", policy)
	}
	return &service{repo: repo, products: products, tx: tx, policy: policy}, nil
}

// Get returns the user's cart, creating an empty one on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.getOrCreate(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// ReplaceItems swaps the cart contents for the provided lines in a single
// transaction.
func (s *service) ReplaceItems(ctx context.Context, userID uuid.UUID, lines []LineInput) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.validateLines(lines); err != nil {
		return nil, err
	}
	if err := s.checkProductsExist(ctx, lines); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		items := make([]models.CartItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.CartItem{
				CartID:      cart.ID,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				IsVendor:    line.IsVendor,
				VendorPrice: line.VendorPrice,
			})
		}
		if err := repo.InsertItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart items")
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

// UpdateItemQuantity patches a single line's quantity.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.reload(ctx, userID)
}

// RemoveItem deletes a single line from the cart.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return s.reload(ctx, userID)
}

// Clear removes every line from the cart. Clearing an absent cart is a no-op.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	return s.repo.Touch(ctx, cart.ID)
}

func (s *service) validateLines(lines []LineInput) error {
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id required", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if line.VendorPrice != nil && line.VendorPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: vendor price cannot be negative", i))
		}
		if line.IsVendor && line.VendorPrice == nil && s.policy == enums.VendorPricePolicyReject {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: vendor-sourced line requires a vendor price", i))
		}
	}
	return nil
}

func (s *service) checkProductsExist(ctx context.Context, lines []LineInput) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	existing, err := s.products.ExistingIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check products")
	}
	var missing []string
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "some products do not exist").
			WithDetails(map[string]any{"missing_product_ids": missing})
	}
	return nil
}

func (s *service) getOrCreate(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) findCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

func (s *service) buildView(cart *models.Cart) (*View, error) {
	totals, err := ComputeTotals(cart.Items, s.policy)
	if err != nil {
		return nil, err
	}
	return &View{Cart: *cart, Totals: totals}, nil
}
