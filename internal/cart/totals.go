package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/pkg/db/models"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

// Totals is the derived money view of a cart. It is computed on every read
// and never persisted.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// ComputeTotals derives cart totals from its lines.
//
// Each line contributes quantity × unit price, where the unit price is the
// vendor override for vendor-sourced lines and the catalog selling price
// otherwise. A vendor line without an override is handled per policy: reject
// the cart, or price the line at zero.
func ComputeTotals(items []models.CartItem, policy enums.VendorPricePolicy) (Totals, error) {
	totals := Totals{Subtotal: decimal.Zero}
	for _, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cart item %s has non-positive quantity", item.ID))
		}
		if item.IsVendor && item.VendorPrice == nil && policy == enums.VendorPricePolicyReject {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("vendor-sourced cart item %s is missing a vendor price", item.ID))
		}
		line := item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Quantity)))
		totals.Subtotal = totals.Subtotal.Add(line)
		totals.ItemCount += item.Quantity
	}
	return totals, nil
}
