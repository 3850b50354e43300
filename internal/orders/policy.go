package orders

import (
	"fmt"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

// transition is one permitted (from, to) edge in the order lifecycle.
type transition struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

// transitionPolicy lists, per role, every status change that role may perform.
// Anything not listed is rejected. Admins are absent on purpose: they may set
// any status and are short-circuited in Decide. Ownership and assignment
// checks are applied separately by the service; this table is role × edge
// only.
var transitionPolicy = map[enums.UserRole][]transition{
	enums.UserRoleDelivery: {
		{From: enums.OrderStatusPending, To: enums.OrderStatusInProgress},
		{From: enums.OrderStatusInProgress, To: enums.OrderStatusOutForDelivery},
		{From: enums.OrderStatusOutForDelivery, To: enums.OrderStatusDelivered},
	},
	enums.UserRoleCustomer: {
		{From: enums.OrderStatusPending, To: enums.OrderStatusCancelled},
		{From: enums.OrderStatusInProgress, To: enums.OrderStatusCancelled},
	},
}

// Decide reports whether role may move an order from current to target.
// Admins may apply any transition, corrective ones included; other roles are
// held to their table entries, and the returned error carries the exact edge
// that was refused.
func Decide(role enums.UserRole, current, target enums.OrderStatus) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}
	if current == target {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order already %s", current))
	}
	if role == enums.UserRoleAdmin {
		return nil
	}
	for _, edge := range transitionPolicy[role] {
		if edge.From == current && edge.To == target {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("%s may not move order from %s to %s", role, current, target))
}

// updatableFields lists, per role, the order columns a role may edit
// directly. Status changes and agent assignment go through their own paths
// and never appear here.
var updatableFields = map[enums.UserRole]map[string]bool{
	enums.UserRoleAdmin:    {"delivery_address": true, "total_amount": true},
	enums.UserRoleCustomer: {"delivery_address": true},
}

// DecideFields filters a requested field-update set down to what role may
// apply. Fields outside the role's set are dropped, not refused; only an
// empty survivor set is an error.
func DecideFields(role enums.UserRole, requested map[string]any) (map[string]any, error) {
	allowed := updatableFields[role]
	updates := make(map[string]any, len(requested))
	for field, value := range requested {
		if allowed[field] {
			updates[field] = value
		}
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid fields to update")
	}
	return updates, nil
}

// TerminalStatus reports whether the normal lifecycle has no further edges
// from status. Admin corrections are not counted.
func TerminalStatus(status enums.OrderStatus) bool {
	for _, edges := range transitionPolicy {
		for _, edge := range edges {
			if edge.From == status {
				return false
			}
		}
	}
	return true
}
