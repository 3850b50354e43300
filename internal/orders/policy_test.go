package orders

import (
	"testing"

	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
)

func TestDecideAdminSetsAnyStatus(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusInProgress,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}
	// admins may apply any transition, skips and corrections included
	for _, from := range all {
		for _, to := range all {
			if from == to {
				continue
			}
			if err := Decide(enums.UserRoleAdmin, from, to); err != nil {
				t.Fatalf("admin %s -> %s should be allowed: %v", from, to, err)
			}
		}
	}

	if err := Decide(enums.UserRoleAdmin, enums.OrderStatusDelivered, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("admin corrective delivered -> cancelled should be allowed: %v", err)
	}
}

func TestDecideDeliveryAgentCannotSkipStages(t *testing.T) {
	if err := Decide(enums.UserRoleDelivery, enums.OrderStatusPending, enums.OrderStatusInProgress); err != nil {
		t.Fatalf("delivery pending -> in_progress should be allowed: %v", err)
	}
	if err := Decide(enums.UserRoleDelivery, enums.OrderStatusInProgress, enums.OrderStatusOutForDelivery); err != nil {
		t.Fatalf("delivery in_progress -> out_for_delivery should be allowed: %v", err)
	}
	if err := Decide(enums.UserRoleDelivery, enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered); err != nil {
		t.Fatalf("delivery out_for_delivery -> delivered should be allowed: %v", err)
	}

	err := Decide(enums.UserRoleDelivery, enums.OrderStatusPending, enums.OrderStatusDelivered)
	if err == nil {
		t.Fatal("delivery pending -> delivered must be rejected")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error %v", err)
	}

	if err := Decide(enums.UserRoleDelivery, enums.OrderStatusPending, enums.OrderStatusCancelled); err == nil {
		t.Fatal("delivery may not cancel orders")
	}
}

func TestDecideCustomerCancelWindow(t *testing.T) {
	if err := Decide(enums.UserRoleCustomer, enums.OrderStatusPending, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("customer cancel from pending should be allowed: %v", err)
	}
	if err := Decide(enums.UserRoleCustomer, enums.OrderStatusInProgress, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("customer cancel from in_progress should be allowed: %v", err)
	}
	if err := Decide(enums.UserRoleCustomer, enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled); err == nil {
		t.Fatal("customer cancel after dispatch must be rejected")
	}
	if err := Decide(enums.UserRoleCustomer, enums.OrderStatusPending, enums.OrderStatusInProgress); err == nil {
		t.Fatal("customer may not advance orders")
	}
}

func TestDecideRejectsNoOpAndInvalidTargets(t *testing.T) {
	err := Decide(enums.UserRoleAdmin, enums.OrderStatusPending, enums.OrderStatusPending)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("same-status transition should conflict, got %v", err)
	}

	err = Decide(enums.UserRoleAdmin, enums.OrderStatusPending, enums.OrderStatus("shipped"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unknown status should fail validation, got %v", err)
	}

	if err := Decide(enums.UserRoleVendor, enums.OrderStatusPending, enums.OrderStatusInProgress); err == nil {
		t.Fatal("roles without table entries must be rejected")
	}
}

func TestTerminalStatus(t *testing.T) {
	if !TerminalStatus(enums.OrderStatusDelivered) {
		t.Fatal("delivered should be terminal")
	}
	if !TerminalStatus(enums.OrderStatusCancelled) {
		t.Fatal("cancelled should be terminal")
	}
	if TerminalStatus(enums.OrderStatusPending) {
		t.Fatal("pending is not terminal")
	}
}
