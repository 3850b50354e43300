package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/greenbasket-backend/api/responses"
	"github.com/greenbasket/greenbasket-backend/api/validators"
	procurementsvc "github.com/greenbasket/greenbasket-backend/internal/procurement"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	pkgerrors "github.com/greenbasket/greenbasket-backend/pkg/errors"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/pagination"
)

// AdminCreatePurchaseOrder opens a draft purchase order with a vendor.
func AdminCreatePurchaseOrder(svc procurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPurchaseOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]procurementsvc.LineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, procurementsvc.LineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  line.UnitCost,
			})
		}

		po, err := svc.Create(r.Context(), procurementsvc.Actor{UserID: userID, Role: role}, procurementsvc.CreateInput{
			VendorID: payload.VendorID,
			Notes:    payload.Notes,
			Lines:    lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, po)
	}
}

// AdminListPurchaseOrders pages through purchase orders.
func AdminListPurchaseOrders(svc procurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := procurementsvc.ListFilters{}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.VendorID = vendorID
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParsePurchaseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), procurementsvc.Actor{UserID: userID, Role: role}, filters, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminGetPurchaseOrder returns one purchase order with its lines.
func AdminGetPurchaseOrder(svc procurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.PathUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		po, err := svc.Get(r.Context(), procurementsvc.Actor{UserID: userID, Role: role}, poID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, po)
	}
}

// AdminUpdatePurchaseOrderStatus moves a purchase order along its lifecycle.
// Receipt statuses are reached only by posting GRNs.
func AdminUpdatePurchaseOrderStatus(svc procurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.PathUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePurchaseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		po, err := svc.UpdateStatus(r.Context(), procurementsvc.Actor{UserID: userID, Role: role}, poID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, po)
	}
}

// AdminPostGRN confirms a goods receipt and moves stock in.
func AdminPostGRN(svc procurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.PathUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload postGRNRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]procurementsvc.GRNLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, procurementsvc.GRNLineInput{
				PurchaseOrderItemID: line.PurchaseOrderItemID,
				Quantity:            line.Quantity,
			})
		}

		grn, err := svc.PostGRN(r.Context(), procurementsvc.Actor{UserID: userID, Role: role}, procurementsvc.PostGRNInput{
			PurchaseOrderID: poID,
			Notes:           payload.Notes,
			Lines:           lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, grn)
	}
}

// AdminListGRNs returns the receipts posted against one purchase order.
func AdminListGRNs(svc procurementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "procurement service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poID, err := validators.PathUUID(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		grns, err := svc.ListGRNs(r.Context(), procurementsvc.Actor{UserID: userID, Role: role}, poID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, grns)
	}
}

type createPurchaseOrderRequest struct {
	VendorID uuid.UUID                  `json:"vendor_id" validate:"required"`
	Notes    *string                    `json:"notes,omitempty"`
	Lines    []purchaseOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type purchaseOrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"required"`
}

type purchaseOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type postGRNRequest struct {
	Notes *string          `json:"notes,omitempty"`
	Lines []grnLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type grnLineRequest struct {
	PurchaseOrderItemID uuid.UUID `json:"purchase_order_item_id" validate:"required"`
	Quantity            int       `json:"quantity" validate:"required,min=1"`
}
