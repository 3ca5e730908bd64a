package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nexusfashion/nexus-backend/api/responses"
	"github.com/nexusfashion/nexus-backend/api/validators"
	"github.com/nexusfashion/nexus-backend/internal/orders"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
)

type orderReasonPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type itemStatusPayload struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// OrderGet returns one order scoped to the caller.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(chi.URLParam(r, "orderID"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetByID(ctx, orders.GetInput{
			OrderID:       orderID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderList returns the caller's order history.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := paginationFromQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListForCustomer(ctx, orders.ListInput{
			CustomerID:  caller.UserID,
			Pagination:  params,
			ActorUserID: caller.UserID,
			ActorRole:   caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// OrderConfirmPayment marks the order paid and confirmed. Admin only: the
// payment gateway callback path runs through an admin-scoped worker.
func OrderConfirmPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(chi.URLParam(r, "orderID"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.ConfirmPayment(ctx, orders.ConfirmPaymentInput{
			OrderID:       orderID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel cancels a not-yet-shipped order.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(chi.URLParam(r, "orderID"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload orderReasonPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Cancel(ctx, orders.CancelInput{
			OrderID:       orderID,
			Reason:        payload.Reason,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderReturn marks a delivered order returned. Admin only.
func OrderReturn(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(chi.URLParam(r, "orderID"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload orderReasonPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.MarkReturned(ctx, orders.ReturnInput{
			OrderID:     orderID,
			Reason:      payload.Reason,
			ActorUserID: caller.UserID,
			ActorRole:   caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderRefund refunds a returned or cancelled-after-payment order. Admin only.
func OrderRefund(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(chi.URLParam(r, "orderID"), "order id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload orderReasonPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Refund(ctx, orders.RefundInput{
			OrderID:     orderID,
			Reason:      payload.Reason,
			ActorUserID: caller.UserID,
			ActorRole:   caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderItemUpdateStatus moves one vendor line forward through fulfillment.
func OrderItemUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := parseUUIDParam(chi.URLParam(r, "itemID"), "order item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload itemStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		target, err := enums.ParseOrderItemStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item status"))
			return
		}

		item, err := svc.UpdateItemStatus(ctx, orders.UpdateItemStatusInput{
			ItemID:        itemID,
			Target:        target,
			Notes:         payload.Notes,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// VendorOrderItems returns the vendor's fulfillment queue.
func VendorOrderItems(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := paginationFromQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID := caller.VendorID
		if raw := strings.TrimSpace(r.URL.Query().Get("vendor_id")); raw != "" {
			id, err := parseUUIDParam(raw, "vendor id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			vendorID = &id
		}
		if vendorID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required"))
			return
		}

		var status *enums.OrderItemStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderItemStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item status"))
				return
			}
			status = &parsed
		}

		rows, err := svc.ListVendorItems(ctx, orders.VendorItemsInput{
			VendorID:      *vendorID,
			Status:        status,
			Pagination:    params,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
