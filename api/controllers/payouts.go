package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nexusfashion/nexus-backend/api/responses"
	"github.com/nexusfashion/nexus-backend/api/validators"
	"github.com/nexusfashion/nexus-backend/internal/payouts"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
)

type payoutRequestPayload struct {
	VendorID      *string  `json:"vendor_id,omitempty"`
	CommissionIDs []string `json:"commission_ids,omitempty" validate:"omitempty,dive,uuid"`
}

type payoutCompletePayload struct {
	TransactionReference string `json:"transaction_reference" validate:"required"`
}

type payoutFailPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// PayoutRequest batches the caller's approved commissions into a payout.
func PayoutRequest(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload payoutRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID := caller.VendorID
		if payload.VendorID != nil && strings.TrimSpace(*payload.VendorID) != "" {
			id, err := parseUUIDParam(*payload.VendorID, "vendor id")
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

		ids := make([]uuid.UUID, 0, len(payload.CommissionIDs))
		for _, raw := range payload.CommissionIDs {
			id, err := parseUUIDParam(raw, "commission id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			ids = append(ids, id)
		}

		payout, err := svc.Request(ctx, payouts.RequestInput{
			VendorID:      *vendorID,
			CommissionIDs: ids,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

// PayoutGet returns one payout scoped to the caller.
func PayoutGet(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payoutID, err := parseUUIDParam(chi.URLParam(r, "payoutID"), "payout id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payout, err := svc.GetByID(ctx, payouts.GetInput{
			PayoutID:      payoutID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// PayoutList returns a vendor-scoped payout history page.
func PayoutList(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
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

		var status *enums.PayoutStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout status"))
				return
			}
			status = &parsed
		}

		rows, err := svc.ListForVendor(ctx, payouts.ListInput{
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

// PayoutProcess moves a pending payout into processing. Admin only.
func PayoutProcess(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payoutID, err := parseUUIDParam(chi.URLParam(r, "payoutID"), "payout id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payout, err := svc.Process(ctx, payouts.ProcessInput{
			PayoutID:      payoutID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// PayoutComplete settles a processing payout against a bank transfer. Admin only.
func PayoutComplete(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payoutID, err := parseUUIDParam(chi.URLParam(r, "payoutID"), "payout id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload payoutCompletePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payout, err := svc.Complete(ctx, payouts.CompleteInput{
			PayoutID:             payoutID,
			TransactionReference: payload.TransactionReference,
			ActorUserID:          caller.UserID,
			ActorVendorID:        caller.VendorID,
			ActorRole:            caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// PayoutFail records a failed transfer and releases the reserved commissions.
// Admin only.
func PayoutFail(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payoutID, err := parseUUIDParam(chi.URLParam(r, "payoutID"), "payout id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload payoutFailPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payout, err := svc.Fail(ctx, payouts.FailInput{
			PayoutID:      payoutID,
			Reason:        payload.Reason,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// PayoutCancel withdraws a payout that has not started processing.
func PayoutCancel(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payoutID, err := parseUUIDParam(chi.URLParam(r, "payoutID"), "payout id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payout, err := svc.Cancel(ctx, payouts.CancelInput{
			PayoutID:      payoutID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}
