package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nexusfashion/nexus-backend/api/responses"
	"github.com/nexusfashion/nexus-backend/api/validators"
	"github.com/nexusfashion/nexus-backend/internal/commissions"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
)

type commissionCancelPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type commissionApproveManyPayload struct {
	CommissionIDs []string `json:"commission_ids" validate:"required,min=1,dive,uuid"`
}

// CommissionGet returns one commission scoped to the caller.
func CommissionGet(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		commissionID, err := parseUUIDParam(chi.URLParam(r, "commissionID"), "commission id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		commission, err := svc.GetByID(ctx, commissions.GetInput{
			CommissionID:  commissionID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, commission)
	}
}

// CommissionList returns a vendor-scoped commission ledger page.
func CommissionList(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
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

		var status *enums.CommissionStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseCommissionStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission status"))
				return
			}
			status = &parsed
		}

		rows, err := svc.ListForVendor(ctx, commissions.ListInput{
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

// CommissionSummary returns the vendor earnings rollup by status plus the
// payable total.
func CommissionSummary(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
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

		summary, err := svc.Summarize(ctx, commissions.SummarizeInput{
			VendorID:      *vendorID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CommissionApprove moves one pending commission to approved. Admin only.
func CommissionApprove(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		commissionID, err := parseUUIDParam(chi.URLParam(r, "commissionID"), "commission id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		commission, err := svc.Approve(ctx, commissions.ApproveInput{
			CommissionID:  commissionID,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, commission)
	}
}

// CommissionApproveMany approves a batch atomically. Admin only.
func CommissionApproveMany(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload commissionApproveManyPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
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

		rows, err := svc.ApproveMany(ctx, commissions.ApproveManyInput{
			CommissionIDs: ids,
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

// CommissionCancel voids one commission that has not been paid out. Admin only.
func CommissionCancel(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		commissionID, err := parseUUIDParam(chi.URLParam(r, "commissionID"), "commission id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload commissionCancelPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		commission, err := svc.Cancel(ctx, commissions.CancelInput{
			CommissionID:  commissionID,
			Reason:        payload.Reason,
			ActorUserID:   caller.UserID,
			ActorVendorID: caller.VendorID,
			ActorRole:     caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, commission)
	}
}
