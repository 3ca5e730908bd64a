package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexusfashion/nexus-backend/api/responses"
	"github.com/nexusfashion/nexus-backend/api/validators"
	"github.com/nexusfashion/nexus-backend/internal/reports"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
)

type generateReportPayload struct {
	ReportType string `json:"report_type" validate:"required"`
	Reference  string `json:"reference,omitempty"`
}

// ReportGenerate rebuilds the report rows for one window. Admin only.
func ReportGenerate(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if caller.Role != enums.ActorRoleAdmin {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
			return
		}

		var payload generateReportPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reportType, err := enums.ParseReportType(strings.TrimSpace(payload.ReportType))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid report type"))
			return
		}

		reference := time.Now().UTC()
		if raw := strings.TrimSpace(payload.Reference); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reference must be YYYY-MM-DD"))
				return
			}
			reference = parsed
		}

		rows, err := svc.Generate(ctx, reports.GenerateInput{
			ReportType: reportType,
			Reference:  reference,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ReportList returns report rows for a date range, platform-wide for admins
// and vendor-scoped for vendors.
func ReportList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		reportType, err := enums.ParseReportType(strings.TrimSpace(query.Get("report_type")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid report type"))
			return
		}

		from, err := parseDateParam(query.Get("from"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		to, err := parseDateParam(query.Get("to"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var vendorID *uuid.UUID
		if raw := strings.TrimSpace(query.Get("vendor_id")); raw != "" {
			id, err := parseUUIDParam(raw, "vendor id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			vendorID = &id
		} else if caller.Role == enums.ActorRoleVendor {
			vendorID = caller.VendorID
		}

		rows, err := svc.List(ctx, reports.ListInput{
			ReportType:    reportType,
			From:          from,
			To:            to,
			VendorID:      vendorID,
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

func parseDateParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to dates are required")
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dates must be YYYY-MM-DD")
	}
	return parsed, nil
}
