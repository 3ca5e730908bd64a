package controllers

import (
	"net/http"

	"github.com/nexusfashion/nexus-backend/api/responses"
	"github.com/nexusfashion/nexus-backend/api/validators"
	"github.com/nexusfashion/nexus-backend/internal/checkout"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
	"github.com/nexusfashion/nexus-backend/pkg/types"
)

type checkoutPayload struct {
	ShippingAddress *types.Address `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
}

// Checkout converts the caller's cart into an order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(ctx, checkout.PlaceOrderInput{
			CustomerID:      caller.UserID,
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			Notes:           payload.Notes,
			ActorUserID:     caller.UserID,
			ActorVendorID:   caller.VendorID,
			ActorRole:       caller.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
