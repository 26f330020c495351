package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/devicehub-backend/api/middleware"
	"github.com/angelmondragon/devicehub-backend/api/responses"
	"github.com/angelmondragon/devicehub-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/devicehub-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerName string `json:"customer_name" validate:"notblank,max=200"`
	PhoneNumber  string `json:"phone_number" validate:"notblank,max=32,phone"`
	Address      string `json:"address" validate:"notblank,max=500"`
}

// Checkout converts the session cart into an order. A replayed idempotency key
// answers 200 with the order written earlier.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			SessionID: sessionID,
			Customer: checkoutsvc.CustomerInfo{
				Name:    validators.SanitizeString(payload.CustomerName, 200),
				Phone:   validators.SanitizeString(payload.PhoneNumber, 32),
				Address: validators.SanitizeString(payload.Address, 500),
			},
		}
		if key := strings.TrimSpace(r.Header.Get(middleware.IdempotencyHeader)); key != "" {
			input.IdempotencyKey = &key
		}

		result, err := svc.Checkout(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// CheckoutStatus reports whether a checkout for the session is in flight, so
// the storefront can keep its submit button disabled.
func CheckoutStatus(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sessionID := middleware.SessionIDFromContext(ctx)
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		inProgress, err := svc.InProgress(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"in_progress": inProgress})
	}
}
