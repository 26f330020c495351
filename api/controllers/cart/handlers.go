package cart

import (
	"context"
	"net/http"

	cartdto "github.com/angelmondragon/devicehub-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/devicehub-backend/api/middleware"
	"github.com/angelmondragon/devicehub-backend/api/responses"
	"github.com/angelmondragon/devicehub-backend/api/validators"
	cartsvc "github.com/angelmondragon/devicehub-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

type cartAction func(ctx context.Context, svc cartsvc.Service, sessionID string, r *http.Request) (cartsvc.State, error)

// CartFetch returns the session cart with derived totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, _ *http.Request) (cartsvc.State, error) {
		return svc.Get(ctx, sessionID)
	})
}

// CartAddItem adds a product line, merging with an existing line of the same options.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, r *http.Request) (cartsvc.State, error) {
		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cartsvc.State{}, err
		}
		return svc.AddItem(ctx, sessionID, toAddItemInput(payload))
	})
}

func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, r *http.Request) (cartsvc.State, error) {
		var payload cartdto.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cartsvc.State{}, err
		}
		return svc.UpdateQuantity(ctx, sessionID, toIdentity(payload.LineRef), payload.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, r *http.Request) (cartsvc.State, error) {
		var payload cartdto.RemoveItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cartsvc.State{}, err
		}
		return svc.RemoveItem(ctx, sessionID, toIdentity(payload.LineRef))
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, _ *http.Request) (cartsvc.State, error) {
		return svc.Clear(ctx, sessionID)
	})
}

func CartOpen(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, _ *http.Request) (cartsvc.State, error) {
		return svc.Open(ctx, sessionID)
	})
}

func CartClose(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, _ *http.Request) (cartsvc.State, error) {
		return svc.Close(ctx, sessionID)
	})
}

// CartApplyPromotion validates a promo code against the cart's brands and
// attaches it. A rejection responds 422 with the reason and leaves the cart as is.
func CartApplyPromotion(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, r *http.Request) (cartsvc.State, error) {
		var payload cartdto.ApplyPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cartsvc.State{}, err
		}
		return svc.ApplyPromotion(ctx, sessionID, validators.SanitizeString(payload.Code, 64))
	})
}

func CartRemovePromotion(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(ctx context.Context, svc cartsvc.Service, sessionID string, _ *http.Request) (cartsvc.State, error) {
		return svc.RemovePromotion(ctx, sessionID)
	})
}

func handle(svc cartsvc.Service, logg *logger.Logger, action cartAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		state, err := action(r.Context(), svc, sessionID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(state))
	}
}
