package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/devicehub-backend/api/responses"
	"github.com/angelmondragon/devicehub-backend/api/validators"
	ordersvc "github.com/angelmondragon/devicehub-backend/internal/orders"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
	"github.com/angelmondragon/devicehub-backend/pkg/pagination"
)

type groupRef struct {
	PromoKey     string `json:"promo_key" validate:"max=64"`
	CustomerName string `json:"customer_name" validate:"notblank,max=200"`
	PhoneNumber  string `json:"phone_number" validate:"notblank,max=32"`
}

type bulkStatusRequest struct {
	Groups []groupRef `json:"groups" validate:"required,min=1,max=500,dive"`
	Status string     `json:"status" validate:"notblank"`
}

type bulkDeleteRequest struct {
	Groups []groupRef `json:"groups" validate:"required,min=1,max=500,dive"`
}

// Report returns the ledger aggregated by promotion bucket and customer.
func Report(svc ordersvc.ReportService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}
		if strings.EqualFold(r.URL.Query().Get("refresh"), "true") {
			if err := svc.Invalidate(ctx); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		report, err := svc.Report(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// List pages through normalized orders, newest first.
func List(svc ordersvc.ReportService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cursor, err := validators.ParseQueryCursor(r, "cursor")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := validators.ParseQueryOrderStatus(r, "status")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, next, err := svc.List(ctx, ordersvc.ListParams{Limit: limit, Cursor: cursor, Status: status})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		nextCursor := ""
		if next != nil {
			nextCursor = pagination.EncodeCursor(*next)
		}
		responses.WritePage(w, items, nextCursor)
	}
}

// BulkStatus moves every order of the selected customer groups to one status.
func BulkStatus(mutator ordersvc.BulkMutator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if mutator == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk mutator unavailable"))
			return
		}

		var payload bulkStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"field": "status"}))
			return
		}

		result, err := mutator.SetStatus(ctx, toGroupKeys(payload.Groups), status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BulkDelete removes every order of the selected customer groups.
func BulkDelete(mutator ordersvc.BulkMutator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if mutator == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk mutator unavailable"))
			return
		}

		var payload bulkDeleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := mutator.Delete(ctx, toGroupKeys(payload.Groups))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func toGroupKeys(refs []groupRef) []ordersvc.GroupKey {
	keys := make([]ordersvc.GroupKey, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ordersvc.GroupKey{
			PromoKey:     strings.TrimSpace(ref.PromoKey),
			CustomerName: ref.CustomerName,
			PhoneNumber:  ref.PhoneNumber,
		})
	}
	return keys
}
