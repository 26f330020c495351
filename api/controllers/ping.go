package controllers

import (
	"net/http"

	"github.com/angelmondragon/devicehub-backend/api/middleware"
	"github.com/angelmondragon/devicehub-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "storefront", "status": "ok"})
	}
}

// OperatorPing echoes the identity carried by the operator token.
func OperatorPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		responses.WriteSuccess(w, map[string]string{
			"scope":       "admin",
			"status":      "ok",
			"operator_id": middleware.OperatorIDFromContext(ctx),
			"role":        middleware.RoleFromContext(ctx),
		})
	}
}
