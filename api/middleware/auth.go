package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/devicehub-backend/api/responses"
	"github.com/angelmondragon/devicehub-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
)

// TokenParser verifies operator bearer tokens; *auth.Signer implements it.
type TokenParser interface {
	Parse(token string) (*auth.OperatorClaims, error)
}

// OperatorAuth admits requests carrying a valid operator token and records the
// operator id and role on the request context.
func OperatorAuth(tokens TokenParser, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			operatorID, role := claims.OperatorID.String(), string(claims.Role)
			ctx := context.WithValue(r.Context(), ctxOperatorID, operatorID)
			ctx = context.WithValue(ctx, ctxRole, role)
			if logg != nil {
				ctx = logg.WithActorRole(logg.WithOperatorID(ctx, operatorID), role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
