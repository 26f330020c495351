package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/devicehub-backend/pkg/auth"
	"github.com/angelmondragon/devicehub-backend/pkg/config"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
)

var testJWT = mustSigner(config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60})

func mustSigner(cfg config.JWTConfig) *auth.Signer {
	s, err := auth.NewSigner(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func mintTestToken(t *testing.T, role enums.OperatorRole, operatorID uuid.UUID) string {
	t.Helper()
	token, err := testJWT.Mint(time.Now(), auth.OperatorTokenPayload{
		OperatorID: operatorID,
		Role:       role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestOperatorAuthRejectsMissingToken(t *testing.T) {
	handler := OperatorAuth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOperatorAuthRejectsInvalidToken(t *testing.T) {
	handler := OperatorAuth(testJWT, nil)(okHandler())
	valid := mintTestToken(t, enums.OperatorRoleOperator, uuid.New())

	for _, header := range []string{"Bearer invalid", "Basic " + valid, valid, "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestOperatorAuthSeedsContext(t *testing.T) {
	operatorID := uuid.New()
	token := mintTestToken(t, enums.OperatorRoleOperator, operatorID)

	var gotOperator, gotRole string
	handler := OperatorAuth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperator = OperatorIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotOperator != operatorID.String() {
		t.Fatalf("expected operator %s got %s", operatorID, gotOperator)
	}
	if gotRole != string(enums.OperatorRoleOperator) {
		t.Fatalf("unexpected role %s", gotRole)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role enums.OperatorRole
		want int
	}{
		{"operator may mutate", enums.OperatorRoleOperator, http.StatusOK},
		{"viewer is forbidden", enums.OperatorRoleViewer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := mintTestToken(t, tt.role, uuid.New())
			handler := OperatorAuth(testJWT, nil)(RequireRole(nil, enums.OperatorRoleOperator)(okHandler()))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, resp.Code)
			}
		})
	}
}
