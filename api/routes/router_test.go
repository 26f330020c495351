package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/devicehub-backend/api/controllers"
	"github.com/angelmondragon/devicehub-backend/api/middleware"
	"github.com/angelmondragon/devicehub-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/devicehub-backend/internal/checkout"
	"github.com/angelmondragon/devicehub-backend/internal/orders"
	"github.com/angelmondragon/devicehub-backend/internal/pricing"
	pkgAuth "github.com/angelmondragon/devicehub-backend/pkg/auth"
	"github.com/angelmondragon/devicehub-backend/pkg/config"
	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	"github.com/angelmondragon/devicehub-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	allowed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, allowed: true}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeStore) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	if f.allowed {
		return true, 1, nil
	}
	return false, 99, nil
}

type stubProducts struct{}

func (stubProducts) FindProduct(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, nil
}

type stubValidator struct{}

func (stubValidator) Validate(context.Context, string, []uuid.UUID) (*pricing.AppliedPromotion, error) {
	return &pricing.AppliedPromotion{Code: "SAVE10"}, nil
}

type stubCheckout struct{}

func (stubCheckout) Checkout(context.Context, checkoutsvc.Input) (checkoutsvc.Result, error) {
	return checkoutsvc.Result{OrderID: uuid.New()}, nil
}

func (stubCheckout) InProgress(context.Context, string) (bool, error) { return false, nil }

type stubReports struct{}

func (stubReports) Report(context.Context) (orders.Report, error) { return orders.Report{}, nil }

func (stubReports) List(context.Context, orders.ListParams) ([]orders.NormalizedOrder, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (stubReports) Invalidate(context.Context) error { return nil }

type countingMutator struct {
	mu    sync.Mutex
	calls int
}

func (m *countingMutator) SetStatus(_ context.Context, keys []orders.GroupKey, _ enums.OrderStatus) (orders.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return orders.BulkResult{Groups: len(keys), Affected: int64(len(keys))}, nil
}

func (m *countingMutator) Delete(_ context.Context, keys []orders.GroupKey) (orders.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return orders.BulkResult{Groups: len(keys)}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "devicehub-test", ExpirationMinutes: 30},
		RateLimit: config.RateLimitConfig{
			PromoWindow:       time.Minute,
			PromoIPLimit:      5,
			PromoSessionLimit: 5,
		},
	}
}

type testRouter struct {
	handler http.Handler
	store   *fakeStore
	bulk    *countingMutator
	cfg     *config.Config
}

func newTestRouter(t *testing.T) testRouter {
	t.Helper()
	cartSvc, err := cart.NewService(cart.NewMemorySessionStore(), stubProducts{}, stubValidator{})
	require.NoError(t, err)

	cfg := testConfig()
	store := newFakeStore()
	bulk := &countingMutator{}
	signer, err := pkgAuth.NewSigner(cfg.JWT)
	require.NoError(t, err)
	handler := NewRouter(Deps{
		Config:   cfg,
		Tokens:   signer,
		Health:   map[string]controllers.Pinger{"db": stubPinger{}},
		Store:    store,
		Metrics:  http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
		Cart:     cartSvc,
		Checkout: stubCheckout{},
		Reports:  stubReports{},
		Bulk:     bulk,
	})
	return testRouter{handler: handler, store: store, bulk: bulk, cfg: cfg}
}

func (tr testRouter) token(t *testing.T, role enums.OperatorRole) string {
	t.Helper()
	signer, err := pkgAuth.NewSigner(tr.cfg.JWT)
	require.NoError(t, err)
	token, err := signer.Mint(time.Now(), pkgAuth.OperatorTokenPayload{
		OperatorID: uuid.New(),
		Name:       "ops",
		Role:       role,
	})
	require.NoError(t, err)
	return token
}

func (tr testRouter) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	tr.handler.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	tr := newTestRouter(t)
	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/health/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestStorefrontIssuesSessionHeader(t *testing.T) {
	tr := newTestRouter(t)

	resp := tr.do(http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, resp.Header().Get(middleware.SessionHeader))

	resp = tr.do(http.MethodGet, "/api/v1/cart", "", map[string]string{middleware.SessionHeader: "abc"})
	assert.Equal(t, "abc", resp.Header().Get(middleware.SessionHeader))
}

func TestPromotionRouteIsRateLimited(t *testing.T) {
	tr := newTestRouter(t)
	tr.store.allowed = false

	resp := tr.do(http.MethodPost, "/api/v1/cart/promotion", `{"code":"SAVE10"}`, map[string]string{middleware.SessionHeader: "abc"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	tr := newTestRouter(t)
	assert.Equal(t, http.StatusUnauthorized, tr.do(http.MethodGet, "/api/admin/v1/orders/report", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, tr.do(http.MethodGet, "/api/admin/v1/orders/report", "", map[string]string{
		"Authorization": "Bearer not-a-token",
	}).Code)
}

func TestViewerCanReadButNotMutate(t *testing.T) {
	tr := newTestRouter(t)
	auth := map[string]string{"Authorization": "Bearer " + tr.token(t, enums.OperatorRoleViewer)}

	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/api/admin/v1/orders/report", "", auth).Code)
	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/api/admin/v1/orders", "", auth).Code)

	body := `{"groups":[{"customer_name":"Dana","phone_number":"050"}]}`
	assert.Equal(t, http.StatusForbidden, tr.do(http.MethodPost, "/api/admin/v1/orders/bulk/delete", body, auth).Code)
	assert.Zero(t, tr.bulk.calls)
}

func TestBulkMutationReplaysIdempotencyKey(t *testing.T) {
	tr := newTestRouter(t)
	headers := map[string]string{
		"Authorization":              "Bearer " + tr.token(t, enums.OperatorRoleOperator),
		middleware.IdempotencyHeader: "bulk-1",
	}
	body := `{"status":"completed","groups":[{"customer_name":"Dana","phone_number":"050"}]}`

	first := tr.do(http.MethodPost, "/api/admin/v1/orders/bulk/status", body, headers)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := tr.do(http.MethodPost, "/api/admin/v1/orders/bulk/status", body, headers)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, tr.bulk.calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayedHeader))
}

func TestCheckoutRoute(t *testing.T) {
	tr := newTestRouter(t)
	body := `{"customer_name":"Dana","phone_number":"050-1234567","address":"Herzl 1"}`
	resp := tr.do(http.MethodPost, "/api/v1/checkout", body, map[string]string{middleware.SessionHeader: "abc"})
	assert.Equal(t, http.StatusCreated, resp.Code)

	resp = tr.do(http.MethodGet, "/api/v1/checkout/status", "", map[string]string{middleware.SessionHeader: "abc"})
	assert.Equal(t, http.StatusOK, resp.Code)
}
