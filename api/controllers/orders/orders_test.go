package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersvc "github.com/angelmondragon/devicehub-backend/internal/orders"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/pagination"
)

type stubReports struct {
	report      ordersvc.Report
	items       []ordersvc.NormalizedOrder
	next        *pagination.Cursor
	lastParams  ordersvc.ListParams
	invalidated int
}

func (s *stubReports) Report(context.Context) (ordersvc.Report, error) { return s.report, nil }

func (s *stubReports) List(_ context.Context, params ordersvc.ListParams) ([]ordersvc.NormalizedOrder, *pagination.Cursor, error) {
	s.lastParams = params
	return s.items, s.next, nil
}

func (s *stubReports) Invalidate(context.Context) error {
	s.invalidated++
	return nil
}

type stubMutator struct {
	keys   []ordersvc.GroupKey
	status enums.OrderStatus
	err    error
}

func (s *stubMutator) SetStatus(_ context.Context, keys []ordersvc.GroupKey, status enums.OrderStatus) (ordersvc.BulkResult, error) {
	s.keys, s.status = keys, status
	if s.err != nil {
		return ordersvc.BulkResult{}, s.err
	}
	return ordersvc.BulkResult{Groups: len(keys), Affected: 2}, nil
}

func (s *stubMutator) Delete(_ context.Context, keys []ordersvc.GroupKey) (ordersvc.BulkResult, error) {
	s.keys = keys
	if s.err != nil {
		return ordersvc.BulkResult{}, s.err
	}
	return ordersvc.BulkResult{Groups: len(keys), Affected: 1}, nil
}

func TestReportRefreshInvalidatesCache(t *testing.T) {
	svc := &stubReports{report: ordersvc.Report{GrandTotal: decimal.NewFromInt(230), OrderCount: 1}}

	resp := httptest.NewRecorder()
	Report(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/report?refresh=true", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, svc.invalidated)
	var envelope struct {
		Data ordersvc.Report `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Data.GrandTotal.Equal(decimal.NewFromInt(230)))
	assert.Equal(t, 1, envelope.Data.OrderCount)
}

func TestListPassesFiltersAndEncodesCursor(t *testing.T) {
	next := &pagination.Cursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), ID: uuid.New()}
	svc := &stubReports{items: []ordersvc.NormalizedOrder{{Schema: ordersvc.SchemaCurrent}}, next: next}

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=10&status=pending", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 10, svc.lastParams.Limit)
	require.NotNil(t, svc.lastParams.Status)
	assert.Equal(t, enums.OrderStatusPending, *svc.lastParams.Status)

	var envelope struct {
		NextCursor string `json:"next_cursor"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, pagination.EncodeCursor(*next), envelope.NextCursor)
}

func TestListRejectsBadQuery(t *testing.T) {
	for _, query := range []string{"limit=0", "limit=abc", "status=shipped", "cursor=not-base64!"} {
		t.Run(query, func(t *testing.T) {
			resp := httptest.NewRecorder()
			List(&stubReports{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestBulkStatusForwardsGroups(t *testing.T) {
	mutator := &stubMutator{}
	body := `{"status":"Completed","groups":[{"promo_key":"save10","customer_name":"Dana","phone_number":"050"},{"customer_name":"Avi","phone_number":"052"}]}`

	resp := httptest.NewRecorder()
	BulkStatus(mutator, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/bulk/status", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, enums.OrderStatusCompleted, mutator.status)
	require.Len(t, mutator.keys, 2)
	assert.Equal(t, "save10", mutator.keys[0].PromoKey)
	assert.Equal(t, "", mutator.keys[1].PromoKey)
}

func TestBulkStatusValidation(t *testing.T) {
	cases := map[string]string{
		"unknown status": `{"status":"shipped","groups":[{"customer_name":"Dana","phone_number":"050"}]}`,
		"no groups":      `{"status":"pending","groups":[]}`,
		"blank customer": `{"status":"pending","groups":[{"customer_name":" ","phone_number":"050"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			mutator := &stubMutator{}
			resp := httptest.NewRecorder()
			BulkStatus(mutator, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Nil(t, mutator.keys)
		})
	}
}

func TestBulkDeleteSurfacesMutationFailure(t *testing.T) {
	mutator := &stubMutator{err: pkgerrors.New(pkgerrors.CodeBulkMutation, "bulk delete touched 1 of 2 orders")}
	body := `{"groups":[{"promo_key":"no-promotion","customer_name":"Dana","phone_number":"050"}]}`

	resp := httptest.NewRecorder()
	BulkDelete(mutator, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, resp.Code)
	require.Len(t, mutator.keys, 1)
}
