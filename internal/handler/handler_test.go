package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpstreef/screencloud-challenge/internal/domain/allocation"
	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
	"github.com/rpstreef/screencloud-challenge/internal/domain/product"
	"github.com/rpstreef/screencloud-challenge/internal/domain/shipping"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
	"github.com/rpstreef/screencloud-challenge/internal/storage/memory"
)

var testTime = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

// depot sits on the equator so shipping to (0, 0) is free and shipping to
// (0, 90) costs more than the allowed ratio for a single unit.
var depot = warehouse.Warehouse{ID: "wh-depot", Name: "Depot", Location: geo.MustCoordinates(0, 0), Stock: 100}

type failingRepo struct{ err error }

func (r failingRepo) List(context.Context) ([]warehouse.Warehouse, error) { return nil, r.err }

func newTestServer(t *testing.T, store *memory.Store, warehouses warehouse.Repository) http.Handler {
	t.Helper()
	svc := order.NewService(
		product.Default(),
		allocation.New(shipping.NewCalculator(shipping.DefaultRate)),
		order.NewValidator(order.DefaultMaxShippingPercent),
		warehouses,
		store,
		store,
		order.WithClock(func() time.Time { return testTime }),
		order.WithNumberGenerator(func() string { return "order-1" }),
	)
	h := NewHandler(svc, warehouses)
	h.now = func() time.Time { return testTime }

	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestVerifyOrder_Valid(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	w := do(srv, http.MethodPost, "/api/orders/verify",
		`{"quantity": 50, "shippingLatitude": 0, "shippingLongitude": 0}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t,
		`{"totalPrice":6750.00,"discountPercentage":10,"shippingCost":0.00,"isValid":true,"fulfilled":true,"availableQuantity":50}`,
		w.Body.String())
}

func TestVerifyOrder_Invalid(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	t.Run("ShippingTooExpensive", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/api/orders/verify",
			`{"quantity": 1, "shippingLatitude": 0, "shippingLongitude": 90}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"isValid":false`)
		assert.Contains(t, w.Body.String(), `"fulfilled":true`)
	})

	t.Run("NotEnoughStock", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/api/orders/verify",
			`{"quantity": 101, "shippingLatitude": 0, "shippingLongitude": 0}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"isValid":false`)
		assert.Contains(t, w.Body.String(), `"fulfilled":false`)
		assert.Contains(t, w.Body.String(), `"availableQuantity":100`)
	})
}

func TestDecodeOrderInput_Valid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want orderInput
	}{
		{
			name: "minimal",
			body: `{"quantity":5,"shippingLatitude":1,"shippingLongitude":1}`,
			want: orderInput{Quantity: 5, ShippingLatitude: 1, ShippingLongitude: 1},
		},
		{
			name: "reordered with whitespace",
			body: ` { "shippingLongitude": -118.24, "quantity": 30, "shippingLatitude": 34.05 } `,
			want: orderInput{Quantity: 30, ShippingLatitude: 34.05, ShippingLongitude: -118.24},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/orders/verify", strings.NewReader(tt.body))
			got, err := decodeOrderInput(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeOrderInput_FieldError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders/verify",
		strings.NewReader(`{"quantity":"many","shippingLatitude":1,"shippingLongitude":1}`))
	_, err := decodeOrderInput(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestOrderInput_Rejected(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown field", body: `{"quantity": 1, "shippingLatitude": 0, "shippingLongitude": 0, "giftWrap": true}`},
		{name: "fractional quantity", body: `{"quantity": 1.5, "shippingLatitude": 0, "shippingLongitude": 0}`},
		{name: "string quantity", body: `{"quantity": "1", "shippingLatitude": 0, "shippingLongitude": 0}`},
		{name: "missing longitude", body: `{"quantity": 1, "shippingLatitude": 0}`},
		{name: "duplicate field", body: `{"quantity": 1, "quantity": 2, "shippingLatitude": 0, "shippingLongitude": 0}`},
		{name: "not an object", body: `[1, 2]`},
		{name: "empty body", body: ``},
		{name: "zero quantity", body: `{"quantity": 0, "shippingLatitude": 0, "shippingLongitude": 0}`},
		{name: "latitude out of range", body: `{"quantity": 1, "shippingLatitude": 91, "shippingLongitude": 0}`},
		{name: "longitude out of range", body: `{"quantity": 1, "shippingLatitude": 0, "shippingLongitude": -180.5}`},
	}
	for _, tt := range tests {
		for _, path := range []string{"/api/orders/verify", "/api/orders/submit"} {
			t.Run(tt.name+path, func(t *testing.T) {
				w := do(srv, http.MethodPost, path, tt.body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
				assert.Contains(t, w.Body.String(), `"code":"INVALID_INPUT"`)
			})
		}
	}

	ws, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, ws[0].Stock)
}

func TestSubmitOrder_Created(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	w := do(srv, http.MethodPost, "/api/orders/submit",
		`{"quantity": 30, "shippingLatitude": 0, "shippingLongitude": 0}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/orders/order-1", w.Header().Get("Location"))
	assert.JSONEq(t, `{
		"orderNumber": "order-1",
		"productId": "SCOS_P1_PRO",
		"quantity": 30,
		"shippingLatitude": 0,
		"shippingLongitude": 0,
		"totalPrice": 4275.00,
		"discountPercentage": 5,
		"shippingCost": 0.00,
		"submittedAt": "2025-04-02T09:30:00.000Z",
		"shipments": [
			{"warehouseId": "wh-depot", "quantity": 30, "distanceKm": 0, "weightKg": 10.95, "cost": 0.00}
		]
	}`, w.Body.String())

	ws, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 70, ws[0].Stock)

	t.Run("Lookup", func(t *testing.T) {
		got := do(srv, http.MethodGet, "/api/orders/order-1", "")
		require.Equal(t, http.StatusOK, got.Code)
		assert.JSONEq(t, w.Body.String(), got.Body.String())
	})

	t.Run("Duplicate", func(t *testing.T) {
		dup := do(srv, http.MethodPost, "/api/orders/submit",
			`{"quantity": 1, "shippingLatitude": 0, "shippingLongitude": 0}`)
		assert.Equal(t, http.StatusConflict, dup.Code)
		assert.Contains(t, dup.Body.String(), `"code":"DUPLICATE_ORDER"`)
	})
}

func TestSubmitOrder_Rejected(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	w := do(srv, http.MethodPost, "/api/orders/submit",
		`{"quantity": 101, "shippingLatitude": 0, "shippingLongitude": 0}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INSUFFICIENT_STOCK"`)
	assert.Contains(t, w.Body.String(), `"instance":"/api/orders/submit"`)

	w = do(srv, http.MethodPost, "/api/orders/submit",
		`{"quantity": 1, "shippingLatitude": 0, "shippingLongitude": 90}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SHIPPING_COST_EXCEEDED"`)

	ws, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, ws[0].Stock)
}

func TestGetOrder_NotFound(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	w := do(srv, http.MethodGet, "/api/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ORDER_NOT_FOUND"`)
}

func TestListWarehouses(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	w := do(srv, http.MethodGet, "/api/warehouses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"wh-depot","name":"Depot","latitude":0,"longitude":0,"stock":100}]`, w.Body.String())
}

func TestStorageUnavailable(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, failingRepo{err: errors.Wrap(order.ErrUnavailable, "dial tcp 10.0.0.5:5432")})

	w := do(srv, http.MethodGet, "/api/warehouses", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SERVICE_UNAVAILABLE"`)
	assert.NotContains(t, w.Body.String(), "10.0.0.5", "internal details must not leak")

	w = do(srv, http.MethodPost, "/api/orders/verify", `{"quantity": 1, "shippingLatitude": 0, "shippingLongitude": 0}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProblemFor_Unexpected(t *testing.T) {
	p := problemFor(errors.New("pq: relation does not exist"))
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Equal(t, "INTERNAL_ERROR", p.Code)
	assert.Equal(t, "unexpected error", p.Detail)
}

func TestProblemFor_StockConflict(t *testing.T) {
	p := problemFor(errors.Wrap(order.ErrStockConflict, "serialization retries exhausted"))
	assert.Equal(t, http.StatusConflict, p.Status)
	assert.Equal(t, "STOCK_CONFLICT", p.Code)
}

func TestHealth(t *testing.T) {
	store := memory.New(depot)
	srv := newTestServer(t, store, store)

	w := do(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","timestamp":"2025-04-02T09:30:00.000Z"}`, w.Body.String())
}
