// Package handler exposes the fulfillment engine over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

// Handler serves the order and warehouse endpoints.
type Handler struct {
	orders     *order.Service
	warehouses warehouse.Repository
	now        func() time.Time
}

// NewHandler returns a Handler backed by the order service and the warehouse
// snapshot provider.
func NewHandler(orders *order.Service, warehouses warehouse.Repository) *Handler {
	return &Handler{
		orders:     orders,
		warehouses: warehouses,
		now:        time.Now,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders/verify", h.VerifyOrder)
	mux.HandleFunc("POST /api/orders/submit", h.SubmitOrder)
	mux.HandleFunc("GET /api/orders/{number}", h.GetOrder)
	mux.HandleFunc("GET /api/warehouses", h.ListWarehouses)
	mux.HandleFunc("GET /health", h.Health)
}

// Health reports that the process is serving requests.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("OK") })
			e.Field("timestamp", func(e *jx.Encoder) { e.Str(formatTime(h.now())) })
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// formatTime renders t as an ISO 8601 UTC timestamp with milliseconds.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
