package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListWarehouses returns the current stock snapshot.
func (h *Handler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	ws, err := h.warehouses.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, wh := range ws {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(wh.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(wh.Name) })
					e.Field("latitude", func(e *jx.Encoder) { e.Float64(wh.Location.Latitude()) })
					e.Field("longitude", func(e *jx.Encoder) { e.Float64(wh.Location.Longitude()) })
					e.Field("stock", func(e *jx.Encoder) { e.Int(wh.Stock) })
				})
			}
		})
	})
}
