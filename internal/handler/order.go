package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
)

// orderInput is the body of verify and submit requests.
type orderInput struct {
	Quantity          int
	ShippingLatitude  float64
	ShippingLongitude float64
}

// decodeOrderInput reads a strict orderInput: every field is required, unknown
// fields are rejected and quantity must be an integer.
func decodeOrderInput(r *http.Request) (orderInput, error) {
	var (
		in   orderInput
		seen = map[string]bool{}
	)
	d := jx.Decode(r.Body, 512)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if seen[key] {
			return errors.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		var err error
		switch key {
		case "quantity":
			in.Quantity, err = d.Int()
		case "shippingLatitude":
			in.ShippingLatitude, err = d.Float64()
		case "shippingLongitude":
			in.ShippingLongitude, err = d.Float64()
		default:
			return errors.Errorf("unknown field %q", key)
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return orderInput{}, err
	}

	for _, key := range []string{"quantity", "shippingLatitude", "shippingLongitude"} {
		if !seen[key] {
			return orderInput{}, errors.Errorf("%s: required", key)
		}
	}
	return in, nil
}

func (h *Handler) readOrderInput(w http.ResponseWriter, r *http.Request) (orderInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	in, err := decodeOrderInput(r)
	if err != nil {
		writeError(w, r, &order.InvalidInputError{Field: "body", Reason: err.Error()})
		return orderInput{}, false
	}
	return in, true
}

// VerifyOrder quotes an order without side effects.
func (h *Handler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readOrderInput(w, r)
	if !ok {
		return
	}

	q, err := h.orders.Quote(r.Context(), order.QuoteRequest{
		Quantity:  in.Quantity,
		Latitude:  in.ShippingLatitude,
		Longitude: in.ShippingLongitude,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("totalPrice", func(e *jx.Encoder) { encodeMoney(e, q.TotalPrice) })
			e.Field("discountPercentage", func(e *jx.Encoder) { e.Int(q.DiscountPercentage) })
			e.Field("shippingCost", func(e *jx.Encoder) { encodeMoney(e, q.ShippingCost) })
			e.Field("isValid", func(e *jx.Encoder) { e.Bool(q.IsValid) })
			e.Field("fulfilled", func(e *jx.Encoder) { e.Bool(q.Fulfilled) })
			e.Field("availableQuantity", func(e *jx.Encoder) { e.Int(q.Available) })
		})
	})
}

// SubmitOrder commits an order and reserves its stock.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readOrderInput(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Commit(r.Context(), order.CommitRequest{
		Quantity:  in.Quantity,
		Latitude:  in.ShippingLatitude,
		Longitude: in.ShippingLongitude,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/orders/"+o.Number)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// GetOrder returns a committed order with its shipments.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Order(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("orderNumber", func(e *jx.Encoder) { e.Str(o.Number) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(o.ProductID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(o.Quantity) })
		e.Field("shippingLatitude", func(e *jx.Encoder) { e.Float64(o.Destination.Latitude()) })
		e.Field("shippingLongitude", func(e *jx.Encoder) { e.Float64(o.Destination.Longitude()) })
		e.Field("totalPrice", func(e *jx.Encoder) { encodeMoney(e, o.TotalPrice) })
		e.Field("discountPercentage", func(e *jx.Encoder) { e.Int(o.DiscountPercentage) })
		e.Field("shippingCost", func(e *jx.Encoder) { encodeMoney(e, o.ShippingCost) })
		e.Field("submittedAt", func(e *jx.Encoder) { e.Str(formatTime(o.SubmittedAt)) })
		e.Field("shipments", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("warehouseId", func(e *jx.Encoder) { e.Str(l.WarehouseID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("distanceKm", func(e *jx.Encoder) { e.Float64(l.Distance.Kilometers()) })
						e.Field("weightKg", func(e *jx.Encoder) { e.Num(jx.Num(l.Weight.Kilograms().String())) })
						e.Field("cost", func(e *jx.Encoder) { encodeMoney(e, l.Cost) })
					})
				}
			})
		})
	})
}

// encodeMoney writes m in dollars with exactly two decimals.
func encodeMoney(e *jx.Encoder, m money.Money) {
	e.Num(jx.Num(m.Dollars().StringFixed(2)))
}
