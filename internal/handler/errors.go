package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/rpstreef/screencloud-challenge/internal/domain/order"
	"github.com/rpstreef/screencloud-challenge/pkg/problem"
)

// errorMapping pairs a domain sentinel with its HTTP representation.
type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{order.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{order.ErrShippingCostExceeded, http.StatusBadRequest, "SHIPPING_COST_EXCEEDED"},
	{order.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{order.ErrDuplicateOrder, http.StatusConflict, "DUPLICATE_ORDER"},
	{order.ErrStockConflict, http.StatusConflict, "STOCK_CONFLICT"},
	{order.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{order.ErrUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// problemFor converts err into a problem document. Details of unexpected
// errors are not exposed.
func problemFor(err error) problem.Details {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := err.Error()
		if m.status >= http.StatusInternalServerError {
			detail = m.target.Error()
		}
		return problem.New(m.status, m.code, detail)
	}
	return problem.New(http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(err)
	if p.Status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("code", p.Code),
			zap.Error(err),
		)
	}
	problem.Write(w, r, p)
}
