package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/rpstreef/screencloud-challenge/pkg/problem"
)

// Recovery turns a panic in the next handler into a logged 500 problem
// response. http.ErrAbortHandler is re-raised.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zctx.From(r.Context()).Error("Panic recovered",
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				w.Header().Set("Connection", "close")
				problem.Write(w, r, problem.New(http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
