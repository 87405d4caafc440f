package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finwise/internal/httpx"
)

// ZapRecoverer turns a handler panic into a 500 and logs it with the stack.
func ZapRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
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
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Stack("stack"),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					httpx.JSON(w, http.StatusInternalServerError, httpx.ErrorBody{Message: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
