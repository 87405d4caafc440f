package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
)

// RequestTimeout bounds each request with a context deadline. Unlike chi's
// Timeout it never writes over a response the handler already started: store
// calls that hit the deadline answer 503 themselves, and only a handler that
// wrote nothing gets the 503 here.
func RequestTimeout(logger *zap.Logger, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if ww.Status() == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				httpx.RespondError(ww, logger, apperr.Unavailable(ctx.Err()))
			}
		})
	}
}
