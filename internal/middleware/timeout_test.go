package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
)

// headerCounter records every WriteHeader call that reaches the real writer.
type headerCounter struct {
	*httptest.ResponseRecorder
	calls []int
}

func (h *headerCounter) WriteHeader(code int) {
	h.calls = append(h.calls, code)
	h.ResponseRecorder.WriteHeader(code)
}

func TestRequestTimeout_KeepsHandlerResponse(t *testing.T) {
	h := RequestTimeout(nil, 10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		httpx.RespondError(w, nil, apperr.Unavailable(r.Context().Err()))
	}))

	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []int{http.StatusServiceUnavailable}, rec.calls)
	require.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestRequestTimeout_SilentHandlerGets503(t *testing.T) {
	h := RequestTimeout(nil, 10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []int{http.StatusServiceUnavailable}, rec.calls)
	require.Contains(t, rec.Body.String(), apperr.CodeUnavailable)
}

func TestRequestTimeout_FastHandlerUntouched(t *testing.T) {
	h := RequestTimeout(nil, time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		require.True(t, ok)
		_, _ = w.Write([]byte("ok"))
	}))

	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []int{http.StatusOK}, rec.calls)
	require.Equal(t, "ok", rec.Body.String())
}
