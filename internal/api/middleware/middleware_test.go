package middleware_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/api/middleware"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(middleware.ParseOrigins("https://clinic.example, https://admin.example"))(okHandler("{}"))

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/d1", nil)
	req.Header.Set("Origin", "https://clinic.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Session-ID")

	req = httptest.NewRequest(http.MethodGet, "/api/doctors/d1", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/landing-pages/d1/nose", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, middleware.ParseOrigins(""))
	assert.Equal(t, []string{"a", "b"}, middleware.ParseOrigins(" a ,b,"))
}

func TestCompression(t *testing.T) {
	h := middleware.Compression(okHandler(`{"status":"ready"}`))

	req := httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/nose", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ready"}`, string(body))

	req = httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/nose/events", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"), "event streams are not compressed")
}

func TestCacheControl(t *testing.T) {
	h := middleware.CacheControl(okHandler("{}"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/doctors/d1", nil))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "public")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/landing-pages/d1/nose", nil))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "private")
}

func TestLoggingAndObservabilityKeepStatus(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux := http.NewServeMux()
	mux.Handle("GET /brew", inner)
	h := middleware.ObservabilityMiddleware(nil)(middleware.LoggingMiddleware(mux))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
