package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		preflight  bool
		wantCode   int
		wantOrigin string
		wantVary   bool
	}{
		{name: "no origin header", origins: []string{"*"}, method: http.MethodGet, wantCode: http.StatusOK},
		{
			name: "allow all", origins: []string{"*"}, method: http.MethodGet, origin: "https://a.example",
			wantCode: http.StatusOK, wantOrigin: "*",
		},
		{
			name: "listed origin", origins: []string{"https://a.example", " https://b.example "}, method: http.MethodGet,
			origin: "https://b.example", wantCode: http.StatusOK, wantOrigin: "https://b.example", wantVary: true,
		},
		{
			name: "unlisted origin passes without headers", origins: []string{"https://a.example"}, method: http.MethodGet,
			origin: "https://evil.example", wantCode: http.StatusOK,
		},
		{
			name: "preflight", origins: []string{"*"}, method: http.MethodOptions, origin: "https://a.example",
			preflight: true, wantCode: http.StatusNoContent, wantOrigin: "*",
		},
		{
			name: "preflight from unlisted origin", origins: []string{"https://a.example"}, method: http.MethodOptions,
			origin: "https://evil.example", preflight: true, wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/events", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rec := httptest.NewRecorder()

			CORS(tt.origins)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVary, rec.Header().Get("Vary") == "Origin")
			if tt.preflight && tt.wantCode == http.StatusNoContent {
				assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

func TestCORS_PreflightThroughServer(t *testing.T) {
	h := newTestHandler(&stubService{}, allowAll())

	req := httptest.NewRequest(http.MethodOptions, "/api/events/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
