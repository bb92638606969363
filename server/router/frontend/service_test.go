package frontend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/hrygo/staynest/internal/profile"
)

func newTestEcho(p *profile.Profile) *echo.Echo {
	e := echo.New()
	NewFrontendService(p).Serve(context.Background(), e)
	e.POST("/chat", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", func(c echo.Context) error { return c.String(http.StatusOK, "# metrics") })
	return e
}

func TestServe_Preflight(t *testing.T) {
	tests := []struct {
		name       string
		profile    *profile.Profile
		origin     string
		wantOrigin string
	}{
		{name: "any origin by default", profile: &profile.Profile{}, origin: "http://localhost:3000", wantOrigin: "*"},
		{name: "configured origin", profile: &profile.Profile{AllowedOrigins: []string{"https://staynest.app"}}, origin: "https://staynest.app", wantOrigin: "https://staynest.app"},
		{name: "foreign origin", profile: &profile.Profile{AllowedOrigins: []string{"https://staynest.app"}}, origin: "https://evil.example", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(tt.profile)
			req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantOrigin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		})
	}
}

func TestServe_Headers(t *testing.T) {
	e := newTestEcho(&profile.Profile{})

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))
}
