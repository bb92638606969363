package frontend

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/staynest/internal/profile"
)

// FrontendService prepares the echo instance for browser clients such as the chat widget
// embedded in listing pages.
type FrontendService struct {
	Profile *profile.Profile
}

func NewFrontendService(profile *profile.Profile) *FrontendService {
	return &FrontendService{
		Profile: profile,
	}
}

func (s *FrontendService) Serve(_ context.Context, e *echo.Echo) {
	// Skip metrics scraping, it is never called from a browser.
	skipper := func(c echo.Context) bool {
		return strings.HasPrefix(c.Path(), "/metrics")
	}

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !skipper(c) {
				// Security: Prevent MIME type sniffing
				c.Response().Header().Set("X-Content-Type-Options", "nosniff")
				// Responses depend on live model output.
				c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			}
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      skipper,
		AllowOrigins: s.allowedOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))
}

// allowedOrigins returns the configured origins, or every origin when none is set.
func (s *FrontendService) allowedOrigins() []string {
	if s.Profile == nil || len(s.Profile.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.Profile.AllowedOrigins
}
