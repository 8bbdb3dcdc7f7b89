package csrf

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	CookieName = "XSRF-TOKEN"
	HeaderName = "X-CSRF-Token"
)

// Middleware enforces a double-submit token on unsafe methods: the X-CSRF-Token
// header must match the XSRF-TOKEN cookie. Requests authenticated with a bearer
// token are exempt.
func Middleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        bearerRequest,
		TokenLookup:    "header:" + HeaderName,
		CookieName:     CookieName,
		CookiePath:     "/",
		CookieMaxAge:   86400,
		CookieSameSite: http.SameSiteLaxMode,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
		},
	})
}

func bearerRequest(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
}
