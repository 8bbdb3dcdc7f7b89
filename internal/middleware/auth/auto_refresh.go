package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/authclient"
	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.Session, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret []byte
	// Refresher is optional; without it an expired access token is rejected.
	Refresher Refresher
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{JWTSecret: secret, Refresher: refresher}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func accessToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err == nil {
			if validator != nil {
				if vErr := validator(claims); vErr != nil {
					return vErr
				}
			}
			setUserContext(c, claims)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) || !fromCookie || m.Refresher == nil {
			if fromCookie {
				clearAuthCookies(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		session, refErr := m.Refresher.RefreshTokens(c.Request().Context(), refreshCookie.Value, raw)
		if refErr != nil {
			if !errors.Is(refErr, authclient.ErrRejected) {
				logging.FromContext(c.Request().Context()).Warn("token_refresh_error", "error", refErr)
			}
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}

		newClaims := session.Claims
		if newClaims == nil {
			var pErr error
			if newClaims, pErr = tokens.AccessClaimsFromToken(session.AccessToken, m.JWTSecret); pErr != nil {
				clearAuthCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
			}
		}

		c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, session.AccessToken, "/", time.Unix(session.AccessExp, 0)))
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, session.RefreshToken, "/", time.Unix(session.RefreshExp, 0)))
		if validator != nil {
			if vErr := validator(newClaims); vErr != nil {
				return vErr
			}
		}

		setUserContext(c, newClaims)
		return next(c)
	}
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}

func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxUserID).(string)
	return id, ok && id != ""
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(CtxRole).(string)
	return role == tokens.RoleAdmin
}
