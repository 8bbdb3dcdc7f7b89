package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/authclient"
	"github.com/Skotchmaster/shopcart/internal/tokens"
)

var secret = []byte("mw-secret")

type fakeRefresher struct {
	resp  *authclient.Session
	err   error
	calls int
}

func (f *fakeRefresher) RefreshTokens(context.Context, string, string) (*authclient.Session, error) {
	f.calls++
	return f.resp, f.err
}

func sign(t *testing.T, user, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(user, role, ttl, secret)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, string, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := mw(func(c echo.Context) error {
		seen, _ = UserID(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, seen, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth_CookieOK(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: sign(t, "u1", "user", time.Minute)})

	_, seen, err := run(t, m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, "u1", seen)
}

func TestRequireAuth_BearerOK(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, "u2", "user", time.Minute))

	_, seen, err := run(t, m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, "u2", seen)
}

func TestRequireAuth_Missing(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	_, _, err := run(t, m.RequireAuth, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAuth_ExpiredRefreshes(t *testing.T) {
	ref := &fakeRefresher{resp: &authclient.Session{
		AccessToken:  sign(t, "u3", "user", time.Minute),
		RefreshToken: "new-rt",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}}
	m := NewAutoRefreshMiddleware(secret, ref)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: sign(t, "u3", "user", -time.Minute)})
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "rt"})

	rec, seen, err := run(t, m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, "u3", seen)
	assert.Equal(t, 1, ref.calls)
	assert.Len(t, rec.Result().Cookies(), 2)
}

func TestRequireAuth_RefreshUsesVerifiedClaims(t *testing.T) {
	ref := &fakeRefresher{resp: &authclient.Session{
		AccessToken:  "verified-elsewhere",
		RefreshToken: "new-rt",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
		Claims:       &tokens.AccessClaims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{Subject: "u7"}},
	}}
	m := NewAutoRefreshMiddleware(secret, ref)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: sign(t, "u7", "user", -time.Minute)})
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "rt"})

	rec, seen, err := run(t, m.RequireAuth, req)
	require.NoError(t, err)
	assert.Equal(t, "u7", seen)
	cookies := map[string]string{}
	for _, ck := range rec.Result().Cookies() {
		cookies[ck.Name] = ck.Value
	}
	assert.Equal(t, "verified-elsewhere", cookies[tokens.AccessCookie])
	assert.Equal(t, "new-rt", cookies[tokens.RefreshCookie])
}

func TestRequireAuth_RejectedRefreshClearsCookies(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &fakeRefresher{err: authclient.ErrRejected})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: sign(t, "u3", "user", -time.Minute)})
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "rt"})

	rec, _, err := run(t, m.RequireAuth, req)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	require.Len(t, rec.Result().Cookies(), 2)
	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	}
}

func TestRequireAuth_ExpiredWithoutRefresher(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: sign(t, "u3", "user", -time.Minute)})

	_, _, err := run(t, m.RequireAuth, req)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAuth_RefreshFails(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &fakeRefresher{err: errors.New("boom")})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: sign(t, "u3", "user", -time.Minute)})
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "rt"})

	_, _, err := run(t, m.RequireAuth, req)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAdmin(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, "u4", "user", time.Minute))
	_, _, err := run(t, m.RequireAdmin, req)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, "boss", tokens.RoleAdmin, time.Minute))
	_, seen, err := run(t, m.RequireAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, "boss", seen)
}
