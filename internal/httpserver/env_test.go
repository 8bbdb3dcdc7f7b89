package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/catalog"
	"github.com/Skotchmaster/shopcart/internal/db"
	"github.com/Skotchmaster/shopcart/internal/logging"
	loggingmw "github.com/Skotchmaster/shopcart/internal/middleware/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
	"github.com/Skotchmaster/shopcart/internal/service"
	"github.com/Skotchmaster/shopcart/internal/tokens"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	E       *echo.Echo
	Catalog *catalog.GormCatalog
	Store   *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	cat := &catalog.GormCatalog{DB: gdb}
	require.NoError(t, cat.Migrate())
	store := &repo.GormRepo{DB: gdb}
	require.NoError(t, store.Migrate())

	carts := &service.CartService{Repo: store, Catalog: cat}
	orders := &service.OrderService{Repo: store, Carts: carts, Stock: cat}

	e := echo.New()
	e.Use(loggingmw.RequestLogger(logging.NewWithWriter(io.Discard, "debug")))
	Register(e, &Deps{
		Cart:      &CartHTTP{Svc: carts},
		Orders:    &OrderHTTP{Svc: orders},
		JWTSecret: testSecret,
	})
	return &testEnv{E: e, Catalog: cat, Store: store}
}

func (env *testEnv) putItem(t *testing.T, itemType models.ItemType, id string, price float64, inStock bool, qty *int) {
	t.Helper()
	require.NoError(t, env.Catalog.Put(context.Background(), itemType, catalog.ItemRecord{
		ID: id, Name: "item " + id, Price: price, InStock: &inStock, Quantity: qty,
	}))
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(userID, role, time.Hour, testSecret)
	require.NoError(t, err)
	return tok
}

func (env *testEnv) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func ptr[T any](v T) *T { return &v }
