package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/logging"
	authmw "github.com/Skotchmaster/shopcart/internal/middleware/auth"
	"github.com/Skotchmaster/shopcart/internal/middleware/csrf"
)

type Deps struct {
	Cart      *CartHTTP
	Orders    *OrderHTTP
	JWTSecret []byte
	// Refresher may be nil; expired tokens are then rejected.
	Refresher authmw.Refresher
	// Ready reports whether storage is reachable; nil means always ready.
	Ready func(ctx context.Context) error
	// CSRF adds double-submit checks to cookie-authenticated API writes.
	CSRF bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := d.Ready(c.Request().Context()); err != nil {
			logging.FromContext(c.Request().Context()).Warn("readiness_error", "status", http.StatusServiceUnavailable, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := authmw.NewAutoRefreshMiddleware(d.JWTSecret, d.Refresher)

	api := e.Group("/api")
	if d.CSRF {
		api.Use(csrf.Middleware())
	}

	cart := api.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddItem)
	cart.DELETE("", d.Cart.ClearCart)
	cart.PUT("/:lineId", d.Cart.UpdateLine)
	cart.DELETE("/:lineId", d.Cart.RemoveLine)

	orders := api.Group("/orders")
	orders.GET("", d.Orders.ListOrders, authMW.RequireAuth)
	orders.POST("", d.Orders.PlaceOrder, authMW.RequireAuth)
	orders.GET("/:id", d.Orders.GetOrder, authMW.RequireAuth)
	orders.PUT("/:id/pay", d.Orders.PayOrder, authMW.RequireAuth)
	orders.PUT("/:id/status", d.Orders.UpdateStatus, authMW.RequireAdmin)
	orders.PUT("/:id/deliver", d.Orders.MarkDelivered, authMW.RequireAdmin)
}
