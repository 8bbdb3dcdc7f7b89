package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/service"
	"github.com/Skotchmaster/shopcart/internal/transport"
	"github.com/Skotchmaster/shopcart/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "place.order")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("place_order_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "place_order_error", "invalid body", err)
	}

	order, err := h.Svc.PlaceOrder(ctx, userID, service.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		return writeError(c, l, "place_order_error", err, nil)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("list_orders_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	page, size, err := pageParams(c)
	if err != nil {
		return badRequest(c, l, "list_orders_error", "page and size must be integers", err)
	}

	var offset, limit int
	if page > 0 {
		offset, limit = util.Calculate(page, size)
	}

	orders, err := h.Svc.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return writeError(c, l, "list_orders_error", err, nil)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("get_order_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	order, err := h.Svc.GetOrder(ctx, userID, c.Param("id"))
	if err != nil {
		return writeError(c, l.With("order_id", c.Param("id")), "get_order_error", err, nil)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) PayOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pay.order")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("pay_order_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	var req transport.PayRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "pay_order_error", "invalid body", err)
	}

	order, err := h.Svc.MarkPaid(ctx, userID, c.Param("id"), &models.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.Payer.EmailAddress,
	})
	if err != nil {
		return writeError(c, l.With("order_id", c.Param("id")), "pay_order_error", err, nil)
	}

	l.Info("order paid", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.order.status")

	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_status_error", "invalid body", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		return writeError(c, l.With("order_id", c.Param("id")), "update_status_error", err, nil)
	}

	l.Info("order status updated", "order_id", order.ID, "order_status", order.Status)
	return c.JSON(http.StatusOK, order)
}

// MarkDelivered is the body-less admin shortcut for moving an order to Delivered.
func (h *OrderHTTP) MarkDelivered(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "deliver.order")

	order, err := h.Svc.UpdateStatus(ctx, c.Param("id"), models.OrderStatusDelivered)
	if err != nil {
		return writeError(c, l.With("order_id", c.Param("id")), "deliver_order_error", err, nil)
	}

	l.Info("order delivered", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

// pageParams reads ?page=&size=; page 0 means the caller wants everything.
func pageParams(c echo.Context) (page, size int, err error) {
	if raw := c.QueryParam("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return 0, 0, err
		}
		if page < 1 {
			page = 1
		}
	}
	if raw := c.QueryParam("size"); raw != "" {
		if size, err = strconv.Atoi(raw); err != nil {
			return 0, 0, err
		}
		if page == 0 {
			page = 1
		}
	}
	return page, size, nil
}
