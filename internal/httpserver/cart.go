package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/logging"
	authmw "github.com/Skotchmaster/shopcart/internal/middleware/auth"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/service"
	"github.com/Skotchmaster/shopcart/internal/transport"
)

var errUnauthorized = errors.New("unauthorized")

type CartHTTP struct {
	Svc *service.CartService
}

func currentUser(c echo.Context) (string, error) {
	id, ok := authmw.UserID(c)
	if !ok {
		return "", errUnauthorized
	}
	return id, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, transport.ErrorResponse{Msg: "unauthorized", Code: "unauthorized"})
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("get_cart_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	cart, err := h.Svc.GetOrCreateCart(ctx, userID)
	if err != nil {
		return writeError(c, l, "get_cart_error", err, nil)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart.item")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("add_item_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_item_error", "invalid body", err)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.Svc.AddItem(ctx, userID, req.ItemID, models.ItemType(req.ItemType), quantity)
	if err != nil {
		return writeError(c, l.With("item_id", req.ItemID), "add_item_error", err, nil)
	}

	l.Info("item added to cart", "item_id", req.ItemID, "quantity", quantity)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) UpdateLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart.line")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("update_line_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}
	lineID := c.Param("lineId")

	var opts service.UpdateOptions
	if raw := c.QueryParam("skipValidation"); raw != "" {
		skip, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, l, "update_line_error", "skipValidation must be a boolean", err)
		}
		opts.SkipValidation = skip
	}

	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_line_error", "invalid body", err)
	}
	if req.Quantity == nil {
		return badRequest(c, l, "update_line_error", "quantity is required", errors.New("missing quantity"))
	}

	cart, err := h.Svc.UpdateLineQuantity(ctx, userID, lineID, *req.Quantity, opts)
	if err != nil {
		return writeError(c, l.With("line_id", lineID), "update_line_error", err, cart)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart.line")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("remove_line_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}
	lineID := c.Param("lineId")

	cart, err := h.Svc.RemoveLine(ctx, userID, lineID)
	if err != nil {
		return writeError(c, l.With("line_id", lineID), "remove_line_error", err, nil)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", http.StatusUnauthorized, "error", err)
		return unauthorized(c)
	}

	if _, err := h.Svc.ClearCart(ctx, userID); err != nil {
		return writeError(c, l, "clear_cart_error", err, nil)
	}

	l.Info("cart cleared")
	return c.JSON(http.StatusOK, transport.MessageResponse{Msg: "Cart cleared"})
}
