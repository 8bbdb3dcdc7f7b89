package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/service"
	"github.com/Skotchmaster/shopcart/internal/transport"
)

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrCartNotFound, http.StatusNotFound, "cart_not_found"},
	{service.ErrLineNotFound, http.StatusNotFound, "line_not_found"},
	{service.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{service.ErrNoLongerInCatalog, http.StatusNotFound, "no_longer_in_catalog"},
	{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{service.ErrOutOfStock, http.StatusUnprocessableEntity, "out_of_stock"},
	{service.ErrInsufficientStock, http.StatusUnprocessableEntity, "insufficient_stock"},
	{service.ErrInvalidLine, http.StatusUnprocessableEntity, "invalid_line"},
	{service.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrRejected, http.StatusUnprocessableEntity, "rejected"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrTransient, http.StatusServiceUnavailable, "transient"},
}

func classify(err error) (int, string) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.status, ec.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a service error to its response. cart is the saved cart
// when the operation removed a line before failing, nil otherwise.
func writeError(c echo.Context, l *slog.Logger, event string, err error, cart *models.Cart) error {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "code", code, "error", err)
		msg = "service temporarily unavailable"
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	} else {
		l.Warn(event, "status", status, "code", code, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Msg: msg, Code: code, Cart: cart})
}

func badRequest(c echo.Context, l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "error", err)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Msg: msg, Code: "invalid_argument"})
}
