package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"

	"storefront-server/internal/domain/balance"
	"storefront-server/internal/domain/item"
	"storefront-server/internal/domain/market_order"
	"storefront-server/internal/domain/purchase"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	CurrencyItemID string `json:"currency_item_id,omitempty"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// ドメインエラーの判定と処理
	if errors.Is(err, balance.ErrInsufficientBalance) {
		logger.Warn(ctx, "Insufficient balance", map[string]interface{}{
			"error": err.Error(),
		})
		resp := ErrorResponse{
			Error:   "insufficient_balance",
			Message: err.Error(),
		}
		// 不足した通貨を特定できる場合はレスポンスに含める
		var fundsErr *balance.InsufficientFundsError
		if errors.As(err, &fundsErr) {
			resp.CurrencyItemID = fundsErr.CurrencyItemID
		}
		return c.JSON(http.StatusConflict, resp)
	}

	if errors.Is(err, balance.ErrInvalidAmount) {
		logger.Warn(ctx, "Invalid amount", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_amount",
			Message: err.Error(),
		})
	}

	if errors.Is(err, balance.ErrBalanceNotFound) {
		logger.Warn(ctx, "Balance not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "balance_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, item.ErrItemNotFound) || errors.Is(err, item.ErrProductNotFound) {
		logger.Warn(ctx, "Item not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "item_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, item.ErrNotPurchasable) {
		logger.Warn(ctx, "Item not purchasable", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "item_not_purchasable",
			Message: err.Error(),
		})
	}

	if errors.Is(err, purchase.ErrInvalidPurchaseKind) {
		logger.Warn(ctx, "Invalid purchase kind", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_purchase_kind",
			Message: err.Error(),
		})
	}

	if errors.Is(err, purchase.ErrPurchaseNotFound) {
		logger.Warn(ctx, "Purchase not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "purchase_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, market_order.ErrOrderNotFound) {
		logger.Warn(ctx, "Market order not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "market_order_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, market_order.ErrOrderAlreadyProcessed) {
		logger.Warn(ctx, "Market order already processed", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "market_order_already_processed",
			Message: err.Error(),
		})
	}

	if errors.Is(err, market_order.ErrOrderNotRefundable) {
		logger.Warn(ctx, "Market order not refundable", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "market_order_not_refundable",
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
