package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	marketapp "storefront-server/internal/application/market"
)

// MarketHandler プラットフォーム課金関連ハンドラー
type MarketHandler struct {
	marketService *marketapp.MarketApplicationService
}

// NewMarketHandler 新しいMarketHandlerを作成
func NewMarketHandler(marketService *marketapp.MarketApplicationService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// RequestOrder マーケット購入リクエスト発行ハンドラー（ユーザーAPI用）
func (h *MarketHandler) RequestOrder(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	var reqBody MarketOrderRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.ItemID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}

	resp, err := h.marketService.RequestPurchase(c.Request().Context(), &marketapp.RequestPurchaseRequest{
		UserID: userID,
		ItemID: reqBody.ItemID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MarketOrderResponse{
		OrderID:   resp.OrderID,
		ItemID:    resp.ItemID,
		ProductID: resp.ProductID,
		Status:    resp.Status,
	})
}

// CompleteOrder 課金コールバック受領ハンドラー
// プラットフォーム課金側からの通知を受け、アイテムを付与する
func (h *MarketHandler) CompleteOrder(c echo.Context) error {
	orderID := c.Param("order_id")
	if orderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id is required")
	}

	var reqBody MarketCompleteRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.marketService.CompletePurchase(c.Request().Context(), &marketapp.CompletePurchaseRequest{
		OrderID: orderID,
		Receipt: reqBody.Receipt,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MarketCompleteResponse{
		OrderID:        resp.OrderID,
		PurchaseID:     resp.PurchaseID,
		ItemID:         resp.ItemID,
		CurrencyItemID: resp.CurrencyItemID,
		GivenAmount:    resp.GivenAmount,
		BalanceAfter:   resp.BalanceAfter,
		Status:         resp.Status,
	})
}

// CancelOrder 課金キャンセル受領ハンドラー
func (h *MarketHandler) CancelOrder(c echo.Context) error {
	orderID := c.Param("order_id")
	if orderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id is required")
	}

	resp, err := h.marketService.CancelPurchase(c.Request().Context(), &marketapp.CancelPurchaseRequest{
		OrderID: orderID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MarketCancelResponse{
		OrderID: resp.OrderID,
		Status:  resp.Status,
	})
}

// RefundOrder 返金受領ハンドラー（管理API用）
func (h *MarketHandler) RefundOrder(c echo.Context) error {
	orderID := c.Param("order_id")
	if orderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id is required")
	}

	resp, err := h.marketService.RefundPurchase(c.Request().Context(), &marketapp.RefundPurchaseRequest{
		OrderID: orderID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MarketRefundResponse{
		OrderID:        resp.OrderID,
		CurrencyItemID: resp.CurrencyItemID,
		TakenAmount:    resp.TakenAmount,
		BalanceAfter:   resp.BalanceAfter,
		Status:         resp.Status,
	})
}
