package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	historyapp "storefront-server/internal/application/history"
)

// HistoryHandler 購入履歴関連ハンドラー
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetPurchaseHistory 購入履歴取得ハンドラー（ユーザーAPI用）
func (h *HistoryHandler) GetPurchaseHistory(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	return h.getPurchaseHistoryInternal(c, userID)
}

// GetPurchaseHistoryAdmin 購入履歴取得ハンドラー（管理API用）
func (h *HistoryHandler) GetPurchaseHistoryAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	return h.getPurchaseHistoryInternal(c, userID)
}

// getPurchaseHistoryInternal 購入履歴取得の内部実装
func (h *HistoryHandler) getPurchaseHistoryInternal(c echo.Context, userID string) error {
	limit := 50 // デフォルト値
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	offset := 0 // デフォルト値
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
		}
	}

	kind := c.QueryParam("kind")

	req := &historyapp.GetPurchaseHistoryRequest{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
		Kind:   kind,
	}

	resp, err := h.historyService.GetPurchaseHistory(c.Request().Context(), req)
	if err != nil {
		return err
	}

	purchases := make([]PurchaseItem, len(resp.Purchases))
	for i, p := range resp.Purchases {
		pi := PurchaseItem{
			PurchaseID:    p.PurchaseID(),
			ItemID:        p.ItemID(),
			Kind:          p.Kind().String(),
			Quantity:      p.Quantity(),
			Debits:        p.Debits(),
			BalanceBefore: p.BalanceBefore(),
			BalanceAfter:  p.BalanceAfter(),
			Status:        p.Status().String(),
			CreatedAt:     p.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
		}
		if orderID := p.MarketOrderID(); orderID != nil {
			pi.MarketOrderID = *orderID
		}
		purchases[i] = pi
	}

	return c.JSON(http.StatusOK, PurchaseHistoryResponse{
		Purchases: purchases,
		Total:     resp.Total,
		Limit:     resp.Limit,
		Offset:    resp.Offset,
	})
}
