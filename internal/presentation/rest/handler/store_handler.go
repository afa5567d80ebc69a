package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	storeapp "storefront-server/internal/application/store"
)

// StoreHandler ストア関連ハンドラー
type StoreHandler struct {
	storeService *storeapp.StoreApplicationService
}

// NewStoreHandler 新しいStoreHandlerを作成
func NewStoreHandler(storeService *storeapp.StoreApplicationService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
	}
}

// GetStorefront ストア初期化ペイロード取得ハンドラー（ユーザーAPI用）
func (h *StoreHandler) GetStorefront(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	resp, err := h.storeService.Storefront(c.Request().Context(), &storeapp.StorefrontRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetBalances 残高取得ハンドラー（ユーザーAPI用）
func (h *StoreHandler) GetBalances(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	resp, err := h.storeService.GetBalances(c.Request().Context(), &storeapp.GetBalancesRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetBalancesAdmin 残高取得ハンドラー（管理API用）
func (h *StoreHandler) GetBalancesAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	resp, err := h.storeService.GetBalances(c.Request().Context(), &storeapp.GetBalancesRequest{
		UserID: userID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// Buy 仮想通貨建て購入ハンドラー（ユーザーAPI用）
func (h *StoreHandler) Buy(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	var reqBody BuyRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.ItemID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}

	resp, err := h.storeService.BuyVirtualGood(c.Request().Context(), &storeapp.BuyVirtualGoodRequest{
		UserID:   userID,
		ItemID:   reqBody.ItemID,
		Metadata: reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, BuyResponse{
		PurchaseID:       resp.PurchaseID,
		ItemID:           resp.ItemID,
		BalanceAfter:     resp.BalanceAfter,
		Debits:           resp.Debits,
		CurrencyBalances: resp.CurrencyBalances,
		Status:           resp.Status,
	})
}

// Give アイテム付与ハンドラー（管理API用）
func (h *StoreHandler) Give(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody GiveRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.ItemID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}

	resp, err := h.storeService.GiveItem(c.Request().Context(), &storeapp.GiveItemRequest{
		UserID:   userID,
		ItemID:   reqBody.ItemID,
		Amount:   reqBody.Amount,
		Metadata: reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, GiveResponse{
		PurchaseID:   resp.PurchaseID,
		ItemID:       resp.ItemID,
		GivenAmount:  resp.GivenAmount,
		BalanceAfter: resp.BalanceAfter,
		Status:       resp.Status,
	})
}

// Take アイテム取り上げハンドラー（管理API用）
func (h *StoreHandler) Take(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var reqBody TakeRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.ItemID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id is required")
	}

	resp, err := h.storeService.TakeItem(c.Request().Context(), &storeapp.TakeItemRequest{
		UserID:   userID,
		ItemID:   reqBody.ItemID,
		Amount:   reqBody.Amount,
		Metadata: reqBody.Metadata,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TakeResponse{
		PurchaseID:   resp.PurchaseID,
		ItemID:       resp.ItemID,
		TakenAmount:  resp.TakenAmount,
		BalanceAfter: resp.BalanceAfter,
		Status:       resp.Status,
	})
}
