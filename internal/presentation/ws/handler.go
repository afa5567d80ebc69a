package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	marketapp "storefront-server/internal/application/market"
	storeapp "storefront-server/internal/application/store"
	"storefront-server/internal/domain/balance"
	"storefront-server/internal/domain/item"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

// Handler ストアWebViewブリッジハンドラー
// WebViewからの操作要求を受け、残高変化のイベントを返す
type Handler struct {
	catalog       *item.Catalog
	storeService  *storeapp.StoreApplicationService
	marketService *marketapp.MarketApplicationService
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
	upgrader      websocket.Upgrader
}

// NewHandler 新しいHandlerを作成
func NewHandler(
	catalog *item.Catalog,
	storeService *storeapp.StoreApplicationService,
	marketService *marketapp.MarketApplicationService,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Handler {
	return &Handler{
		catalog:       catalog,
		storeService:  storeService,
		marketService: marketService,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("store-bridge"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// WebViewはアプリ内から接続するためオリジン検証は認証側に委ねる
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve WebSocket接続を受け付ける
func (h *Handler) Serve(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn(c.Request().Context(), "Failed to upgrade connection", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return err
	}

	ctx := c.Request().Context()
	session := NewSession(userID, conn, h.logger)

	h.logger.Info(ctx, "Store bridge session opened", map[string]interface{}{
		"user_id": userID,
	})

	go session.writePump(ctx)
	session.readPump(ctx, h.handleMessage)

	h.logger.Info(ctx, "Store bridge session closed", map[string]interface{}{
		"user_id": userID,
	})

	return nil
}

// handleMessage 受信メッセージをディスパッチする
func (h *Handler) handleMessage(ctx context.Context, s *Session, msg *Message) {
	ctx, span := h.tracer.Start(ctx, "StoreBridge.handleMessage")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", s.UserID()),
		attribute.String("message_type", msg.Type),
	)

	switch msg.Type {
	case MessageTypeUIReady:
		h.handleUIReady(ctx, s)
	case MessageTypeBuyVirtualGood:
		h.handleBuy(ctx, s, msg)
	case MessageTypeBuyCurrencyPack:
		h.handleBuyCurrencyPack(ctx, s, msg)
	case MessageTypeLeaveStore:
		s.Close()
	default:
		h.logger.Warn(ctx, "Unknown message type", map[string]interface{}{
			"user_id": s.UserID(),
			"type":    msg.Type,
		})
		h.sendUnexpectedError(ctx, s)
	}
}

// handleUIReady ストア初期化ペイロードを送る
func (h *Handler) handleUIReady(ctx context.Context, s *Session) {
	resp, err := h.storeService.Storefront(ctx, &storeapp.StorefrontRequest{
		UserID: s.UserID(),
	})
	if err != nil {
		h.logger.Error(ctx, "Failed to build storefront", err, map[string]interface{}{
			"user_id": s.UserID(),
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	h.sendMessage(ctx, s, MessageTypeInitialize, resp)
}

// handleBuy 仮想通貨建て購入を処理する
func (h *Handler) handleBuy(ctx context.Context, s *Session, msg *Message) {
	var payload BuyPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ItemID == "" {
		h.logger.Warn(ctx, "Invalid buy payload", map[string]interface{}{
			"user_id": s.UserID(),
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	h.executeVirtualBuy(ctx, s, payload.ItemID)
}

// handleBuyCurrencyPack 通貨パック購入を処理する
// マーケット購入のパックは課金フローを開始し、仮想通貨建てのパックは即時購入する
func (h *Handler) handleBuyCurrencyPack(ctx context.Context, s *Session, msg *Message) {
	var payload BuyPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ItemID == "" {
		h.logger.Warn(ctx, "Invalid buy payload", map[string]interface{}{
			"user_id": s.UserID(),
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	pack, err := h.catalog.PackByItemID(payload.ItemID)
	if err != nil {
		h.logger.Warn(ctx, "Unknown currency pack", map[string]interface{}{
			"user_id": s.UserID(),
			"item_id": payload.ItemID,
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	if !pack.PurchaseType().IsMarket() {
		h.executeVirtualBuy(ctx, s, payload.ItemID)
		return
	}

	resp, err := h.marketService.RequestPurchase(ctx, &marketapp.RequestPurchaseRequest{
		UserID: s.UserID(),
		ItemID: payload.ItemID,
	})
	if err != nil {
		h.logger.Error(ctx, "Failed to request market purchase", err, map[string]interface{}{
			"user_id": s.UserID(),
			"item_id": payload.ItemID,
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	h.sendMessage(ctx, s, MessageTypeMarketPurchaseStarted, MarketPurchaseStartedPayload{
		OrderID:   resp.OrderID,
		ItemID:    resp.ItemID,
		ProductID: resp.ProductID,
	})
}

// executeVirtualBuy 仮想通貨建て購入を実行し、結果イベントを送る
func (h *Handler) executeVirtualBuy(ctx context.Context, s *Session, itemID string) {
	_, err := h.storeService.BuyVirtualGood(ctx, &storeapp.BuyVirtualGoodRequest{
		UserID: s.UserID(),
		ItemID: itemID,
	})
	if err != nil {
		var fundsErr *balance.InsufficientFundsError
		if errors.As(err, &fundsErr) {
			h.sendMessage(ctx, s, MessageTypeInsufficientFunds, InsufficientFundsPayload{
				CurrencyItemID: fundsErr.CurrencyItemID,
			})
			return
		}
		if errors.Is(err, item.ErrItemNotFound) || errors.Is(err, item.ErrNotPurchasable) {
			// カタログとWebView側の定義がずれている
			h.logger.Warn(ctx, "Buy request for unavailable item", map[string]interface{}{
				"user_id": s.UserID(),
				"item_id": itemID,
			})
			h.sendUnexpectedError(ctx, s)
			return
		}
		h.logger.Error(ctx, "Failed to buy item", err, map[string]interface{}{
			"user_id": s.UserID(),
			"item_id": itemID,
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	h.pushBalances(ctx, s)
}

// pushBalances 最新の残高をWebViewへ通知する
func (h *Handler) pushBalances(ctx context.Context, s *Session) {
	resp, err := h.storeService.GetBalances(ctx, &storeapp.GetBalancesRequest{
		UserID: s.UserID(),
	})
	if err != nil {
		h.logger.Error(ctx, "Failed to get balances", err, map[string]interface{}{
			"user_id": s.UserID(),
		})
		h.sendUnexpectedError(ctx, s)
		return
	}

	h.sendMessage(ctx, s, MessageTypeCurrencyBalanceChanged, resp.Currencies)
	h.sendMessage(ctx, s, MessageTypeGoodsUpdated, resp.Goods)
}

// sendMessage メッセージを組み立ててセッションに送る
func (h *Handler) sendMessage(ctx context.Context, s *Session, msgType string, data interface{}) {
	msg, err := newMessage(msgType, data)
	if err != nil {
		h.logger.Error(ctx, "Failed to build message", err, map[string]interface{}{
			"user_id": s.UserID(),
			"type":    msgType,
		})
		return
	}
	if !s.Send(msg) {
		h.logger.Warn(ctx, "Failed to enqueue message", map[string]interface{}{
			"user_id": s.UserID(),
			"type":    msgType,
		})
	}
}

// sendUnexpectedError 想定外エラーをWebViewへ通知する
func (h *Handler) sendUnexpectedError(ctx context.Context, s *Session) {
	h.metrics.RecordError(ctx, "store_bridge_unexpected_error")
	h.sendMessage(ctx, s, MessageTypeUnexpectedError, map[string]interface{}{})
}
