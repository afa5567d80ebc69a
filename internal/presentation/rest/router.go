package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	historyapp "storefront-server/internal/application/history"
	marketapp "storefront-server/internal/application/market"
	storeapp "storefront-server/internal/application/store"
	"storefront-server/internal/infrastructure/config"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
	"storefront-server/internal/presentation/rest/handler"
	restmiddleware "storefront-server/internal/presentation/rest/middleware"
	"storefront-server/internal/presentation/ws"
)

// Router REST APIルーター
type Router struct {
	echo           *echo.Echo
	storeHandler   *handler.StoreHandler
	marketHandler  *handler.MarketHandler
	historyHandler *handler.HistoryHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	storeService *storeapp.StoreApplicationService,
	marketService *marketapp.MarketApplicationService,
	historyService *historyapp.HistoryApplicationService,
	wsHandler *ws.Handler,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	// ハンドラーの作成
	storeHandler := handler.NewStoreHandler(storeService)
	marketHandler := handler.NewMarketHandler(marketService)
	historyHandler := handler.NewHistoryHandler(historyService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, storeHandler, marketHandler, historyHandler, wsHandler)

	return &Router{
		echo:           e,
		storeHandler:   storeHandler,
		marketHandler:  marketHandler,
		historyHandler: historyHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	storeHandler *handler.StoreHandler,
	marketHandler *handler.MarketHandler,
	historyHandler *handler.HistoryHandler,
	wsHandler *ws.Handler,
) {
	// API v1グループ
	api := e.Group("/api/v1")

	// ユーザーAPI（JWT認証）
	me := api.Group("/me", restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	me.GET("/storefront", storeHandler.GetStorefront)
	me.GET("/balances", storeHandler.GetBalances)
	me.POST("/buy", storeHandler.Buy)
	me.POST("/market/orders", marketHandler.RequestOrder)
	me.GET("/purchases", historyHandler.GetPurchaseHistory)

	// 課金コールバックAPI（APIキー認証）
	market := api.Group("/market", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	market.POST("/orders/:order_id/complete", marketHandler.CompleteOrder)
	market.POST("/orders/:order_id/cancel", marketHandler.CancelOrder)

	// 管理API（APIキー認証）
	admin := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	admin.GET("/users/:user_id/balances", storeHandler.GetBalancesAdmin)
	admin.POST("/users/:user_id/give", storeHandler.Give)
	admin.POST("/users/:user_id/take", storeHandler.Take)
	admin.GET("/users/:user_id/purchases", historyHandler.GetPurchaseHistoryAdmin)
	admin.POST("/market/orders/:order_id/refund", marketHandler.RefundOrder)

	// ストアWebViewブリッジ（JWT認証）
	if wsHandler != nil {
		e.GET("/ws/store", wsHandler.Serve, restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	}

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
