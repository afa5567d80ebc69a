package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	historyapp "storefront-server/internal/application/history"
	marketapp "storefront-server/internal/application/market"
	storeapp "storefront-server/internal/application/store"
	"storefront-server/internal/domain/balance"
	"storefront-server/internal/domain/service"
	catalogloader "storefront-server/internal/infrastructure/catalog"
	"storefront-server/internal/infrastructure/config"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
	"storefront-server/internal/infrastructure/persistence/mysql"
	"storefront-server/internal/infrastructure/persistence/redis"
	"storefront-server/internal/presentation/rest"
	"storefront-server/internal/presentation/ws"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("storefront-server")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("storefront-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// アイテムカタログの読み込み
	catalog, err := catalogloader.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load item catalog: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// リポジトリの初期化
	var balanceRepo balance.BalanceRepository = mysql.NewBalanceRepository(db)
	purchaseRepo := mysql.NewPurchaseRepository(db)
	orderRepo := mysql.NewMarketOrderRepository(db)

	// Redisによる残高キャッシュ（有効な場合のみ）
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		balanceRepo = redis.NewCachedBalanceRepository(balanceRepo, redisClient, cfg.Redis.TTL)
		log.Printf("Balance cache enabled (redis: %s)", cfg.Redis.Address())
	}

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// ドメインサービスの初期化
	pricingService := service.NewPricingService(balanceRepo)

	// アプリケーションサービスの初期化
	storeAppService := storeapp.NewStoreApplicationService(
		catalog,
		balanceRepo,
		purchaseRepo,
		txManager,
		pricingService,
		logger,
		metrics,
	)

	marketAppService := marketapp.NewMarketApplicationService(
		catalog,
		balanceRepo,
		purchaseRepo,
		orderRepo,
		txManager,
		logger,
		metrics,
	)

	historyAppService := historyapp.NewHistoryApplicationService(
		purchaseRepo,
		logger,
		metrics,
	)

	// ストアWebViewブリッジの初期化
	wsHandler := ws.NewHandler(
		catalog,
		storeAppService,
		marketAppService,
		logger,
		metrics,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(
		cfg,
		logger,
		metrics,
		storeAppService,
		marketAppService,
		historyAppService,
		wsHandler,
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		log.Printf("Storefront server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("Storefront server error: %v", err)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down server...")

	// グレースフルシャットダウン
	if err := router.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	log.Println("Server stopped")
}
