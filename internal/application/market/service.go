package market

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-server/internal/domain/balance"
	"storefront-server/internal/domain/item"
	"storefront-server/internal/domain/market_order"
	"storefront-server/internal/domain/purchase"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

// MarketApplicationService プラットフォーム課金アプリケーションサービス
// 課金リクエストの発行と課金コールバックの受領を提供する
// コールバックの二重送信に備え、完了処理は注文単位で冪等に動作する
type MarketApplicationService struct {
	catalog      *item.Catalog
	balanceRepo  balance.BalanceRepository
	purchaseRepo purchase.PurchaseRepository
	orderRepo    market_order.MarketOrderRepository
	txManager    purchase.TransactionManager
	logger       *otelinfra.Logger
	metrics      *otelinfra.Metrics
	tracer       trace.Tracer
	maxRetries   int
}

// NewMarketApplicationService 新しいMarketApplicationServiceを作成
func NewMarketApplicationService(
	catalog *item.Catalog,
	balanceRepo balance.BalanceRepository,
	purchaseRepo purchase.PurchaseRepository,
	orderRepo market_order.MarketOrderRepository,
	txManager purchase.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *MarketApplicationService {
	return &MarketApplicationService{
		catalog:      catalog,
		balanceRepo:  balanceRepo,
		purchaseRepo: purchaseRepo,
		orderRepo:    orderRepo,
		txManager:    txManager,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("market-service"),
		maxRetries:   3,
	}
}

// RequestPurchase マーケット購入リクエストを発行
// マーケット購入のパックのみが対象で、注文はpendingで作成される
func (s *MarketApplicationService) RequestPurchase(ctx context.Context, req *RequestPurchaseRequest) (*RequestPurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "MarketApplicationService.RequestPurchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
	)

	s.logger.Info(ctx, "Requesting market purchase", map[string]interface{}{
		"user_id": req.UserID,
		"item_id": req.ItemID,
	})

	pack, err := s.catalog.PackByItemID(req.ItemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if !pack.PurchaseType().IsMarket() {
		err := item.ErrNotPurchasable
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Info(ctx, "Pack is not market-purchasable", map[string]interface{}{
			"item_id": req.ItemID,
		})
		return nil, err
	}

	orderID := s.generateOrderID()

	order, err := market_order.NewMarketOrder(orderID, req.UserID, pack.ItemID(), pack.PurchaseType().ProductID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to create market order", err, map[string]interface{}{
			"user_id":  req.UserID,
			"order_id": orderID,
		})
		s.metrics.RecordError(ctx, "request_purchase_failed")
		return nil, fmt.Errorf("failed to create market order: %w", err)
	}

	s.logger.Info(ctx, "Market purchase requested", map[string]interface{}{
		"user_id":    req.UserID,
		"order_id":   orderID,
		"product_id": pack.PurchaseType().ProductID(),
	})

	return &RequestPurchaseResponse{
		OrderID:   orderID,
		ItemID:    pack.ItemID(),
		ProductID: pack.PurchaseType().ProductID(),
		Status:    order.Status().String(),
	}, nil
}

// CompletePurchase 課金コールバックを受領して注文を完了させる
// 完了済みの注文に対しては記録済みの結果を返す（冪等）
func (s *MarketApplicationService) CompletePurchase(ctx context.Context, req *CompletePurchaseRequest) (*CompletePurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "MarketApplicationService.CompletePurchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
	)

	s.logger.Info(ctx, "Completing market purchase", map[string]interface{}{
		"order_id": req.OrderID,
	})

	order, err := s.orderRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if order.IsCompleted() {
		// コールバックの再送。記録済みの結果をそのまま返す
		return s.recordedResult(ctx, order)
	}

	pack, err := s.catalog.PackByItemID(order.ItemID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Order references unknown pack", err, map[string]interface{}{
			"order_id": req.OrderID,
			"item_id":  order.ItemID(),
		})
		return nil, err
	}

	purchaseID := s.generatePurchaseID()

	var result *CompletePurchaseResponse
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		// 先にステータス遷移を検証する。pending以外はここで弾かれる
		if err := order.Complete(req.Receipt); err != nil {
			return err
		}

		balanceBefore, balanceAfter, err := s.grantBalance(ctx, order.UserID(), pack.CurrencyItemID(), pack.CurrencyAmount())
		if err != nil {
			return err
		}

		p, err := purchase.NewPurchase(
			purchaseID,
			order.UserID(),
			order.ItemID(),
			purchase.PurchaseKindMarket,
			pack.CurrencyAmount(),
			nil,
			balanceBefore,
			balanceAfter,
			purchase.PurchaseStatusCompleted,
			req.Receipt,
		)
		if err != nil {
			return err
		}
		p.SetMarketOrderID(order.OrderID())
		if err := s.purchaseRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save purchase: %w", err)
		}

		if err := s.orderRepo.Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save market order: %w", err)
		}

		s.metrics.RecordPurchase(ctx, purchase.PurchaseKindMarket.String(), order.ItemID())
		s.metrics.RecordItemBalance(ctx, order.UserID(), pack.CurrencyItemID(), balanceAfter)

		result = &CompletePurchaseResponse{
			OrderID:        order.OrderID(),
			PurchaseID:     purchaseID,
			ItemID:         order.ItemID(),
			CurrencyItemID: pack.CurrencyItemID(),
			GivenAmount:    pack.CurrencyAmount(),
			BalanceAfter:   balanceAfter,
			Status:         order.Status().String(),
		}

		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to complete market purchase", err, map[string]interface{}{
			"order_id": req.OrderID,
		})
		s.metrics.RecordError(ctx, "complete_purchase_failed")
		return nil, err
	}

	s.logger.Info(ctx, "Market purchase completed", map[string]interface{}{
		"order_id":    req.OrderID,
		"purchase_id": purchaseID,
	})

	return result, nil
}

// CancelPurchase 課金キャンセルを受領して注文をキャンセルする
func (s *MarketApplicationService) CancelPurchase(ctx context.Context, req *CancelPurchaseRequest) (*CancelPurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "MarketApplicationService.CancelPurchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
	)

	order, err := s.orderRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := order.Cancel(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to save market order", err, map[string]interface{}{
			"order_id": req.OrderID,
		})
		return nil, fmt.Errorf("failed to save market order: %w", err)
	}

	s.logger.Info(ctx, "Market purchase canceled", map[string]interface{}{
		"order_id": req.OrderID,
	})

	return &CancelPurchaseResponse{
		OrderID: order.OrderID(),
		Status:  order.Status().String(),
	}, nil
}

// RefundPurchase 返金を受領して付与済みの通貨を取り上げる
func (s *MarketApplicationService) RefundPurchase(ctx context.Context, req *RefundPurchaseRequest) (*RefundPurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "MarketApplicationService.RefundPurchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
	)

	order, err := s.orderRepo.FindByOrderID(ctx, req.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	pack, err := s.catalog.PackByItemID(order.ItemID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	purchaseID := s.generatePurchaseID()

	var result *RefundPurchaseResponse
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := order.Refund(); err != nil {
			return err
		}

		balanceBefore, balanceAfter, err := s.consumeBalance(ctx, order.UserID(), pack.CurrencyItemID(), pack.CurrencyAmount())
		if err != nil {
			return err
		}

		p, err := purchase.NewPurchase(
			purchaseID,
			order.UserID(),
			order.ItemID(),
			purchase.PurchaseKindTake,
			pack.CurrencyAmount(),
			nil,
			balanceBefore,
			balanceAfter,
			purchase.PurchaseStatusCompleted,
			map[string]interface{}{"reason": "refund"},
		)
		if err != nil {
			return err
		}
		p.SetMarketOrderID(order.OrderID())
		if err := s.purchaseRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save purchase: %w", err)
		}

		if err := s.orderRepo.Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save market order: %w", err)
		}

		s.metrics.RecordItemBalance(ctx, order.UserID(), pack.CurrencyItemID(), balanceAfter)

		result = &RefundPurchaseResponse{
			OrderID:        order.OrderID(),
			CurrencyItemID: pack.CurrencyItemID(),
			TakenAmount:    pack.CurrencyAmount(),
			BalanceAfter:   balanceAfter,
			Status:         order.Status().String(),
		}

		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to refund market purchase", err, map[string]interface{}{
			"order_id": req.OrderID,
		})
		s.metrics.RecordError(ctx, "refund_purchase_failed")
		return nil, err
	}

	s.logger.Info(ctx, "Market purchase refunded", map[string]interface{}{
		"order_id": req.OrderID,
	})

	return result, nil
}

// recordedResult 完了済み注文に対する記録済みの結果を組み立てる
func (s *MarketApplicationService) recordedResult(ctx context.Context, order *market_order.MarketOrder) (*CompletePurchaseResponse, error) {
	p, err := s.purchaseRepo.FindByMarketOrderID(ctx, order.OrderID())
	if err != nil {
		s.logger.Error(ctx, "Failed to find recorded purchase", err, map[string]interface{}{
			"order_id": order.OrderID(),
		})
		return nil, fmt.Errorf("failed to find recorded purchase: %w", err)
	}

	currencyItemID := ""
	if pack, err := s.catalog.PackByItemID(order.ItemID()); err == nil {
		currencyItemID = pack.CurrencyItemID()
	}

	return &CompletePurchaseResponse{
		OrderID:        order.OrderID(),
		PurchaseID:     p.PurchaseID(),
		ItemID:         p.ItemID(),
		CurrencyItemID: currencyItemID,
		GivenAmount:    p.Quantity(),
		BalanceAfter:   p.BalanceAfter(),
		Status:         order.Status().String(),
	}, nil
}

// grantBalance 残高を加算する（楽観的ロックのリトライつき）
func (s *MarketApplicationService) grantBalance(ctx context.Context, userID, itemID string, amount int64) (int64, int64, error) {
	var retryErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数バックオフ
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			time.Sleep(backoff)
		}

		b, err := s.balanceRepo.FindByUserIDAndItemID(ctx, userID, itemID)
		if err != nil && err != balance.ErrBalanceNotFound {
			return 0, 0, fmt.Errorf("failed to find balance: %w", err)
		}

		if b == nil {
			b, err = balance.NewBalance(userID, itemID, 0, 0)
			if err != nil {
				return 0, 0, err
			}
			if err := s.balanceRepo.Create(ctx, b); err != nil {
				return 0, 0, fmt.Errorf("failed to create balance: %w", err)
			}
		}

		balanceBefore := b.Amount()

		if err := b.Grant(amount); err != nil {
			return 0, 0, err
		}

		if err := s.balanceRepo.Save(ctx, b); err != nil {
			if attempt < s.maxRetries-1 {
				retryErr = err
				continue
			}
			return 0, 0, fmt.Errorf("failed to save balance after retries: %w", err)
		}

		return balanceBefore, b.Amount(), nil
	}

	return 0, 0, retryErr
}

// consumeBalance 残高を減算する（楽観的ロックのリトライつき）
func (s *MarketApplicationService) consumeBalance(ctx context.Context, userID, itemID string, amount int64) (int64, int64, error) {
	var retryErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			time.Sleep(backoff)
		}

		b, err := s.balanceRepo.FindByUserIDAndItemID(ctx, userID, itemID)
		if err != nil {
			if err == balance.ErrBalanceNotFound {
				return 0, 0, &balance.InsufficientFundsError{CurrencyItemID: itemID}
			}
			return 0, 0, fmt.Errorf("failed to find balance: %w", err)
		}

		balanceBefore := b.Amount()

		if err := b.Consume(amount); err != nil {
			return 0, 0, err
		}

		if err := s.balanceRepo.Save(ctx, b); err != nil {
			if attempt < s.maxRetries-1 {
				retryErr = err
				continue
			}
			return 0, 0, fmt.Errorf("failed to save balance after retries: %w", err)
		}

		return balanceBefore, b.Amount(), nil
	}

	return 0, 0, retryErr
}

// generateOrderID 注文IDを生成
func (s *MarketApplicationService) generateOrderID() string {
	return fmt.Sprintf("ord_%s", uuid.NewString())
}

// generatePurchaseID 購入IDを生成
func (s *MarketApplicationService) generatePurchaseID() string {
	return fmt.Sprintf("pur_%s", uuid.NewString())
}
