package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-server/internal/domain/balance"
	"storefront-server/internal/domain/item"
	"storefront-server/internal/domain/purchase"
	"storefront-server/internal/domain/service"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

// StoreApplicationService ストアアプリケーションサービス
// カタログと残高を束ね、仮想通貨建ての購入・付与・取り上げを提供する
type StoreApplicationService struct {
	catalog        *item.Catalog
	balanceRepo    balance.BalanceRepository
	purchaseRepo   purchase.PurchaseRepository
	txManager      purchase.TransactionManager
	pricingService *service.PricingService
	logger         *otelinfra.Logger
	metrics        *otelinfra.Metrics
	tracer         trace.Tracer
	maxRetries     int
}

// NewStoreApplicationService 新しいStoreApplicationServiceを作成
func NewStoreApplicationService(
	catalog *item.Catalog,
	balanceRepo balance.BalanceRepository,
	purchaseRepo purchase.PurchaseRepository,
	txManager purchase.TransactionManager,
	pricingService *service.PricingService,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *StoreApplicationService {
	return &StoreApplicationService{
		catalog:        catalog,
		balanceRepo:    balanceRepo,
		purchaseRepo:   purchaseRepo,
		txManager:      txManager,
		pricingService: pricingService,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("store-service"),
		maxRetries:     3,
	}
}

// BuyVirtualGood 仮想通貨建てでアイテムを購入
// 価格に含まれる全通貨の残高を検証し、不足があればInsufficientFundsErrorを返す
func (s *StoreApplicationService) BuyVirtualGood(ctx context.Context, req *BuyVirtualGoodRequest) (*BuyVirtualGoodResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StoreApplicationService.BuyVirtualGood")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
	)

	s.logger.Info(ctx, "Buying virtual good", map[string]interface{}{
		"user_id": req.UserID,
		"item_id": req.ItemID,
	})

	// 購入対象を解決（グッズ、または仮想通貨建てのパック）
	price, targetItemID, grantAmount, err := s.resolveVirtualPurchase(req.ItemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to resolve item", err, map[string]interface{}{
			"user_id": req.UserID,
			"item_id": req.ItemID,
		})
		return nil, err
	}

	// 残高の事前チェック
	deficient, err := s.pricingService.FindDeficientCurrency(ctx, req.UserID, price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to check funds: %w", err)
	}
	if deficient != "" {
		fundsErr := &balance.InsufficientFundsError{CurrencyItemID: deficient}
		span.RecordError(fundsErr)
		span.SetStatus(otelcodes.Error, fundsErr.Error())
		s.metrics.RecordInsufficientFunds(ctx, deficient)
		s.logger.Info(ctx, "Insufficient funds", map[string]interface{}{
			"user_id":     req.UserID,
			"item_id":     req.ItemID,
			"currency_id": deficient,
		})
		return nil, fundsErr
	}

	purchaseID := s.generatePurchaseID()

	var result *BuyVirtualGoodResponse
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		currencyBalances := make(map[string]int64, len(price))

		// 価格に含まれる全通貨を消費（アイテムID順）
		currencyItemIDs := make([]string, 0, len(price))
		for currencyItemID := range price {
			currencyItemIDs = append(currencyItemIDs, currencyItemID)
		}
		sort.Strings(currencyItemIDs)

		for _, currencyItemID := range currencyItemIDs {
			_, after, err := s.consumeBalance(ctx, req.UserID, currencyItemID, price[currencyItemID])
			if err != nil {
				return err
			}
			currencyBalances[currencyItemID] = after
			s.metrics.RecordItemBalance(ctx, req.UserID, currencyItemID, after)
		}

		// 購入対象アイテムを付与
		balanceBefore, balanceAfter, err := s.grantBalance(ctx, req.UserID, targetItemID, grantAmount)
		if err != nil {
			return err
		}
		s.metrics.RecordItemBalance(ctx, req.UserID, targetItemID, balanceAfter)

		// 台帳を記録
		p, err := purchase.NewPurchase(
			purchaseID,
			req.UserID,
			req.ItemID,
			purchase.PurchaseKindVirtual,
			grantAmount,
			price,
			balanceBefore,
			balanceAfter,
			purchase.PurchaseStatusCompleted,
			req.Metadata,
		)
		if err != nil {
			return err
		}
		if err := s.purchaseRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save purchase: %w", err)
		}

		s.metrics.RecordPurchase(ctx, purchase.PurchaseKindVirtual.String(), req.ItemID)

		result = &BuyVirtualGoodResponse{
			PurchaseID:       purchaseID,
			ItemID:           req.ItemID,
			BalanceAfter:     balanceAfter,
			Debits:           price,
			CurrencyBalances: currencyBalances,
			Status:           "completed",
		}

		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, balance.ErrInsufficientBalance) {
			// 事前チェック後に残高が変動した場合もUIへは残高不足として返す
			var fundsErr *balance.InsufficientFundsError
			if errors.As(err, &fundsErr) {
				s.metrics.RecordInsufficientFunds(ctx, fundsErr.CurrencyItemID)
			}
			return nil, err
		}
		s.logger.Error(ctx, "Failed to buy virtual good", err, map[string]interface{}{
			"user_id": req.UserID,
			"item_id": req.ItemID,
		})
		s.metrics.RecordError(ctx, "buy_virtual_good_failed")
		return nil, err
	}

	s.logger.Info(ctx, "Virtual good bought successfully", map[string]interface{}{
		"user_id":     req.UserID,
		"item_id":     req.ItemID,
		"purchase_id": purchaseID,
	})

	return result, nil
}

// GiveItem アイテムを付与
// 通貨パックの場合はパック内容（currencyAmount * amount）を対象通貨へ付与する
func (s *StoreApplicationService) GiveItem(ctx context.Context, req *GiveItemRequest) (*GiveItemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StoreApplicationService.GiveItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
		attribute.Int64("amount", req.Amount),
	)

	s.logger.Info(ctx, "Giving item", map[string]interface{}{
		"user_id": req.UserID,
		"item_id": req.ItemID,
		"amount":  req.Amount,
	})

	if req.Amount <= 0 {
		err := balance.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	targetItemID, giveAmount, err := s.resolveGiveTarget(ctx, req.ItemID, req.Amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if giveAmount == 0 {
		// パックの対象通貨がカタログに存在しない場合は何も付与しない
		return &GiveItemResponse{
			ItemID:      targetItemID,
			GivenAmount: 0,
			Status:      "completed",
		}, nil
	}

	purchaseID := s.generatePurchaseID()

	var result *GiveItemResponse
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		balanceBefore, balanceAfter, err := s.grantBalance(ctx, req.UserID, targetItemID, giveAmount)
		if err != nil {
			return err
		}

		p, err := purchase.NewPurchase(
			purchaseID,
			req.UserID,
			targetItemID,
			purchase.PurchaseKindGrant,
			giveAmount,
			nil,
			balanceBefore,
			balanceAfter,
			purchase.PurchaseStatusCompleted,
			req.Metadata,
		)
		if err != nil {
			return err
		}
		if err := s.purchaseRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save purchase: %w", err)
		}

		s.metrics.RecordPurchase(ctx, purchase.PurchaseKindGrant.String(), targetItemID)
		s.metrics.RecordItemBalance(ctx, req.UserID, targetItemID, balanceAfter)

		result = &GiveItemResponse{
			PurchaseID:   purchaseID,
			ItemID:       targetItemID,
			GivenAmount:  giveAmount,
			BalanceAfter: balanceAfter,
			Status:       "completed",
		}

		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to give item", err, map[string]interface{}{
			"user_id": req.UserID,
			"item_id": req.ItemID,
		})
		s.metrics.RecordError(ctx, "give_item_failed")
		return nil, err
	}

	return result, nil
}

// TakeItem アイテムを取り上げ
// 通貨パックの場合はパック内容（currencyAmount * amount）を対象通貨から取り上げる
func (s *StoreApplicationService) TakeItem(ctx context.Context, req *TakeItemRequest) (*TakeItemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StoreApplicationService.TakeItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("item_id", req.ItemID),
		attribute.Int64("amount", req.Amount),
	)

	s.logger.Info(ctx, "Taking item", map[string]interface{}{
		"user_id": req.UserID,
		"item_id": req.ItemID,
		"amount":  req.Amount,
	})

	if req.Amount <= 0 {
		err := balance.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	targetItemID, takeAmount, err := s.resolveGiveTarget(ctx, req.ItemID, req.Amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if takeAmount == 0 {
		return &TakeItemResponse{
			ItemID:      targetItemID,
			TakenAmount: 0,
			Status:      "completed",
		}, nil
	}

	purchaseID := s.generatePurchaseID()

	var result *TakeItemResponse
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		balanceBefore, balanceAfter, err := s.consumeBalance(ctx, req.UserID, targetItemID, takeAmount)
		if err != nil {
			return err
		}

		p, err := purchase.NewPurchase(
			purchaseID,
			req.UserID,
			targetItemID,
			purchase.PurchaseKindTake,
			takeAmount,
			nil,
			balanceBefore,
			balanceAfter,
			purchase.PurchaseStatusCompleted,
			req.Metadata,
		)
		if err != nil {
			return err
		}
		if err := s.purchaseRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save purchase: %w", err)
		}

		s.metrics.RecordPurchase(ctx, purchase.PurchaseKindTake.String(), targetItemID)
		s.metrics.RecordItemBalance(ctx, req.UserID, targetItemID, balanceAfter)

		result = &TakeItemResponse{
			PurchaseID:   purchaseID,
			ItemID:       targetItemID,
			TakenAmount:  takeAmount,
			BalanceAfter: balanceAfter,
			Status:       "completed",
		}

		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to take item", err, map[string]interface{}{
			"user_id": req.UserID,
			"item_id": req.ItemID,
		})
		s.metrics.RecordError(ctx, "take_item_failed")
		return nil, err
	}

	return result, nil
}

// GetBalances 通貨残高とグッズ残高を取得
func (s *StoreApplicationService) GetBalances(ctx context.Context, req *GetBalancesRequest) (*GetBalancesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StoreApplicationService.GetBalances")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	balances, err := s.balanceRepo.FindByUserID(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to find balances", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to find balances: %w", err)
	}

	byItemID := make(map[string]int64, len(balances))
	for _, b := range balances {
		byItemID[b.ItemID()] = b.Amount()
	}

	// 残高未作成のアイテムは0として提示する
	currencies := make(map[string]int64)
	for _, currency := range s.catalog.Currencies() {
		currencies[currency.ItemID()] = byItemID[currency.ItemID()]
	}

	goods := make(map[string]GoodBalance)
	for _, good := range s.catalog.Goods() {
		goods[good.ItemID()] = GoodBalance{
			Balance: byItemID[good.ItemID()],
			Price:   good.Price(),
		}
	}

	return &GetBalancesResponse{
		UserID:     req.UserID,
		Currencies: currencies,
		Goods:      goods,
	}, nil
}

// Storefront ストア初期化ペイロードを組み立てる
// カタログ定義と現在の残高をまとめて返す
func (s *StoreApplicationService) Storefront(ctx context.Context, req *StorefrontRequest) (*StorefrontResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StoreApplicationService.Storefront")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	balancesResp, err := s.GetBalances(ctx, &GetBalancesRequest{UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	resp := &StorefrontResponse{
		CurrencyBalances: balancesResp.Currencies,
		GoodsBalances:    balancesResp.Goods,
	}

	for _, currency := range s.catalog.Currencies() {
		resp.Currencies = append(resp.Currencies, CurrencyView{
			ItemID:      currency.ItemID(),
			Name:        currency.Name(),
			Description: currency.Description(),
		})
	}

	for _, pack := range s.catalog.Packs() {
		view := PackView{
			ItemID:         pack.ItemID(),
			Name:           pack.Name(),
			Description:    pack.Description(),
			CurrencyItemID: pack.CurrencyItemID(),
			CurrencyAmount: pack.CurrencyAmount(),
		}
		if pack.PurchaseType().IsMarket() {
			view.ProductID = pack.PurchaseType().ProductID()
		} else {
			view.Price = pack.PurchaseType().Price()
		}
		resp.CurrencyPacks = append(resp.CurrencyPacks, view)
	}

	for _, good := range s.catalog.Goods() {
		resp.Goods = append(resp.Goods, GoodView{
			ItemID:      good.ItemID(),
			Name:        good.Name(),
			Description: good.Description(),
			Price:       good.Price(),
		})
	}

	return resp, nil
}

// resolveVirtualPurchase 仮想通貨建て購入の対象を解決する
// 戻り値は価格、付与対象のアイテムID、付与量
func (s *StoreApplicationService) resolveVirtualPurchase(itemID string) (map[string]int64, string, int64, error) {
	if good, err := s.catalog.GoodByItemID(itemID); err == nil {
		if good.PurchaseType().IsMarket() {
			return nil, "", 0, item.ErrNotPurchasable
		}
		return good.Price(), good.ItemID(), 1, nil
	}

	if pack, err := s.catalog.PackByItemID(itemID); err == nil {
		if pack.PurchaseType().IsMarket() {
			// マーケット購入のパックは課金フロー経由でのみ購入できる
			return nil, "", 0, item.ErrNotPurchasable
		}
		return pack.PurchaseType().Price(), pack.CurrencyItemID(), pack.CurrencyAmount(), nil
	}

	return nil, "", 0, item.ErrItemNotFound
}

// resolveGiveTarget 付与・取り上げの対象を解決する
// 通貨パックの場合は対象通貨とcurrencyAmount*amountを返す
func (s *StoreApplicationService) resolveGiveTarget(ctx context.Context, itemID string, amount int64) (string, int64, error) {
	if pack, err := s.catalog.PackByItemID(itemID); err == nil {
		if _, err := s.catalog.CurrencyByItemID(pack.CurrencyItemID()); err != nil {
			s.logger.Warn(ctx, "Pack references unknown currency", map[string]interface{}{
				"item_id":     itemID,
				"currency_id": pack.CurrencyItemID(),
			})
			return pack.CurrencyItemID(), 0, nil
		}
		return pack.CurrencyItemID(), pack.CurrencyAmount() * amount, nil
	}

	if !s.catalog.HasItem(itemID) {
		return "", 0, item.ErrItemNotFound
	}

	return itemID, amount, nil
}

// grantBalance 残高を加算する（楽観的ロックのリトライつき）
func (s *StoreApplicationService) grantBalance(ctx context.Context, userID, itemID string, amount int64) (int64, int64, error) {
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
			// 残高が存在しない場合は作成
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
func (s *StoreApplicationService) consumeBalance(ctx context.Context, userID, itemID string, amount int64) (int64, int64, error) {
	var retryErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			time.Sleep(backoff)
		}

		b, err := s.balanceRepo.FindByUserIDAndItemID(ctx, userID, itemID)
		if err != nil {
			if err == balance.ErrBalanceNotFound {
				// 残高未作成は残高0として扱うため、消費は常に不足
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

// generatePurchaseID 購入IDを生成
func (s *StoreApplicationService) generatePurchaseID() string {
	return fmt.Sprintf("pur_%s", uuid.NewString())
}
