package history

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront-server/internal/domain/purchase"
	otelinfra "storefront-server/internal/infrastructure/observability/otel"
)

// HistoryApplicationService 購入履歴アプリケーションサービス
type HistoryApplicationService struct {
	purchaseRepo purchase.PurchaseRepository
	logger       *otelinfra.Logger
	metrics      *otelinfra.Metrics
	tracer       trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	purchaseRepo purchase.PurchaseRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		purchaseRepo: purchaseRepo,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("history-service"),
	}
}

// GetPurchaseHistory 購入履歴を取得
func (s *HistoryApplicationService) GetPurchaseHistory(ctx context.Context, req *GetPurchaseHistoryRequest) (*GetPurchaseHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetPurchaseHistory")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	s.logger.Info(ctx, "Getting purchase history", map[string]interface{}{
		"user_id": req.UserID,
		"limit":   req.Limit,
		"offset":  req.Offset,
		"kind":    req.Kind,
	})

	// バリデーション
	if req.Limit <= 0 {
		req.Limit = 50 // デフォルト値
	}
	if req.Limit > 100 {
		req.Limit = 100 // 最大値
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	// 種別フィルタはSQL側で絞り込む。アプリ側でページ後に間引くと
	// ページが欠けてしまうため
	var purchases []*purchase.Purchase
	var err error
	if req.Kind != "" {
		kind, kindErr := purchase.NewPurchaseKind(req.Kind)
		if kindErr != nil {
			span.RecordError(kindErr)
			span.SetStatus(otelcodes.Error, kindErr.Error())
			s.logger.Warn(ctx, "Invalid purchase kind filter", map[string]interface{}{
				"user_id": req.UserID,
				"kind":    req.Kind,
			})
			return nil, kindErr
		}
		purchases, err = s.purchaseRepo.FindByUserIDAndKind(ctx, req.UserID, kind, req.Limit, req.Offset)
	} else {
		purchases, err = s.purchaseRepo.FindByUserID(ctx, req.UserID, req.Limit, req.Offset)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to get purchase history", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to get purchase history: %w", err)
	}

	s.metrics.RecordRequest(ctx, "GET", "/api/v1/users/{user_id}/purchases")

	return &GetPurchaseHistoryResponse{
		Purchases: purchases,
		Total:     len(purchases),
		Limit:     req.Limit,
		Offset:    req.Offset,
	}, nil
}
