package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront-server/internal/domain/balance"
	"storefront-server/internal/infrastructure/config"
)

// NewClient 新しいRedisクライアントを作成
func NewClient(cfg *config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// cachedBalance Redisに保存する残高のスナップショット
type cachedBalance struct {
	Amount  int64 `json:"amount"`
	Version int   `json:"version"`
}

// CachedBalanceRepository BalanceRepositoryのリードスルーキャッシュ実装
// 読み取りはRedisを優先し、ミス時にMySQLへフォールバックしてキャッシュを温める。
// 書き込みはMySQLへ委譲した後にキャッシュを無効化する
type CachedBalanceRepository struct {
	inner  balance.BalanceRepository
	client *goredis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewCachedBalanceRepository 新しいCachedBalanceRepositoryを作成
func NewCachedBalanceRepository(inner balance.BalanceRepository, client *goredis.Client, ttl time.Duration) *CachedBalanceRepository {
	return &CachedBalanceRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		tracer: otel.Tracer("cached-balance-repository"),
	}
}

// balanceKey 残高キャッシュのキーを生成
func balanceKey(userID, itemID string) string {
	return fmt.Sprintf("balance:%s:%s", userID, itemID)
}

// FindByUserIDAndItemID ユーザーIDとアイテムIDで残高を取得（キャッシュ優先）
func (r *CachedBalanceRepository) FindByUserIDAndItemID(ctx context.Context, userID, itemID string) (*balance.Balance, error) {
	ctx, span := r.tracer.Start(ctx, "CachedBalanceRepository.FindByUserIDAndItemID")
	defer span.End()

	key := balanceKey(userID, itemID)
	span.SetAttributes(
		attribute.String("cache.key", key),
	)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedBalance
		if err := json.Unmarshal(data, &cached); err == nil {
			b, err := balance.NewBalance(userID, itemID, cached.Amount, cached.Version)
			if err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return b, nil
			}
		}
		// 壊れたキャッシュエントリは破棄してDBから読み直す
		_ = r.client.Del(ctx, key).Err()
	} else if err != goredis.Nil {
		span.RecordError(err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))

	b, err := r.inner.FindByUserIDAndItemID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	r.set(ctx, b)
	return b, nil
}

// FindByUserID ユーザーの全残高を取得
// 一覧はキャッシュせず常にDBから読む
func (r *CachedBalanceRepository) FindByUserID(ctx context.Context, userID string) ([]*balance.Balance, error) {
	return r.inner.FindByUserID(ctx, userID)
}

// Save 残高を保存し、キャッシュを無効化
// 楽観ロック失敗時もキーを破棄する。スナップショットを残すと
// リトライが古いバージョンを読み続けてしまう
func (r *CachedBalanceRepository) Save(ctx context.Context, b *balance.Balance) error {
	ctx, span := r.tracer.Start(ctx, "CachedBalanceRepository.Save")
	defer span.End()

	err := r.inner.Save(ctx, b)
	r.invalidate(ctx, b.UserID(), b.ItemID())
	return err
}

// Create 新しい残高を作成し、キャッシュを無効化
func (r *CachedBalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	ctx, span := r.tracer.Start(ctx, "CachedBalanceRepository.Create")
	defer span.End()

	err := r.inner.Create(ctx, b)
	r.invalidate(ctx, b.UserID(), b.ItemID())
	return err
}

// set 残高をキャッシュに書き込む（失敗しても読み取り結果には影響させない）
func (r *CachedBalanceRepository) set(ctx context.Context, b *balance.Balance) {
	data, err := json.Marshal(cachedBalance{
		Amount:  b.Amount(),
		Version: b.Version(),
	})
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, balanceKey(b.UserID(), b.ItemID()), data, r.ttl).Err()
}

// invalidate キャッシュエントリを削除する
func (r *CachedBalanceRepository) invalidate(ctx context.Context, userID, itemID string) {
	_ = r.client.Del(ctx, balanceKey(userID, itemID)).Err()
}
