package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"fraudengine/internal/evaluation/domain"
	"fraudengine/internal/pkg/logger"
)

const (
	historyCacheTTL = 30 * time.Second
	// historyCacheKeyGranularity buckets the since cutoff so bursts of
	// evaluations for one account share a cache entry.
	historyCacheKeyGranularity = time.Minute
)

// CachedHistoryRepository puts a short-lived redis read-through cache in
// front of the transaction history count. Cache failures degrade to the
// underlying repository; they never fail an evaluation.
type CachedHistoryRepository struct {
	inner domain.TransactionHistoryRepository
	redis *redis.Client
}

func NewCachedHistoryRepository(inner domain.TransactionHistoryRepository, client *redis.Client) *CachedHistoryRepository {
	return &CachedHistoryRepository{inner: inner, redis: client}
}

func (r *CachedHistoryRepository) RecentTransactionCount(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	key := fmt.Sprintf("fraud:txcount:%s:%d", accountID, since.Truncate(historyCacheKeyGranularity).Unix())

	if cached, err := r.redis.Get(ctx, key).Result(); err == nil {
		if count, err := strconv.Atoi(cached); err == nil {
			return count, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("history cache read failed")
	}

	count, err := r.inner.RecentTransactionCount(ctx, accountID, since)
	if err != nil {
		return 0, err
	}

	if err := r.redis.Set(ctx, key, strconv.Itoa(count), historyCacheTTL).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("history cache write failed")
	}
	return count, nil
}
