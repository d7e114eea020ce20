package budget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockroom-app/server/internal/core"
	errx "github.com/stockroom-app/server/internal/core/error"
	logx "github.com/stockroom-app/server/pkg/logger"
)

// Ledger tracks month-to-date provider spend per environment.
type Ledger interface {
	MonthToDate(ctx context.Context, env core.Environment) (float64, error)
	Add(ctx context.Context, env core.Environment, usd float64) error
}

// spendTTL keeps a month's counter around a little after the month ends.
const spendTTL = 40 * 24 * time.Hour

func monthKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}

type RedisLedger struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisLedger(rdb redis.Cmdable) *RedisLedger {
	return &RedisLedger{rdb: rdb, now: time.Now}
}

func (r *RedisLedger) spendKey(env core.Environment) string {
	return fmt.Sprintf("assistant:spend:%s:%s", env, monthKey(r.now()))
}

func (r *RedisLedger) MonthToDate(ctx context.Context, env core.Environment) (float64, error) {
	key := r.spendKey(env)
	v, err := r.rdb.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to read spend from redis")
		return 0, errx.WrapRedis(err)
	}
	return v, nil
}

func (r *RedisLedger) Add(ctx context.Context, env core.Environment, usd float64) error {
	if usd <= 0 {
		return nil
	}
	key := r.spendKey(env)
	if err := r.rdb.IncrByFloat(ctx, key, usd).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to add spend to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if ok, err := r.rdb.Expire(ctx, key, spendTTL).Result(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
		return errx.WrapRedis(err)
	} else if !ok {
		logx.Warn().Str("key", key).Dur("ttl", spendTTL).Msg("failed to set TTL on spend key")
	}
	return nil
}

// MemoryLedger is the process-local ledger used when Redis is not configured.
type MemoryLedger struct {
	mu    sync.Mutex
	spend map[string]float64
	now   func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{spend: map[string]float64{}, now: time.Now}
}

func (m *MemoryLedger) key(env core.Environment) string {
	return string(env) + ":" + monthKey(m.now())
}

func (m *MemoryLedger) MonthToDate(_ context.Context, env core.Environment) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spend[m.key(env)], nil
}

func (m *MemoryLedger) Add(_ context.Context, env core.Environment, usd float64) error {
	if usd <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spend[m.key(env)] += usd
	return nil
}

var (
	_ Ledger = (*RedisLedger)(nil)
	_ Ledger = (*MemoryLedger)(nil)
)
