package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sms:rl"

// Rule is one sliding-window limit: at most Max requests per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Result reports a limiter decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter implements a sliding-window counter on Redis sorted sets, one set
// per (group, key). Expired window members are lazily reaped on each check.
// Best-effort, single-Redis state: this is an advisory limit, not a
// distributed guarantee.
type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter { return &Limiter{rdb: rdb} }

// Allow records one request for key within group and reports whether it fits
// the rule. Rejected requests still occupy a window slot.
func (l *Limiter) Allow(ctx context.Context, group, key string, rule Rule) (Result, error) {
	if rule.Max <= 0 || rule.Window <= 0 {
		return Result{Allowed: true}, nil
	}

	now := time.Now()
	redisKey := fmt.Sprintf("%s:%s:%s", keyPrefix, group, key)
	cutoff := strconv.FormatInt(now.Add(-rule.Window).UnixNano(), 10)

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rule.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	count := int(countCmd.Val())
	if count <= rule.Max {
		return Result{Allowed: true, Remaining: rule.Max - count}, nil
	}

	retry := rule.Window
	if oldest, err := l.rdb.ZRangeWithScores(ctx, redisKey, 0, 0).Result(); err == nil && len(oldest) > 0 {
		oldestAt := time.Unix(0, int64(oldest[0].Score))
		if d := time.Until(oldestAt.Add(rule.Window)); d > 0 {
			retry = d
		} else {
			retry = 0
		}
	}
	return Result{Allowed: false, RetryAfter: retry}, nil
}

// Reset clears the window for one key, mainly for tests and admin tooling.
func (l *Limiter) Reset(ctx context.Context, group, key string) error {
	return l.rdb.Del(ctx, fmt.Sprintf("%s:%s:%s", keyPrefix, group, key)).Err()
}
