package load

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
)

const historyKeyPrefix = "load_history:"

// RedisHistoryRepo keeps each athlete's history in a redis list, newest at the head.
type RedisHistoryRepo struct {
	rdb *redis.Client
}

func NewRedisHistoryRepo(rdb *redis.Client) *RedisHistoryRepo {
	return &RedisHistoryRepo{rdb: rdb}
}

func HistoryKey(athleteID string) string {
	return historyKeyPrefix + athleteID
}

func (r *RedisHistoryRepo) Push(ctx context.Context, athleteID string, rec WeeklyLoadRecord, limit int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.load.push")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal weekly load: %w", err)
	}

	key := HistoryKey(athleteID)
	if err := r.rdb.LPush(ctx, key, string(raw)).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	if err := r.rdb.LTrim(ctx, key, 0, int64(limit-1)).Err(); err != nil {
		return fmt.Errorf("ltrim: %w", err)
	}

	return nil
}

func (r *RedisHistoryRepo) List(ctx context.Context, athleteID string) (_ []WeeklyLoadRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.load.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	values, err := r.rdb.LRange(ctx, HistoryKey(athleteID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []WeeklyLoadRecord{}, nil
		}
		return nil, fmt.Errorf("lrange: %w", err)
	}

	history := make([]WeeklyLoadRecord, 0, len(values))
	for _, v := range values {
		var rec WeeklyLoadRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal weekly load: %w", err)
		}
		history = append(history, rec)
	}

	return history, nil
}
