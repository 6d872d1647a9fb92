package progress

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores slides in a set and days in a hash of
// day -> unix milliseconds, so SADD and HSETNX give idempotent inserts.
type RedisRepository struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb, prefix: "progress"}
}

func (r *RedisRepository) slidesKey(userID string) string {
	return fmt.Sprintf("%s:%s:slides", r.prefix, userID)
}

func (r *RedisRepository) daysKey(userID string) string {
	return fmt.Sprintf("%s:%s:days", r.prefix, userID)
}

func (r *RedisRepository) CompletedSlides(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.slidesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading slides: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RedisRepository) AddSlide(ctx context.Context, userID, slideID string, at time.Time) error {
	if err := r.rdb.SAdd(ctx, r.slidesKey(userID), slideID).Err(); err != nil {
		return fmt.Errorf("adding slide: %w", err)
	}
	return nil
}

func (r *RedisRepository) DayCompletions(ctx context.Context, userID string) ([]DayCompletion, error) {
	raw, err := r.rdb.HGetAll(ctx, r.daysKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading days: %w", err)
	}

	out := make([]DayCompletion, 0, len(raw))
	for k, v := range raw {
		day, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("corrupt day field %q: %w", k, err)
		}
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp for day %d: %w", day, err)
		}
		out = append(out, DayCompletion{Day: day, CompletedAt: time.UnixMilli(ms).UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (r *RedisRepository) AddDay(ctx context.Context, userID string, day int, at time.Time) error {
	err := r.rdb.HSetNX(ctx, r.daysKey(userID), strconv.Itoa(day), at.UnixMilli()).Err()
	if err != nil {
		return fmt.Errorf("adding day: %w", err)
	}
	return nil
}
