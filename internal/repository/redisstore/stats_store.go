// Package redisstore keeps the SystemStats snapshot in a single Redis hash and
// applies deltas atomically with a server-side script.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
)

// applyScript: KEYS[1]=hash, ARGV = dTotal, dFlagged, dQueue, id, nowMillis.
var applyScript = redis.NewScript(`
local key = KEYS[1]
redis.call('HINCRBY', key, 'total_analyzed', ARGV[1])
redis.call('HINCRBY', key, 'flagged_content', ARGV[2])
local queue = tonumber(redis.call('HGET', key, 'queue_length') or '0') + tonumber(ARGV[3])
if queue < 0 then queue = 0 end
local prev = tonumber(redis.call('HGET', key, 'updated_at') or '0')
local now = tonumber(ARGV[5])
if now <= prev then now = prev + 1 end
redis.call('HSET', key, 'queue_length', queue, 'id', ARGV[4], 'updated_at', now)
if redis.call('HEXISTS', key, 'accuracy_rate') == 0 then
  redis.call('HSET', key, 'accuracy_rate', 0)
end
return redis.call('HGETALL', key)
`)

// writeScript: KEYS[1]=hash, ARGV = total, flagged, queue, accuracy, id, nowMillis.
var writeScript = redis.NewScript(`
local key = KEYS[1]
local prev = tonumber(redis.call('HGET', key, 'updated_at') or '0')
local now = tonumber(ARGV[6])
if now <= prev then now = prev + 1 end
redis.call('HSET', key,
  'total_analyzed', ARGV[1], 'flagged_content', ARGV[2], 'queue_length', ARGV[3],
  'accuracy_rate', ARGV[4], 'id', ARGV[5], 'updated_at', now)
return redis.call('HGETALL', key)
`)

type StatsStore struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

func NewStatsStore(rdb *redis.Client, key string) *StatsStore {
	if key == "" {
		key = "stats:current"
	}
	return &StatsStore{rdb: rdb, key: key, now: time.Now}
}

func (s *StatsStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *StatsStore) CurrentStats(ctx context.Context) (*entity.SystemStats, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}
	return parseStats(fields)
}

func (s *StatsStore) WriteStats(ctx context.Context, snap entity.SystemStats) (*entity.SystemStats, error) {
	res, err := writeScript.Run(ctx, s.rdb, []string{s.key},
		snap.TotalAnalyzed, snap.FlaggedContent, snap.QueueLength, snap.AccuracyRate,
		uuid.NewString(), s.now().UnixMilli(),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("write stats: %w", err)
	}
	return parseStats(pairs(res))
}

func (s *StatsStore) ApplyStats(ctx context.Context, d entity.StatsDelta) (*entity.SystemStats, error) {
	res, err := applyScript.Run(ctx, s.rdb, []string{s.key},
		d.TotalAnalyzed, d.FlaggedContent, d.QueueLength,
		uuid.NewString(), s.now().UnixMilli(),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("apply stats: %w", err)
	}
	return parseStats(pairs(res))
}

func pairs(flat []string) map[string]string {
	out := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out[flat[i]] = flat[i+1]
	}
	return out
}

func parseStats(fields map[string]string) (*entity.SystemStats, error) {
	var (
		st  entity.SystemStats
		err error
	)
	ints := []struct {
		name string
		dst  *int
	}{
		{"total_analyzed", &st.TotalAnalyzed},
		{"flagged_content", &st.FlaggedContent},
		{"queue_length", &st.QueueLength},
		{"accuracy_rate", &st.AccuracyRate},
	}
	for _, f := range ints {
		v, ok := fields[f.name]
		if !ok {
			continue
		}
		if *f.dst, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}

	if raw, ok := fields["id"]; ok {
		if st.ID, err = uuid.Parse(raw); err != nil {
			return nil, fmt.Errorf("parse id: %w", err)
		}
	}
	if raw, ok := fields["updated_at"]; ok {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		st.UpdatedAt = time.UnixMilli(millis).UTC()
	}
	if st.ID == uuid.Nil {
		return nil, errors.New("stats hash has no id")
	}
	return &st, nil
}
