package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bluesky-social/followguard/atproto/syntax"

	"github.com/redis/go-redis/v9"
)

var (
	redisCheckPrefix = "followguard/check/"
	redisRecentKey   = "followguard/checks"
)

// Redis-backed ledger. Each record is a JSON value under "followguard/check/<did>"; the sorted set "followguard/checks" indexes DIDs by check time.
type RedisLedger struct {
	Client *redis.Client
}

var _ Ledger = (*RedisLedger)(nil)

func NewRedisLedger(redisURL string) (*RedisLedger, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to redis: %w", ErrPersistence, err)
	}
	return &RedisLedger{Client: rdb}, nil
}

func redisCheckKey(did syntax.DID) string {
	return redisCheckPrefix + did.String()
}

func (l *RedisLedger) HasBeenChecked(ctx context.Context, did syntax.DID) (bool, error) {
	n, err := l.Client.Exists(ctx, redisCheckKey(did)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return n > 0, nil
}

func (l *RedisLedger) RecordCheck(ctx context.Context, rec *CheckRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding check for %s: %w", ErrPersistence, rec.DID, err)
	}

	// record and index update in a single MULTI/EXEC
	multi := l.Client.TxPipeline()
	multi.Set(ctx, redisCheckKey(rec.DID), b, 0)
	multi.ZAdd(ctx, redisRecentKey, redis.Z{
		Score:  float64(rec.CheckedAt.UnixMilli()),
		Member: rec.DID.String(),
	})
	if _, err := multi.Exec(ctx); err != nil {
		return fmt.Errorf("%w: recording check for %s: %w", ErrPersistence, rec.DID, err)
	}
	return nil
}

func (l *RedisLedger) GetCheck(ctx context.Context, did syntax.DID) (*CheckRecord, error) {
	b, err := l.Client.Get(ctx, redisCheckKey(did)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	var rec CheckRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt record for %s: %w", ErrPersistence, did, err)
	}
	return &rec, nil
}

func (l *RedisLedger) RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error) {
	dids, err := l.Client.ZRevRange(ctx, redisRecentKey, 0, int64(normalizeLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if len(dids) == 0 {
		return []CheckRecord{}, nil
	}

	keys := make([]string, len(dids))
	for i, d := range dids {
		keys[i] = redisCheckPrefix + d
	}
	vals, err := l.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	out := make([]CheckRecord, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// index entry without a record; skip
			continue
		}
		var rec CheckRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("%w: corrupt record for %s: %w", ErrPersistence, dids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}
