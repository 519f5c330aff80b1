package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
)

// RedisCache keeps the hot read paths (recent posts, sentiment snapshots,
// trending) out of ClickHouse.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisCache(addr string, logger *logrus.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	return NewRedisCacheFromClient(client, logger)
}

func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) AddRecentPost(ctx context.Context, post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentPosts, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentPosts, 0, constants.MaxRecentPosts-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push recent post: %w", err)
	}

	return nil
}

func (r *RedisCache) GetRecentPosts(ctx context.Context, limit int64) ([]*models.Post, error) {
	if limit <= 0 || limit > constants.MaxRecentPosts {
		limit = constants.MaxRecentPosts
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentPosts, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("range recent posts: %w", err)
	}

	out := make([]*models.Post, 0, len(vals))
	for _, v := range vals {
		var p models.Post
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			r.logger.WithError(err).Warn("skipping malformed cached post")
			continue
		}
		out = append(out, &p)
	}

	return out, nil
}

func (r *RedisCache) SetSentimentSnapshot(ctx context.Context, summary *models.SentimentSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal sentiment snapshot: %w", err)
	}

	key := constants.RedisKeySentimentPrefix + summary.ProjectTag
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set sentiment snapshot: %w", err)
	}

	return nil
}

func (r *RedisCache) GetSentimentSnapshot(ctx context.Context, projectTag string) (*models.SentimentSummary, error) {
	val, err := r.client.Get(ctx, constants.RedisKeySentimentPrefix+projectTag).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sentiment snapshot: %w", err)
	}

	var s models.SentimentSummary
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("unmarshal sentiment snapshot: %w", err)
	}
	return &s, nil
}

func (r *RedisCache) SetTrending(ctx context.Context, entries []*models.TrendEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal trending: %w", err)
	}

	if err := r.client.Set(ctx, constants.RedisKeyTrending, data, 0).Err(); err != nil {
		return fmt.Errorf("set trending: %w", err)
	}

	return nil
}

func (r *RedisCache) GetTrending(ctx context.Context) ([]*models.TrendEntry, error) {
	val, err := r.client.Get(ctx, constants.RedisKeyTrending).Result()
	if err == redis.Nil {
		return []*models.TrendEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trending: %w", err)
	}

	var out []*models.TrendEntry
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, fmt.Errorf("unmarshal trending: %w", err)
	}
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
