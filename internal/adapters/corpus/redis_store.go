package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

// DefaultRedisKey is the sorted set holding feedback samples
const DefaultRedisKey = "mailguard:feedback"

type redisEntry struct {
	ID    string     `json:"id"`
	Text  string     `json:"text"`
	Label core.Label `json:"label"`
}

// RedisStore keeps feedback samples in a Redis sorted set scored by insert time
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
	task   *retentionTask
}

// NewRedisStore connects to Redis using a redis:// URL
func NewRedisStore(ctx context.Context, url, key string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if key == "" {
		key = DefaultRedisKey
	}

	s := &RedisStore{
		client: client,
		key:    key,
		logger: logger,
		task:   newRetentionTask(logger, retention, cleanupFreq),
	}
	s.task.start(s.Cleanup)
	return s, nil
}

// Name implements core.CorpusSource
func (s *RedisStore) Name() string {
	return "feedback:redis"
}

// Samples implements core.CorpusSource
func (s *RedisStore) Samples(ctx context.Context) ([]core.Sample, error) {
	members, err := s.client.ZRange(ctx, s.key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}

	samples := make([]core.Sample, 0, len(members))
	for _, m := range members {
		var e redisEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			s.logger.Warn("Skipping undecodable sample", zap.Error(err))
			continue
		}
		if !e.Label.Valid() {
			s.logger.Warn("Skipping stored sample", zap.String("label", string(e.Label)))
			continue
		}
		samples = append(samples, core.Sample{Text: e.Text, Label: e.Label})
	}
	return samples, nil
}

// Add implements core.CorpusStore
func (s *RedisStore) Add(ctx context.Context, sample core.Sample) error {
	data, err := json.Marshal(redisEntry{
		ID:    uuid.NewString(),
		Text:  sample.Text,
		Label: sample.Label,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	err = s.client.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to store sample: %w", err)
	}
	return nil
}

// Count implements core.CorpusStore
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return int(n), nil
}

// Cleanup removes samples older than the retention window
func (s *RedisStore) Cleanup(ctx context.Context) error {
	cutoff, ok := s.task.cutoff()
	if !ok {
		return nil
	}

	max := "(" + strconv.FormatInt(cutoff.UnixNano(), 10)
	n, err := s.client.ZRemRangeByScore(ctx, s.key, "-inf", max).Result()
	if err != nil {
		return fmt.Errorf("failed to prune samples: %w", err)
	}
	s.logger.Debug("Pruned feedback samples", zap.Int64("expired_count", n))
	return nil
}

// Close stops the cleanup task and closes the client
func (s *RedisStore) Close() error {
	s.task.stop()
	return s.client.Close()
}
