package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "stride-coach/common/redis"
	"stride-coach/internal/config"
	"stride-coach/internal/engine"
)

// ErrNoCachedUpdate is returned when no update is cached for the runner.
var ErrNoCachedUpdate = errors.New("no cached analysis update")

const writeTimeout = 2 * time.Second

// CacheManager mirrors engine updates into Redis: the latest update per
// runner under a TTL key, and every update on the analysis stream.
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager creates a cache manager.
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *CacheManager) latestKey(runnerID string) string {
	return fmt.Sprintf("%s%s%s", c.config.Cache.LatestKeyPrefix, runnerID, c.config.Cache.LatestSuffix)
}

// Store writes u as the runner's latest update and appends it to the stream.
func (c *CacheManager) Store(ctx context.Context, u *engine.Update) error {
	jsonData, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	if err := c.redisClient.Set(ctx, c.latestKey(u.RunnerID), jsonData, c.config.Cache.LatestTTL).Err(); err != nil {
		return fmt.Errorf("failed to set latest update: %w", err)
	}

	if _, err := rediscommon.PublishJSONToStream(ctx, c.redisClient, c.config.Cache.Stream, c.config.Cache.StreamMaxLen, u); err != nil {
		return fmt.Errorf("failed to publish update to stream: %w", err)
	}
	return nil
}

// Latest returns the cached update for runnerID.
func (c *CacheManager) Latest(ctx context.Context, runnerID string) (*engine.Update, error) {
	val, err := c.redisClient.Get(ctx, c.latestKey(runnerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoCachedUpdate
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var u engine.Update
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update: %w", err)
	}
	return &u, nil
}

// OnUpdate is an engine subscriber. Redis errors are logged and dropped.
func (c *CacheManager) OnUpdate(u *engine.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := c.Store(ctx, u); err != nil {
		c.logger.Error("Failed to cache analysis update",
			zap.String("runner_id", u.RunnerID),
			zap.Error(err),
		)
	}
}
