package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/config"
	"stride-coach/internal/engine"
	"stride-coach/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Engine.RunnerID = "runner-1"
	cfg.Topics.Samples = "gait/{runner_id}/samples"
	cfg.Topics.Analysis = "gait/{runner_id}/analysis"
	cfg.Cache.LatestKeyPrefix = "gait:runner:"
	cfg.Cache.LatestSuffix = ":latest"
	cfg.Cache.LatestTTL = 30 * time.Second
	cfg.Cache.Stream = "gait:analysis:stream"
	cfg.Cache.StreamMaxLen = 100
	cfg.MQTT.QoS = 1
	return cfg
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *CacheManager) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { redisClient.Close() })

	return mr, redisClient, NewCacheManager(testConfig(), redisClient, zap.NewNop())
}

func testUpdate() *engine.Update {
	return &engine.Update{
		RunnerID: "runner-1",
		Analysis: models.AnalysisResult{
			Phase:         models.PhaseMidStance,
			FootStrike:    models.StrikeMidfoot,
			Abnormalities: []models.Abnormality{models.CadenceIrregularity},
			Scores:        models.NewScores(80, 90, 70),
			Confidence:    0.88,
		},
		Suggestions: []models.Suggestion{
			models.NewSuggestion(models.SuggestionInfo, "Try raising your cadence.", 3, models.CadenceIrregularity, 0.9),
		},
		Timestamp: time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC),
	}
}

func TestCacheManager_StoreAndLatest(t *testing.T) {
	mr, redisClient, cache := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, testUpdate()))

	got, err := cache.Latest(ctx, "runner-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseMidStance, got.Analysis.Phase)
	assert.Equal(t, []models.Abnormality{models.CadenceIrregularity}, got.Analysis.Abnormalities)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, 3, got.Suggestions[0].Priority)

	ttl := mr.TTL("gait:runner:runner-1:latest")
	assert.Equal(t, 30*time.Second, ttl)

	entries, err := redisClient.XRange(ctx, "gait:analysis:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var streamed engine.Update
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &streamed))
	assert.Equal(t, "runner-1", streamed.RunnerID)
}

func TestCacheManager_LatestMissing(t *testing.T) {
	_, _, cache := setupTestRedis(t)

	_, err := cache.Latest(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoCachedUpdate)
}

func TestCacheManager_Expiry(t *testing.T) {
	mr, _, cache := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, testUpdate()))
	mr.FastForward(31 * time.Second)

	_, err := cache.Latest(ctx, "runner-1")
	assert.ErrorIs(t, err, ErrNoCachedUpdate)
}

func TestCacheManager_OnUpdateSurvivesOutage(t *testing.T) {
	mr, _, cache := setupTestRedis(t)
	mr.SetError("LOADING redis is loading")

	assert.NotPanics(t, func() { cache.OnUpdate(testUpdate()) })
}
