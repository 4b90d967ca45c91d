package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/config"
	"stride-coach/internal/engine"
)

const sampleJSON = `{"acceleration":{"x":0.1,"y":0.2,"z":1.0},
	"pressure":{"forefoot":1.2,"midfoot":0.9,"rearfoot":0.9,"lateral":0.3},
	"cadence":175,"stride_length":110}`

func testConfig(t *testing.T) *config.Config {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = time.Second
	cfg.Engine.RunnerID = "runner-1"
	cfg.Engine.TickInterval = 10 * time.Millisecond
	cfg.Database.Enabled = false
	cfg.MQTT.Enabled = false
	cfg.Redis.Enabled = false
	return cfg
}

func TestGaitService_EndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Engine.UseInference = true
	cfg.Stream.Block = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	svc, err := NewGaitService(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, svc.Start(ctx))

	st := svc.Controller().Status()
	assert.Equal(t, engine.StateRunning, st.State)

	base := "http://" + svc.Addr()
	batch := "[" + strings.Repeat(sampleJSON+",", 4) + sampleJSON + "]"
	resp, err := http.Post(base+"/api/v1/samples", "application/json", strings.NewReader(batch))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return mr.Exists("gait:runner:runner-1:latest")
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(base + "/api/v1/analysis/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, svc.Stop(context.Background()))
	assert.Equal(t, engine.StateDisposed, svc.Controller().Status().State)
}

func TestGaitService_RedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := NewGaitService(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
