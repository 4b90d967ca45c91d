package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/engine"
	"stride-coach/internal/models"
)

func TestHub_BroadcastsUpdates(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	router := NewRouter(zap.NewNop())
	router.RegisterWebSocketRoutes(hub)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analysis"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.OnUpdate(&engine.Update{
		RunnerID: "runner-1",
		Analysis: models.AnalysisResult{Phase: models.PhaseMidSwing, Confidence: 0.88},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got engine.Update
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "runner-1", got.RunnerID)
	assert.Equal(t, models.PhaseMidSwing, got.Analysis.Phase)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
