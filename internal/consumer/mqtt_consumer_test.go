package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqttcommon "stride-coach/common/mqtt"
	"stride-coach/internal/models"
)

type fakeSubscriber struct {
	mu           sync.Mutex
	handlers     map[string]mqttcommon.MessageHandler
	qos          byte
	unsubscribed []string
	subErr       error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: map[string]mqttcommon.MessageHandler{}}
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return f.subErr
	}
	f.handlers[topic] = handler
	f.qos = qos
	return nil
}

func (f *fakeSubscriber) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return nil
}

func (f *fakeSubscriber) handler(topic string) mqttcommon.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[topic]
}

type sinkRecorder struct {
	mu      sync.Mutex
	samples []models.SensorSample
}

func (s *sinkRecorder) AddSample(sample models.SensorSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return nil
}

func startConsumer(t *testing.T) (*fakeSubscriber, *sinkRecorder, *MQTTConsumer, context.CancelFunc) {
	sub := newFakeSubscriber()
	sink := &sinkRecorder{}
	c := NewMQTTConsumer(testConfig(), sub, sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	require.Eventually(t, func() bool { return sub.handler(c.Topic()) != nil }, time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return sub, sink, c, cancel
}

func TestMQTTConsumer_Topic(t *testing.T) {
	c := NewMQTTConsumer(testConfig(), newFakeSubscriber(), &sinkRecorder{}, zap.NewNop())
	assert.Equal(t, "gait/runner-1/samples", c.Topic())
}

func TestMQTTConsumer_SingleAndBatch(t *testing.T) {
	sub, sink, c, _ := startConsumer(t)
	h := sub.handler(c.Topic())
	assert.Equal(t, byte(1), sub.qos)

	single := `{"timestamp":1000,"acceleration":{"x":0.1,"y":0.2,"z":1.0},
		"pressure":{"forefoot":1.2,"midfoot":0.9,"rearfoot":0.9,"lateral":0.3},
		"cadence":175,"stride_length":110}`
	require.NoError(t, h(c.Topic(), []byte(single)))

	batch := `[{"timestamp":1001,"cadence":176,"stride_length":111},
		{"timestamp":1002,"cadence":-3,"stride_length":111},
		{"cadence":177,"stride_length":112}]`
	require.NoError(t, h(c.Topic(), []byte(batch)))

	require.Len(t, sink.samples, 3)
	assert.Equal(t, 0.9, sink.samples[0].Pressure.Midfoot)
	assert.Equal(t, int64(1001), sink.samples[1].Timestamp)
	assert.NotZero(t, sink.samples[2].Timestamp, "missing timestamp filled on receipt")
}

func TestMQTTConsumer_Rejections(t *testing.T) {
	sub, sink, c, _ := startConsumer(t)
	h := sub.handler(c.Topic())

	assert.Error(t, h(c.Topic(), []byte(`{not json`)))
	assert.Error(t, h("gait/other-runner/samples", []byte(`{"cadence":170}`)))
	assert.Error(t, h("bad-topic", []byte(`{"cadence":170}`)))
	err := h(c.Topic(), []byte(`{"cadence":-1}`))
	assert.ErrorIs(t, err, models.ErrInvalidSample)
	assert.Empty(t, sink.samples)
}

func TestMQTTConsumer_StopUnsubscribes(t *testing.T) {
	sub, _, c, _ := startConsumer(t)
	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, []string{"gait/runner-1/samples"}, sub.unsubscribed)
}

func TestMQTTConsumer_SubscribeError(t *testing.T) {
	sub := newFakeSubscriber()
	sub.subErr = errors.New("not connected")
	c := NewMQTTConsumer(testConfig(), sub, &sinkRecorder{}, zap.NewNop())

	assert.Error(t, c.Start(context.Background()))
}

func TestDecodeSamples_Empty(t *testing.T) {
	_, err := DecodeSamples([]byte("  "), time.Now())
	assert.Error(t, err)
}
