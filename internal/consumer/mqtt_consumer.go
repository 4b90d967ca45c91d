package consumer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	mqttcommon "stride-coach/common/mqtt"
	"stride-coach/internal/config"
)

// Subscriber is the part of the MQTT client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTConsumer feeds samples published on gait/{runner_id}/samples into the engine.
type MQTTConsumer struct {
	config     *config.Config
	mqttClient Subscriber
	sink       SampleSink
	logger     *zap.Logger
	topic      string
}

// NewMQTTConsumer creates a consumer for the configured runner.
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient Subscriber,
	sink SampleSink,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:     cfg,
		mqttClient: mqttClient,
		sink:       sink,
		logger:     logger,
		topic:      strings.ReplaceAll(cfg.Topics.Samples, "{runner_id}", cfg.Engine.RunnerID),
	}
}

// Topic returns the subscribed topic.
func (c *MQTTConsumer) Topic() string { return c.topic }

// Start subscribes and blocks until ctx is cancelled.
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.topic, c.config.MQTT.QoS, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to samples topic: %w", err)
	}

	c.logger.Info("MQTT consumer started", zap.String("topic", c.topic))

	<-ctx.Done()
	return nil
}

// Stop unsubscribes.
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	c.logger.Info("MQTT consumer stopped")
	return nil
}

func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	// gait/{runner_id}/samples
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	if parts[1] != c.config.Engine.RunnerID {
		return fmt.Errorf("unexpected runner in topic: %s", parts[1])
	}

	samples, err := DecodeSamples(payload, time.Now())
	if err != nil {
		return err
	}

	accepted, err := Ingest(c.sink, samples)
	if err != nil {
		c.logger.Warn("Rejected samples",
			zap.String("topic", topic),
			zap.Int("accepted", accepted),
			zap.Int("received", len(samples)),
			zap.Error(err),
		)
	}
	if accepted == 0 && err != nil {
		return fmt.Errorf("no samples accepted: %w", err)
	}
	return nil
}
