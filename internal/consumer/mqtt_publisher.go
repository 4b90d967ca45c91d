package consumer

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stride-coach/internal/config"
	"stride-coach/internal/engine"
)

// Publisher is the part of the MQTT client the publisher needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher republishes engine updates on gait/{runner_id}/analysis so
// devices on the broker can show live feedback.
type MQTTPublisher struct {
	config     *config.Config
	mqttClient Publisher
	logger     *zap.Logger
	topic      string
}

// NewMQTTPublisher creates a publisher for the configured runner.
func NewMQTTPublisher(cfg *config.Config, mqttClient Publisher, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		config:     cfg,
		mqttClient: mqttClient,
		logger:     logger,
		topic:      strings.ReplaceAll(cfg.Topics.Analysis, "{runner_id}", cfg.Engine.RunnerID),
	}
}

// Topic returns the publish topic.
func (p *MQTTPublisher) Topic() string { return p.topic }

// Publish sends u as JSON. The latest update is retained.
func (p *MQTTPublisher) Publish(u *engine.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	return p.mqttClient.Publish(p.topic, p.config.MQTT.QoS, true, payload)
}

// OnUpdate is an engine subscriber. Broker failures are logged and dropped.
func (p *MQTTPublisher) OnUpdate(u *engine.Update) {
	if err := p.Publish(u); err != nil {
		p.logger.Warn("Failed to publish analysis update",
			zap.String("topic", p.topic),
			zap.Error(err),
		)
	}
}
