package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "stride-coach/common/redis"
	"stride-coach/internal/config"
)

const maxBackoff = 30 * time.Second

// StreamConsumer feeds samples from a Redis Stream into the engine through a
// consumer group. Each entry carries a "data" field holding one sample or an
// array of samples.
type StreamConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	sink        SampleSink
	logger      *zap.Logger
}

// NewStreamConsumer creates a stream consumer.
func NewStreamConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	sink SampleSink,
	logger *zap.Logger,
) *StreamConsumer {
	return &StreamConsumer{
		config:      cfg,
		redisClient: redisClient,
		sink:        sink,
		logger:      logger,
	}
}

// Start consumes until ctx is cancelled, backing off exponentially on read errors.
func (c *StreamConsumer) Start(ctx context.Context) error {
	sc := c.config.Stream
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, sc.Samples, sc.ConsumerGroup); err != nil {
		return err
	}

	c.logger.Info("Stream consumer started",
		zap.String("stream", sc.Samples),
		zap.String("consumer_group", sc.ConsumerGroup),
		zap.String("consumer_name", sc.ConsumerName),
	)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stream consumer stopped")
			return nil
		default:
		}

		if err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume stream",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
	}
}

func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	sc := c.config.Stream
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, sc.Samples, sc.ConsumerGroup, sc.ConsumerName, sc.BatchSize, sc.Block)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if err := c.processMessage(msg); err != nil {
			c.logger.Warn("Failed to process stream message",
				zap.String("stream_id", msg.ID),
				zap.Error(err),
			)
		}
		// acked even when processing failed
		ids = append(ids, msg.ID)
	}
	if err := rediscommon.Ack(ctx, c.redisClient, sc.Samples, sc.ConsumerGroup, ids...); err != nil {
		return fmt.Errorf("failed to ack messages: %w", err)
	}
	return nil
}

func (c *StreamConsumer) processMessage(msg rediscommon.StreamMessage) error {
	raw, ok := msg.Values["data"]
	if !ok {
		return fmt.Errorf("missing data field in message")
	}
	data, ok := raw.(string)
	if !ok {
		return fmt.Errorf("invalid data format in message")
	}

	samples, err := DecodeSamples([]byte(data), time.Now())
	if err != nil {
		return err
	}
	accepted, err := Ingest(c.sink, samples)
	if accepted == 0 && err != nil {
		return fmt.Errorf("no samples accepted: %w", err)
	}
	return nil
}
