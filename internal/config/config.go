package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stride-coach/common/config"
)

// Config is the stride-coach service configuration.
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	HTTP struct {
		Addr            string // listen address, e.g. ":8080"
		ShutdownTimeout time.Duration
	}

	// Analysis engine
	Engine struct {
		RunnerID           string
		UseInference       bool
		UseRules           bool
		UsePersonalization bool
		Debug              bool
		BufferCapacity     int
		MinSamples         int
		TickInterval       time.Duration
	}

	// Model serving endpoint (used when Engine.UseInference is set)
	Model struct {
		BaseURL          string // empty selects the in-process stub model
		Timeout          time.Duration
		RetryCount       int
		GaitCycleModel   string
		AbnormalityModel string
		StrideModel      string
	}

	Topics struct {
		Samples  string // MQTT topic pattern, "{runner_id}" is replaced
		Analysis string // updates are published here, empty disables
	}

	// Redis Streams sample ingest (requires Redis)
	Stream struct {
		Samples       string // "gait:samples:stream", empty disables
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int64
		Block         time.Duration
	}

	Cache struct {
		LatestKeyPrefix string // "gait:runner:"
		LatestSuffix    string // ":latest"
		LatestTTL       time.Duration
		Stream          string // "gait:analysis:stream"
		StreamMaxLen    int64
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "stride_coach",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "stride-coach",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Engine.RunnerID = getEnv("ENGINE_RUNNER_ID", "default")
	cfg.Engine.UseInference = getEnvBool("ENGINE_USE_INFERENCE", false)
	cfg.Engine.UseRules = getEnvBool("ENGINE_USE_RULES", true)
	cfg.Engine.UsePersonalization = getEnvBool("ENGINE_USE_PERSONALIZATION", true)
	cfg.Engine.Debug = getEnvBool("ENGINE_DEBUG", false)
	cfg.Engine.BufferCapacity = getEnvInt("ENGINE_BUFFER_CAPACITY", 100)
	cfg.Engine.MinSamples = getEnvInt("ENGINE_MIN_SAMPLES", 5)
	cfg.Engine.TickInterval = getEnvDuration("ENGINE_TICK_INTERVAL", time.Second)

	cfg.Model.BaseURL = getEnv("MODEL_BASE_URL", "")
	cfg.Model.Timeout = getEnvDuration("MODEL_TIMEOUT", 2*time.Second)
	cfg.Model.RetryCount = getEnvInt("MODEL_RETRY_COUNT", 1)
	cfg.Model.GaitCycleModel = getEnv("MODEL_GAIT_CYCLE", "gait_cycle")
	cfg.Model.AbnormalityModel = getEnv("MODEL_ABNORMALITY", "abnormality_detection")
	cfg.Model.StrideModel = getEnv("MODEL_STRIDE", "stride_analysis")

	cfg.Topics.Samples = getEnv("MQTT_TOPIC_SAMPLES", "gait/{runner_id}/samples")
	cfg.Topics.Analysis = getEnv("MQTT_TOPIC_ANALYSIS", "gait/{runner_id}/analysis")

	cfg.Stream.Samples = getEnv("STREAM_SAMPLES", "gait:samples:stream")
	cfg.Stream.ConsumerGroup = getEnv("STREAM_CONSUMER_GROUP", "stride-coach")
	cfg.Stream.ConsumerName = getEnv("STREAM_CONSUMER_NAME", "stride-coach-1")
	cfg.Stream.BatchSize = int64(getEnvInt("STREAM_BATCH_SIZE", 50))
	cfg.Stream.Block = getEnvDuration("STREAM_BLOCK", 2*time.Second)

	cfg.Cache.LatestKeyPrefix = getEnv("CACHE_LATEST_PREFIX", "gait:runner:")
	cfg.Cache.LatestSuffix = ":latest"
	cfg.Cache.LatestTTL = getEnvDuration("CACHE_LATEST_TTL", 30*time.Second)
	cfg.Cache.Stream = getEnv("CACHE_STREAM", "gait:analysis:stream")
	cfg.Cache.StreamMaxLen = int64(getEnvInt("CACHE_STREAM_MAXLEN", 10000))

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.RunnerID == "" {
		return fmt.Errorf("ENGINE_RUNNER_ID must not be empty")
	}
	if !c.Engine.UseRules && !c.Engine.UseInference {
		return fmt.Errorf("at least one of ENGINE_USE_RULES and ENGINE_USE_INFERENCE must be enabled")
	}
	if c.Engine.MinSamples <= 0 || c.Engine.BufferCapacity < c.Engine.MinSamples {
		return fmt.Errorf("invalid buffer settings: capacity=%d min_samples=%d",
			c.Engine.BufferCapacity, c.Engine.MinSamples)
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("ENGINE_TICK_INTERVAL must be positive")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
