package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"stride-coach/common/database"
	mqttcommon "stride-coach/common/mqtt"
	rediscommon "stride-coach/common/redis"
	"stride-coach/internal/config"
	"stride-coach/internal/consumer"
	"stride-coach/internal/engine"
	httpapi "stride-coach/internal/http"
	"stride-coach/internal/inference"
	"stride-coach/internal/repository"
)

// GaitService wires storage, transport and the analysis engine for one runner.
type GaitService struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttcommon.Client

	controller *engine.Controller
	cache      *consumer.CacheManager
	consumer   *consumer.MQTTConsumer
	publisher  *consumer.MQTTPublisher
	stream     *consumer.StreamConsumer
	hub        *httpapi.Hub
	server     *http.Server

	mu       sync.Mutex
	listener net.Listener
	unsubs   []func()
	wg       sync.WaitGroup
}

// NewGaitService connects the enabled backends and builds the components.
func NewGaitService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*GaitService, error) {
	s := &GaitService{config: cfg, logger: logger}

	var profiles engine.ProfileStore
	var sessions engine.SessionStore
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		if err := repository.EnsureSchema(ctx, db); err != nil {
			s.closeBackends()
			return nil, err
		}
		profiles = repository.NewProfileRepository(db, logger)
		sessions = repository.NewSessionRepository(db, logger)
	} else {
		logger.Info("Database disabled, using in-memory stores")
		profiles = repository.NewMemoryProfileRepo()
		sessions = repository.NewMemorySessionRepo()
	}

	if cfg.Redis.Enabled {
		redisClient, err := rediscommon.Connect(ctx, &cfg.Redis)
		if err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redis = redisClient
		s.cache = consumer.NewCacheManager(cfg, redisClient, logger)
	}

	var model inference.Model
	if cfg.Engine.UseInference {
		model = newModel(cfg, logger)
	}

	s.controller = engine.NewController(engine.Dependencies{
		Model:    model,
		Profiles: profiles,
		Sessions: sessions,
	}, logger)

	if s.redis != nil && cfg.Stream.Samples != "" {
		s.stream = consumer.NewStreamConsumer(cfg, s.redis, s.controller, logger)
	}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
		}
		s.mqttClient = mqttClient
		s.consumer = consumer.NewMQTTConsumer(cfg, mqttClient, s.controller, logger)
		if cfg.Topics.Analysis != "" {
			s.publisher = consumer.NewMQTTPublisher(cfg, mqttClient, logger)
		}
	}

	s.hub = httpapi.NewHub(logger)

	var latest httpapi.LatestCache
	if s.cache != nil {
		latest = s.cache
	}
	router := httpapi.NewRouter(logger)
	router.RegisterGaitRoutes(httpapi.NewGaitHandler(s.controller, latest, logger))
	router.RegisterWebSocketRoutes(s.hub)
	s.server = &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	return s, nil
}

func newModel(cfg *config.Config, logger *zap.Logger) inference.Model {
	if cfg.Model.BaseURL == "" {
		logger.Warn("MODEL_BASE_URL not set, using stub gait model")
		return inference.NewStubModel()
	}
	return inference.NewServingModel(inference.ServingConfig{
		BaseURL:          cfg.Model.BaseURL,
		Timeout:          cfg.Model.Timeout,
		RetryCount:       cfg.Model.RetryCount,
		GaitCycleModel:   cfg.Model.GaitCycleModel,
		AbnormalityModel: cfg.Model.AbnormalityModel,
		StrideModel:      cfg.Model.StrideModel,
	}, logger)
}

func (s *GaitService) engineConfig() engine.Config {
	e := s.config.Engine
	return engine.Config{
		RunnerID:           e.RunnerID,
		UseInference:       e.UseInference,
		UseRules:           e.UseRules,
		UsePersonalization: e.UsePersonalization,
		Debug:              e.Debug,
		BufferCapacity:     e.BufferCapacity,
		MinSamples:         e.MinSamples,
		TickInterval:       e.TickInterval,
	}
}

// Controller exposes the engine controller.
func (s *GaitService) Controller() *engine.Controller { return s.controller }

// Addr returns the HTTP listen address once started.
func (s *GaitService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start initializes the engine and launches the background loops. It returns
// once everything is running; the loops stop when ctx is cancelled.
func (s *GaitService) Start(ctx context.Context) error {
	s.logger.Info("Starting gait service components")

	if err := s.controller.Initialize(ctx, s.engineConfig()); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs, s.controller.Subscribe(s.hub.OnUpdate))
	if s.cache != nil {
		s.unsubs = append(s.unsubs, s.controller.Subscribe(s.cache.OnUpdate))
	}
	if s.publisher != nil {
		s.unsubs = append(s.unsubs, s.controller.Subscribe(s.publisher.OnUpdate))
	}
	s.mu.Unlock()

	if err := s.controller.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.goRun("websocket hub", func() error {
		s.hub.Run(ctx)
		return nil
	})
	s.goRun("analysis loop", func() error {
		return s.controller.Run(ctx)
	})
	if s.consumer != nil {
		s.goRun("MQTT consumer", func() error {
			return s.consumer.Start(ctx)
		})
	}
	if s.stream != nil {
		s.goRun("stream consumer", func() error {
			return s.stream.Start(ctx)
		})
	}
	s.goRun("HTTP server", func() error {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.logger.Info("Gait service started successfully",
		zap.String("http_addr", ln.Addr().String()),
		zap.String("runner_id", s.config.Engine.RunnerID),
	)
	return nil
}

func (s *GaitService) goRun(name string, fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			s.logger.Error("Component stopped with error", zap.String("component", name), zap.Error(err))
		}
	}()
}

// Stop shuts the HTTP server down, disposes the engine and closes backends.
// The caller cancels the Start context first so the loops can exit.
func (s *GaitService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping gait service")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.HTTP.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if s.consumer != nil {
		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}

	s.mu.Lock()
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.mu.Unlock()

	if err := s.controller.Stop(); err != nil && !errors.Is(err, engine.ErrNotInitialized) {
		s.logger.Error("Error stopping engine", zap.Error(err))
	}
	if err := s.controller.Dispose(ctx); err != nil {
		s.logger.Error("Error disposing engine", zap.Error(err))
	}

	s.wg.Wait()
	s.closeBackends()

	s.logger.Info("Gait service stopped")
	return nil
}

func (s *GaitService) closeBackends() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redis != nil {
		if err := rediscommon.Close(s.redis); err != nil {
			s.logger.Warn("Error closing redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Warn("Error closing database", zap.Error(err))
		}
	}
}
