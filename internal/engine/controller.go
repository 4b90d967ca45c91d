// Package engine owns the analysis pipeline lifecycle and the per-tick data flow:
// buffer snapshot, inference and rules, fusion, personalization, ranking and
// subscriber notification.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"stride-coach/internal/buffer"
	"stride-coach/internal/expert"
	"stride-coach/internal/fusion"
	"stride-coach/internal/inference"
	"stride-coach/internal/models"
	"stride-coach/internal/personalization"
	"stride-coach/internal/ranking"
)

// MaxSessionResults bounds the tick results kept for the running session.
const MaxSessionResults = 10000

// State is the controller lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateRunning       State = "running"
	StateStopped       State = "stopped"
	StateDisposed      State = "disposed"
)

// Dependencies are the external collaborators of a controller. All are optional.
type Dependencies struct {
	Model    inference.Model
	Rules    []expert.Rule // nil uses expert.DefaultRules
	Profiles ProfileStore
	Sessions SessionStore
	Clock    func() time.Time
}

// Update is emitted to subscribers after every successful tick.
type Update struct {
	RunnerID    string                `json:"runner_id"`
	Analysis    models.AnalysisResult `json:"analysis"`
	Suggestions []models.Suggestion   `json:"suggestions"`
	Timestamp   time.Time             `json:"timestamp"`
	Fallback    bool                  `json:"fallback,omitempty"`
}

// Status is a point-in-time view of the controller.
type Status struct {
	Initialized bool                  `json:"initialized"`
	Running     bool                  `json:"running"`
	BufferSize  int                   `json:"buffer_size"`
	State       State                 `json:"state"`
	ModelStatus inference.ModelStatus `json:"model_status"`
	RunnerID    string                `json:"runner_id"`
}

type subscriber struct {
	id int
	fn func(*Update)
}

// Controller runs the analysis pipeline for one runner.
type Controller struct {
	deps   Dependencies
	logger *zap.Logger

	// tickMu serializes ticks and session completion.
	tickMu sync.Mutex

	mu       sync.Mutex
	state    State
	cfg      Config
	buf      *buffer.SensorBuffer
	adapter  *inference.Adapter
	rules    *expert.Engine
	combiner *fusion.Combiner
	adjuster *personalization.Adjuster
	seed     expert.Seed
	last     *Update
	results  []models.AnalysisResult

	subMu  sync.Mutex
	subs   []subscriber
	nextID int

	metrics Metrics
}

// NewController creates an uninitialized controller.
func NewController(deps Dependencies, logger *zap.Logger) *Controller {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Controller{
		deps:   deps,
		logger: logger,
		state:  StateUninitialized,
	}
}

// Initialize wires the enabled components. Calling it again after success is a no-op.
func (c *Controller) Initialize(ctx context.Context, cfg Config) error {
	c.mu.Lock()
	switch c.state {
	case StateDisposed:
		c.mu.Unlock()
		return fmt.Errorf("%w: controller disposed", ErrInitialization)
	case StateUninitialized:
	default:
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	cfg = cfg.withDefaults()

	var adapter *inference.Adapter
	if cfg.UseInference {
		adapter = inference.NewAdapter(c.deps.Model, c.logger)
		if err := adapter.Load(ctx); err != nil {
			return fmt.Errorf("%w: failed to load model: %v", ErrInitialization, err)
		}
	}

	var rules *expert.Engine
	if cfg.UseRules {
		if c.deps.Rules != nil {
			rules = expert.NewEngine(expert.NewRuleSet(c.deps.Rules...), c.logger)
		} else {
			rules = expert.NewDefaultEngine(c.logger)
		}
	}

	profile := models.DefaultProfile(cfg.RunnerID)
	var sessions []models.SessionRecord
	if cfg.UsePersonalization {
		var err error
		if profile, err = c.loadProfile(ctx, cfg.RunnerID); err != nil {
			c.closeAdapter(adapter)
			return fmt.Errorf("%w: %v", ErrInitialization, err)
		}
		if sessions, err = c.loadSessions(ctx, cfg.RunnerID); err != nil {
			c.closeAdapter(adapter)
			return fmt.Errorf("%w: %v", ErrInitialization, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUninitialized {
		c.closeAdapter(adapter)
		if c.state == StateDisposed {
			return fmt.Errorf("%w: controller disposed", ErrInitialization)
		}
		return nil
	}
	c.cfg = cfg
	c.buf = buffer.New(cfg.BufferCapacity)
	c.adapter = adapter
	c.rules = rules
	c.combiner = fusion.NewCombiner(c.logger)
	c.adjuster = personalization.NewAdjuster(profile, sessions, c.logger)
	c.seed = expert.Seed{}
	c.state = StateInitialized

	c.logger.Info("Engine initialized",
		zap.String("runner_id", cfg.RunnerID),
		zap.Bool("use_inference", cfg.UseInference),
		zap.Bool("use_rules", cfg.UseRules),
		zap.Bool("use_personalization", cfg.UsePersonalization),
		zap.Int("session_count", len(sessions)),
	)
	return nil
}

func (c *Controller) loadProfile(ctx context.Context, runnerID string) (*models.RunnerProfile, error) {
	if c.deps.Profiles == nil {
		return models.DefaultProfile(runnerID), nil
	}
	p, err := c.deps.Profiles.Load(ctx, runnerID)
	if errors.Is(err, models.ErrProfileNotFound) {
		c.logger.Info("Runner profile not found, using default", zap.String("runner_id", runnerID))
		return models.DefaultProfile(runnerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (c *Controller) loadSessions(ctx context.Context, runnerID string) ([]models.SessionRecord, error) {
	if c.deps.Sessions == nil {
		return nil, nil
	}
	sessions, err := c.deps.Sessions.List(ctx, runnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return sessions, nil
}

func (c *Controller) closeAdapter(a *inference.Adapter) {
	if a == nil {
		return
	}
	if err := a.Close(); err != nil {
		c.logger.Warn("Failed to close gait model", zap.Error(err))
	}
}

// ready reports whether the controller accepts work. Caller holds c.mu.
func (c *Controller) ready() bool {
	return c.state == StateInitialized || c.state == StateRunning || c.state == StateStopped
}

// AddSample validates s and appends it to the buffer.
func (c *Controller) AddSample(s models.SensorSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready() {
		return ErrNotInitialized
	}
	if err := s.Validate(); err != nil {
		c.metrics.sample(false)
		return err
	}
	c.buf.Push(s)
	c.metrics.sample(true)
	return nil
}

// AnalyzeTick runs one pass of the pipeline over the current buffer.
// On ErrNoAnalysisAvailable the returned update carries the fallback result
// and subscribers are not notified.
func (c *Controller) AnalyzeTick(ctx context.Context) (*Update, error) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	start := time.Now()

	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if c.buf.Len() < c.cfg.MinSamples {
		size := c.buf.Len()
		c.mu.Unlock()
		c.metrics.tickSkipped()
		c.logger.Debug("Skipping analysis tick", zap.Int("buffer_size", size))
		return nil, ErrInsufficientData
	}
	window := c.buf.Snapshot()
	seed := c.seed
	cfg := c.cfg
	adapter, rules, combiner, adjuster := c.adapter, c.rules, c.combiner, c.adjuster
	c.mu.Unlock()

	latest := window[len(window)-1]

	var modelResult *models.PartialResult
	inferenceFailed := false
	if adapter != nil {
		p, err := adapter.Predict(ctx, window)
		if err != nil {
			inferenceFailed = true
			c.logger.Warn("Inference failed, continuing without model result", zap.Error(err))
		} else {
			modelResult = p
		}
	}

	var ruleResult *models.AnalysisResult
	var ruleSuggestions []models.Suggestion
	ruleFaults := 0
	if rules != nil {
		out, err := rules.Analyze(window, seed)
		if err != nil {
			c.logger.Warn("Rule analysis failed", zap.Error(err))
		} else {
			ruleResult = &out.Result
			ruleSuggestions = out.Suggestions
			ruleFaults = len(out.Faults)
		}
	}

	analysis, err := combiner.Combine(ruleResult, modelResult, latest)
	if err != nil {
		c.metrics.tickFailed(inferenceFailed)
		c.logger.Warn("No analysis source produced a result",
			zap.String("runner_id", cfg.RunnerID),
			zap.Error(err),
		)
		return &Update{
			RunnerID:    cfg.RunnerID,
			Analysis:    analysis,
			Suggestions: []models.Suggestion{},
			Timestamp:   c.deps.Clock(),
			Fallback:    true,
		}, err
	}

	var personal, history []models.Suggestion
	if cfg.UsePersonalization {
		analysis = adjuster.Personalize(analysis)
		personal = adjuster.Suggest(analysis)
		history = adjuster.HistorySuggestions()
	}

	update := &Update{
		RunnerID:    cfg.RunnerID,
		Analysis:    analysis,
		Suggestions: ranking.Rank(ruleSuggestions, personal, history),
		Timestamp:   c.deps.Clock(),
	}

	c.mu.Lock()
	c.seed = expert.Seed{Phase: analysis.Phase, FootStrike: analysis.FootStrike}
	c.last = update
	if len(c.results) == MaxSessionResults {
		copy(c.results, c.results[1:])
		c.results = c.results[:MaxSessionResults-1]
	}
	c.results = append(c.results, analysis.Clone())
	c.mu.Unlock()

	c.metrics.tickCompleted(time.Since(start), inferenceFailed, ruleFaults)
	if cfg.Debug {
		c.logger.Debug("Analysis tick completed",
			zap.String("phase", string(analysis.Phase)),
			zap.String("foot_strike", string(analysis.FootStrike)),
			zap.Float64("overall", analysis.Scores.Overall),
			zap.Float64("confidence", analysis.Confidence),
			zap.Int("suggestions", len(update.Suggestions)),
		)
	}

	c.notify(update)
	return update, nil
}

// Start enables periodic ticks driven by Run.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRunning:
		return nil
	case StateInitialized, StateStopped:
		c.state = StateRunning
		c.logger.Info("Engine started", zap.String("runner_id", c.cfg.RunnerID))
		return nil
	default:
		return ErrNotInitialized
	}
}

// Stop disables periodic ticks. An in-flight tick completes.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateStopped, StateInitialized:
		return nil
	case StateRunning:
		c.state = StateStopped
		c.logger.Info("Engine stopped", zap.String("runner_id", c.cfg.RunnerID))
		return nil
	default:
		return ErrNotInitialized
	}
}

// Dispose releases the model and clears all state. Later calls are no-ops.
func (c *Controller) Dispose(ctx context.Context) error {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return nil
	}
	adapter := c.adapter
	if c.buf != nil {
		c.buf.Reset()
	}
	c.state = StateDisposed
	c.adapter = nil
	c.rules = nil
	c.adjuster = nil
	c.last = nil
	c.results = nil
	c.seed = expert.Seed{}
	c.mu.Unlock()

	c.subMu.Lock()
	c.subs = nil
	c.subMu.Unlock()

	if adapter != nil {
		if err := adapter.Close(); err != nil {
			return fmt.Errorf("failed to close model: %w", err)
		}
	}
	c.logger.Info("Engine disposed")
	return nil
}

// Status returns the current lifecycle view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		Initialized: c.ready(),
		Running:     c.state == StateRunning,
		State:       c.state,
		ModelStatus: inference.StatusInactive,
		RunnerID:    c.cfg.RunnerID,
	}
	if c.buf != nil {
		st.BufferSize = c.buf.Len()
	}
	if c.adapter != nil {
		st.ModelStatus = c.adapter.Status()
	}
	return st
}

// Subscribe registers fn for updates and returns a func that removes it.
func (c *Controller) Subscribe(fn func(*Update)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Controller) notify(u *Update) {
	c.subMu.Lock()
	subs := append([]subscriber(nil), c.subs...)
	c.subMu.Unlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("Subscriber panicked", zap.Any("panic", r))
				}
			}()
			s.fn(u)
		}()
	}
}

// LastUpdate returns the most recent successful update, or nil.
func (c *Controller) LastUpdate() *Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// MetricsSnapshot returns the controller counters.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}
