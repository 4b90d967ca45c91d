package expert

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"stride-coach/internal/buffer"
	"stride-coach/internal/models"
)

// Confidence is the fixed confidence of rule-based results.
const Confidence = 0.88

// Seed carries state from the previous tick into the next rule pass.
// Zero values fall back to mid stance and midfoot.
type Seed struct {
	Phase      models.GaitPhase
	FootStrike models.FootStrikePattern
}

// Output is the result of one rule pass.
type Output struct {
	Result      models.AnalysisResult
	Suggestions []models.Suggestion // priority descending
	Faults      []*RuleFault
}

// Engine evaluates a fixed rule set against a sample window.
// It holds no per-tick state and is safe for concurrent use.
type Engine struct {
	rules  RuleSet
	logger *zap.Logger
}

// NewEngine creates an engine over rules.
func NewEngine(rules RuleSet, logger *zap.Logger) *Engine {
	return &Engine{rules: rules, logger: logger}
}

// NewDefaultEngine creates an engine over DefaultRules.
func NewDefaultEngine(logger *zap.Logger) *Engine {
	return NewEngine(NewRuleSet(DefaultRules()...), logger)
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() RuleSet { return e.rules }

// Analyze runs every rule once, in order, against the last sample of window.
// window is oldest first and must not be empty.
func (e *Engine) Analyze(window []models.SensorSample, seed Seed) (*Output, error) {
	if len(window) == 0 {
		return nil, buffer.ErrInsufficientData
	}
	latest := window[len(window)-1]

	ctx := &RuleContext{
		History:       window,
		Phase:         seed.Phase,
		FootStrike:    seed.FootStrike,
		Abnormalities: []models.Abnormality{},
	}
	if ctx.Phase == "" {
		ctx.Phase = models.PhaseMidStance
	}
	if ctx.FootStrike == "" {
		ctx.FootStrike = models.StrikeMidfoot
	}

	out := &Output{Suggestions: []models.Suggestion{}}
	for _, rule := range e.rules.rules {
		suggestion, fired, err := e.apply(rule, latest, ctx)
		if err != nil {
			fault := &RuleFault{RuleID: rule.ID, Err: err}
			e.logger.Warn("Rule execution failed",
				zap.String("rule_id", rule.ID),
				zap.Error(err),
			)
			out.Faults = append(out.Faults, fault)
			continue
		}
		if !fired {
			continue
		}
		e.logger.Debug("Rule fired", zap.String("rule_id", rule.ID), zap.String("phase", string(ctx.Phase)))
		if suggestion != nil {
			out.Suggestions = append(out.Suggestions, *suggestion)
		}
	}

	sort.SliceStable(out.Suggestions, func(i, j int) bool {
		return out.Suggestions[i].Priority > out.Suggestions[j].Priority
	})

	out.Result = models.AnalysisResult{
		Phase:         ctx.Phase,
		FootStrike:    ctx.FootStrike,
		Abnormalities: append([]models.Abnormality{}, ctx.Abnormalities...),
		Metrics:       ComputeMetrics(latest, ctx.History),
		Scores:        ComputeScores(latest, ctx),
		Confidence:    Confidence,
	}
	return out, nil
}

// apply isolates a single rule so that a failing or panicking rule cannot abort the pass.
func (e *Engine) apply(rule Rule, s models.SensorSample, ctx *RuleContext) (suggestion *models.Suggestion, fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			suggestion, fired = nil, false
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if rule.Condition == nil || !rule.Condition(s, ctx) {
		return nil, false, nil
	}
	if rule.Action == nil {
		return nil, true, nil
	}
	suggestion, err = rule.Action(s, ctx)
	if err != nil {
		return nil, false, err
	}
	return suggestion, true, nil
}
