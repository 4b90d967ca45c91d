package expert

import (
	"fmt"
	"sort"

	"stride-coach/internal/models"
)

// RuleContext is the mutable state threaded through one rule pass.
// It is created per Analyze call and never retained afterwards.
type RuleContext struct {
	// History is oldest first and ends with the sample under evaluation.
	History       []models.SensorSample
	Phase         models.GaitPhase
	FootStrike    models.FootStrikePattern
	Abnormalities []models.Abnormality
}

// Previous returns the sample before the current one.
func (c *RuleContext) Previous() (models.SensorSample, bool) {
	if len(c.History) < 2 {
		return models.SensorSample{}, false
	}
	return c.History[len(c.History)-2], true
}

// Recent returns at most the last n history samples.
func (c *RuleContext) Recent(n int) []models.SensorSample {
	if n >= len(c.History) {
		return c.History
	}
	return c.History[len(c.History)-n:]
}

// Flag adds a to the abnormality set.
func (c *RuleContext) Flag(a models.Abnormality) {
	for _, x := range c.Abnormalities {
		if x == a {
			return
		}
	}
	c.Abnormalities = append(c.Abnormalities, a)
}

// HasFlag reports whether a has been flagged during this pass.
func (c *RuleContext) HasFlag(a models.Abnormality) bool {
	for _, x := range c.Abnormalities {
		if x == a {
			return true
		}
	}
	return false
}

// Condition decides whether a rule fires for the current sample.
type Condition func(s models.SensorSample, ctx *RuleContext) bool

// Action runs when the condition holds. It may mutate ctx and may return a suggestion.
type Action func(s models.SensorSample, ctx *RuleContext) (*models.Suggestion, error)

// Rule is one biomechanics rule.
type Rule struct {
	ID          string
	Name        string
	Description string
	Priority    int
	Condition   Condition
	Action      Action
}

// RuleSet is an immutable rule sequence in evaluation order.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet orders rules by priority, highest first. Equal priorities keep declaration order.
func NewRuleSet(rules ...Rule) RuleSet {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return RuleSet{rules: ordered}
}

// Len returns the number of rules.
func (rs RuleSet) Len() int { return len(rs.rules) }

// IDs returns rule IDs in evaluation order.
func (rs RuleSet) IDs() []string {
	ids := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		ids[i] = r.ID
	}
	return ids
}

// RuleFault records a rule whose condition or action failed.
type RuleFault struct {
	RuleID string
	Err    error
}

func (f *RuleFault) Error() string {
	return fmt.Sprintf("rule %s failed: %v", f.RuleID, f.Err)
}

func (f *RuleFault) Unwrap() error { return f.Err }
