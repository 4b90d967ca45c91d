package personalization

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"stride-coach/internal/models"
)

const (
	// WindowCapacity is the number of personalized results kept for smoothing.
	WindowCapacity = 100
	// MinSmoothingSamples is the number of prior results needed before smoothing applies.
	MinSmoothingSamples = 10

	beginnerBoost       = 1.1
	advancedPenalty     = 0.95
	knownIssueBoost     = 1.15
	knownIssueCap       = 0.98
	outlierSigmas       = 2.0
	outlierConfidence   = 0.85
	outlierFloor        = 0.5
	outlierCurrentShare = 0.7
)

// Adjuster rescales results for one runner and produces personal suggestions.
// Methods are safe for concurrent use; the engine calls Personalize from one tick at a time.
type Adjuster struct {
	logger *zap.Logger

	mu       sync.RWMutex
	profile  models.RunnerProfile
	sessions []models.SessionRecord // most recent first
	window   []models.AnalysisResult
}

// NewAdjuster creates an adjuster. A nil profile uses models.DefaultProfile.
func NewAdjuster(profile *models.RunnerProfile, sessions []models.SessionRecord, logger *zap.Logger) *Adjuster {
	if profile == nil {
		profile = models.DefaultProfile("default")
	}
	return &Adjuster{
		logger:   logger,
		profile:  copyProfile(*profile),
		sessions: append([]models.SessionRecord(nil), sessions...),
		window:   make([]models.AnalysisResult, 0, WindowCapacity),
	}
}

// Profile returns a copy of the current profile.
func (a *Adjuster) Profile() models.RunnerProfile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyProfile(a.profile)
}

// SetProfile replaces the profile.
func (a *Adjuster) SetProfile(p models.RunnerProfile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile = copyProfile(p)
}

// Sessions returns recorded sessions, most recent first.
func (a *Adjuster) Sessions() []models.SessionRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.SessionRecord(nil), a.sessions...)
}

// WindowLen returns the number of results in the smoothing window.
func (a *Adjuster) WindowLen() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.window)
}

// Personalize applies profile rescoring and then outlier smoothing against
// the previous results. The returned result is appended to the window.
func (a *Adjuster) Personalize(res models.AnalysisResult) models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := res.Clone()
	a.applyProfile(&out)
	a.applySmoothing(&out)

	if len(a.window) == WindowCapacity {
		copy(a.window, a.window[1:])
		a.window = a.window[:WindowCapacity-1]
	}
	a.window = append(a.window, out.Clone())
	return out
}

func (a *Adjuster) applyProfile(r *models.AnalysisResult) {
	switch a.profile.Experience {
	case models.ExperienceBeginner:
		r.Scores.Overall = math.Min(100, r.Scores.Overall*beginnerBoost)
	case models.ExperienceAdvanced:
		r.Scores.Overall *= advancedPenalty
	}
	for _, issue := range a.profile.KnownIssues {
		if r.Has(issue) {
			r.Confidence = math.Min(knownIssueCap, r.Confidence*knownIssueBoost)
		}
	}
}

func (a *Adjuster) applySmoothing(r *models.AnalysisResult) {
	if len(a.window) < MinSmoothingSamples {
		return
	}
	recent := a.window[len(a.window)-MinSmoothingSamples:]
	values := make([]float64, len(recent))
	for i, p := range recent {
		values[i] = p.Scores.Overall
	}
	mean, std := meanStd(values)

	if math.Abs(r.Scores.Overall-mean) > outlierSigmas*std {
		a.logger.Debug("Smoothing outlier score",
			zap.Float64("overall", r.Scores.Overall),
			zap.Float64("mean", mean),
			zap.Float64("std", std),
		)
		r.Confidence = math.Max(outlierFloor, r.Confidence*outlierConfidence)
		r.Scores.Overall = r.Scores.Overall*outlierCurrentShare + mean*(1-outlierCurrentShare)
	}
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func copyProfile(p models.RunnerProfile) models.RunnerProfile {
	out := p
	if p.Goals != nil {
		out.Goals = append(make([]models.Goal, 0, len(p.Goals)), p.Goals...)
	}
	if p.KnownIssues != nil {
		out.KnownIssues = append(make([]models.Abnormality, 0, len(p.KnownIssues)), p.KnownIssues...)
	}
	if p.TrainingHistory.LastSessionDate != nil {
		d := *p.TrainingHistory.LastSessionDate
		out.TrainingHistory.LastSessionDate = &d
	}
	return out
}
