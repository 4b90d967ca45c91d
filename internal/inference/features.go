package inference

import (
	"math"

	"stride-coach/internal/models"
)

const (
	PhaseWindow         = 10
	AbnormalityWindow   = 20
	AbnormalityFeatures = 7
	MetricFeatures      = 15
	rollingWindow       = 10
)

// FeatureWindow is the model input derived from a sample window.
type FeatureWindow struct {
	// Phase holds the last <=10 acceleration triples, oldest first.
	Phase [][3]float64 `json:"phase"`
	// Abnormality is left-padded with zero rows when fewer than 20 samples exist.
	Abnormality [AbnormalityWindow][AbnormalityFeatures]float64 `json:"abnormality"`
	Metric      [MetricFeatures]float64                         `json:"metric"`
}

// ExtractFeatures builds the model input from window (oldest first).
// An empty window yields an all-zero feature set.
func ExtractFeatures(window []models.SensorSample) FeatureWindow {
	var fw FeatureWindow

	phase := tail(window, PhaseWindow)
	fw.Phase = make([][3]float64, len(phase))
	for i, s := range phase {
		a := s.Acceleration
		fw.Phase[i] = [3]float64{a.X, a.Y, a.Z}
	}

	abn := tail(window, AbnormalityWindow)
	offset := AbnormalityWindow - len(abn)
	for i, s := range abn {
		a, p := s.Acceleration, s.Pressure
		fw.Abnormality[offset+i] = [AbnormalityFeatures]float64{
			a.X, a.Y, a.Z, p.Forefoot, p.Midfoot, p.Rearfoot, p.Lateral,
		}
	}

	if len(window) == 0 {
		return fw
	}
	latest := window[len(window)-1]
	recent := tail(window, rollingWindow)

	maxZ, minZ := math.Inf(-1), math.Inf(1)
	var sumX, sumY, sumZ, sumLat float64
	for _, s := range recent {
		maxZ = math.Max(maxZ, s.Acceleration.Z)
		minZ = math.Min(minZ, s.Acceleration.Z)
		sumX += s.Acceleration.X
		sumY += s.Acceleration.Y
		sumZ += s.Acceleration.Z
		sumLat += s.Pressure.Lateral
	}
	n := float64(len(recent))

	a, p := latest.Acceleration, latest.Pressure
	fw.Metric = [MetricFeatures]float64{
		latest.Cadence, latest.StrideLength,
		a.X, a.Y, a.Z,
		p.Forefoot, p.Midfoot, p.Rearfoot, p.Lateral,
		maxZ, minZ,
		sumX / n, sumY / n, sumZ / n,
		sumLat / n,
	}
	return fw
}

func tail(window []models.SensorSample, n int) []models.SensorSample {
	if len(window) > n {
		return window[len(window)-n:]
	}
	return window
}
