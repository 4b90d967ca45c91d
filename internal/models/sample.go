package models

import "math"

// Vector3 is a 3-axis acceleration reading in g.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PressureZones holds normalized plantar pressure per zone.
type PressureZones struct {
	Forefoot float64 `json:"forefoot"`
	Midfoot  float64 `json:"midfoot"`
	Rearfoot float64 `json:"rearfoot"`
	Lateral  float64 `json:"lateral"`
}

// Longitudinal is forefoot + midfoot + rearfoot.
func (p PressureZones) Longitudinal() float64 {
	return p.Forefoot + p.Midfoot + p.Rearfoot
}

// Total includes the lateral zone.
func (p PressureZones) Total() float64 {
	return p.Longitudinal() + p.Lateral
}

// SensorSample is one timestamped reading. Values are copied, never shared.
type SensorSample struct {
	Timestamp    int64         `json:"timestamp"` // ms since epoch
	Acceleration Vector3       `json:"acceleration"`
	Pressure     PressureZones `json:"pressure"`
	Cadence      float64       `json:"cadence"`       // steps/min
	StrideLength float64       `json:"stride_length"` // cm
}

// Validate rejects non-finite or negative readings.
func (s SensorSample) Validate() error {
	values := []float64{
		s.Acceleration.X, s.Acceleration.Y, s.Acceleration.Z,
		s.Pressure.Forefoot, s.Pressure.Midfoot, s.Pressure.Rearfoot, s.Pressure.Lateral,
		s.Cadence, s.StrideLength,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidSample
		}
	}
	if s.Cadence < 0 || s.StrideLength < 0 {
		return ErrInvalidSample
	}
	p := s.Pressure
	if p.Forefoot < 0 || p.Midfoot < 0 || p.Rearfoot < 0 || p.Lateral < 0 {
		return ErrInvalidSample
	}
	return nil
}
