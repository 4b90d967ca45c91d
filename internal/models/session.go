package models

import "time"

// SessionMetrics are the averaged secondary metrics of a session.
type SessionMetrics struct {
	ContactTime         float64 `json:"contact_time"`
	FlightTime          float64 `json:"flight_time"`
	VerticalOscillation float64 `json:"vertical_oscillation"`
	ImpactForce         float64 `json:"impact_force"`
	PronationAngle      float64 `json:"pronation_angle"`
}

// SessionRecord is an append-only summary of one training run.
type SessionRecord struct {
	ID              string         `json:"id"`
	RunnerID        string         `json:"runner_id"`
	Date            time.Time      `json:"date"`
	Duration        int            `json:"duration"` // seconds
	Distance        float64        `json:"distance"` // km
	AvgCadence      float64        `json:"avg_cadence"`
	AvgStrideLength float64        `json:"avg_stride_length"`
	AvgOverallScore float64        `json:"avg_overall_score"`
	Abnormalities   []Abnormality  `json:"abnormalities"`
	Metrics         SessionMetrics `json:"metrics"`
}
