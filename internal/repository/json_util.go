package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"stride-coach/internal/models"
)

func unmarshalJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func nonNilGoals(g []models.Goal) []models.Goal {
	if g == nil {
		return []models.Goal{}
	}
	return g
}

func nonNilAbnormalities(a []models.Abnormality) []models.Abnormality {
	if a == nil {
		return []models.Abnormality{}
	}
	return a
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
