package analytics

import (
	"bodycomp/internal/measurement"
)

// Metric names a scalar tracked by the summary cards.
type Metric string

const (
	MetricWeight         Metric = "weight"
	MetricBMI            Metric = "bmi"
	MetricBodyFatPct     Metric = "body_fat_pct"
	MetricSkeletalMuscle Metric = "skeletal_muscle_mass"
	MetricFatMass        Metric = "fat_mass"
	MetricScore          Metric = "score"
)

// TrackedMetrics is the fixed set ComputeDeltas reports on.
var TrackedMetrics = []Metric{
	MetricWeight,
	MetricBMI,
	MetricBodyFatPct,
	MetricSkeletalMuscle,
	MetricFatMass,
	MetricScore,
}

// Direction is the sign of a delta. Whether a direction is desirable is left
// to the caller.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionFlat    Direction = "flat"
	DirectionUnknown Direction = "unknown"
)

// TrendDelta is current minus previous for one metric. Delta is nil when
// either side is absent.
type TrendDelta struct {
	Metric   Metric   `json:"metric"`
	Current  *float64 `json:"current"`
	Previous *float64 `json:"previous"`
	Delta    *float64 `json:"delta"`
}

func (d TrendDelta) Available() bool { return d.Delta != nil }

func (d TrendDelta) Direction() Direction {
	switch {
	case d.Delta == nil:
		return DirectionUnknown
	case *d.Delta > 0:
		return DirectionUp
	case *d.Delta < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Deltas maps each tracked metric to its delta.
type Deltas map[Metric]TrendDelta

// MetricValue reads a tracked metric from a record, nil when absent.
func MetricValue(rec *measurement.Record, m Metric) *float64 {
	if rec == nil {
		return nil
	}
	switch m {
	case MetricWeight:
		if rec.Composition != nil {
			return rec.Composition.Weight
		}
	case MetricFatMass:
		if rec.Composition != nil {
			return rec.Composition.FatMass
		}
	case MetricSkeletalMuscle:
		if rec.Composition != nil {
			return rec.Composition.SkeletalMuscleMass
		}
	case MetricBMI:
		if rec.Indices != nil {
			return rec.Indices.BMI
		}
	case MetricBodyFatPct:
		if rec.Indices != nil {
			return rec.Indices.BodyFatPct
		}
	case MetricScore:
		if rec.Score != nil {
			return ptr(float64(*rec.Score))
		}
	}
	return nil
}

// ComputeDeltas returns a delta for every tracked metric. With a nil previous
// record all deltas are unavailable.
func ComputeDeltas(current, previous *measurement.Record) Deltas {
	out := make(Deltas, len(TrackedMetrics))
	for _, m := range TrackedMetrics {
		d := TrendDelta{Metric: m, Current: MetricValue(current, m)}
		if previous != nil {
			d.Previous = MetricValue(previous, m)
		}
		if d.Current != nil && d.Previous != nil {
			diff := decFromFloat(*d.Current).Sub(decFromFloat(*d.Previous))
			d.Delta = ptr(decToFloat(diff))
		}
		out[m] = d
	}
	return out
}
