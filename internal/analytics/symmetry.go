package analytics

import (
	"encoding/json"
	"math"

	"bodycomp/internal/measurement"
)

// SegmentData describes one body segment. Percentages are 0 when Total is 0.
type SegmentData struct {
	Muscle    float64 `json:"muscle"`
	Fat       float64 `json:"fat"`
	Total     float64 `json:"total"`
	MusclePct float64 `json:"muscle_percentage"`
	FatPct    float64 `json:"fat_percentage"`
}

// SegmentTable holds SegmentData for all five segments, indexed by segment.
type SegmentTable [measurement.SegmentCount]SegmentData

func (t SegmentTable) Get(s measurement.Segment) SegmentData {
	if s < 0 || int(s) >= len(t) {
		return SegmentData{}
	}
	return t[s]
}

// MarshalJSON renders the table keyed by segment name.
func (t SegmentTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]SegmentData, len(t))
	for _, s := range measurement.Segments() {
		out[s.String()] = t[s]
	}
	return json.Marshal(out)
}

// NewSegmentData derives totals and shares from the two masses.
func NewSegmentData(muscle, fat float64) SegmentData {
	d := SegmentData{Muscle: muscle, Fat: fat, Total: muscle + fat}
	if d.Total > 0 {
		d.MusclePct = muscle / d.Total * 100
		d.FatPct = fat / d.Total * 100
	}
	return d
}

// AnalyzeSegments builds the segment table. The bool is false when the record
// carries no segmental data at all; individual missing masses count as 0.
func AnalyzeSegments(rec *measurement.Record) (SegmentTable, bool) {
	var table SegmentTable
	if rec == nil || rec.Segmental == nil {
		return table, false
	}
	seg := rec.Segmental
	if seg.Lean == nil && seg.Fat == nil {
		return table, false
	}
	for _, s := range measurement.Segments() {
		table[s] = NewSegmentData(
			valueOr(seg.At(s, measurement.Muscle), 0),
			valueOr(seg.At(s, measurement.Fat), 0),
		)
	}
	return table, true
}

// Symmetry compares a left and right value of the same kind on a 0..100
// scale. Two zeros are perfectly symmetric; one zero is fully asymmetric.
// Negative inputs are treated as zero.
func Symmetry(a, b float64) float64 {
	a, b = math.Max(a, 0), math.Max(b, 0)
	if a == 0 && b == 0 {
		return 100
	}
	return math.Min(a, b) / math.Max(a, b) * 100
}

// SymmetryScores are the left/right balance figures for limbs.
type SymmetryScores struct {
	ArmMuscle   float64 `json:"arm_muscle"`
	ArmFat      float64 `json:"arm_fat"`
	LegMuscle   float64 `json:"leg_muscle"`
	LegFat      float64 `json:"leg_fat"`
	ArmsOverall float64 `json:"arms_overall"`
	LegsOverall float64 `json:"legs_overall"`
	Overall     float64 `json:"overall"`
}

// ComputeSymmetry derives limb symmetry scores from a segment table.
func ComputeSymmetry(t SegmentTable) SymmetryScores {
	la, ra := t[measurement.LeftArm], t[measurement.RightArm]
	ll, rl := t[measurement.LeftLeg], t[measurement.RightLeg]
	s := SymmetryScores{
		ArmMuscle: Symmetry(la.Muscle, ra.Muscle),
		ArmFat:    Symmetry(la.Fat, ra.Fat),
		LegMuscle: Symmetry(ll.Muscle, rl.Muscle),
		LegFat:    Symmetry(ll.Fat, rl.Fat),
	}
	s.ArmsOverall = (s.ArmMuscle + s.ArmFat) / 2
	s.LegsOverall = (s.LegMuscle + s.LegFat) / 2
	s.Overall = (s.ArmMuscle + s.ArmFat + s.LegMuscle + s.LegFat) / 4
	return s
}

// SymmetryRatings rates every score in SymmetryScores.
type SymmetryRatings struct {
	ArmMuscle   Rating `json:"arm_muscle"`
	ArmFat      Rating `json:"arm_fat"`
	LegMuscle   Rating `json:"leg_muscle"`
	LegFat      Rating `json:"leg_fat"`
	ArmsOverall Rating `json:"arms_overall"`
	LegsOverall Rating `json:"legs_overall"`
	Overall     Rating `json:"overall"`
}

func (s SymmetryScores) Ratings() SymmetryRatings {
	return SymmetryRatings{
		ArmMuscle:   Rate(s.ArmMuscle),
		ArmFat:      Rate(s.ArmFat),
		LegMuscle:   Rate(s.LegMuscle),
		LegFat:      Rate(s.LegFat),
		ArmsOverall: Rate(s.ArmsOverall),
		LegsOverall: Rate(s.LegsOverall),
		Overall:     Rate(s.Overall),
	}
}
