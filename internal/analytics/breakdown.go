package analytics

import (
	"fmt"
	"strings"

	"bodycomp/internal/measurement"
)

// Mode selects how breakdown shares are expressed.
type Mode int

const (
	ModePercentage Mode = iota
	ModeAbsolute
)

func (m Mode) String() string {
	if m == ModeAbsolute {
		return "absolute"
	}
	return "percentage"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseMode reads a mode name; the empty string means percentage.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "percentage", "percent", "pct":
		return ModePercentage, nil
	case "absolute", "abs", "kg":
		return ModeAbsolute, nil
	default:
		return ModePercentage, fmt.Errorf("unknown breakdown mode %q", raw)
	}
}

// Constituent is one of the four parts a body weight is split into.
type Constituent string

const (
	ConstituentFat      Constituent = "fat"
	ConstituentProtein  Constituent = "protein"
	ConstituentMinerals Constituent = "minerals"
	ConstituentWater    Constituent = "water"
)

// Share is one constituent's slice. Value is rounded to one decimal; Raw is
// the unrounded figure.
type Share struct {
	Constituent Constituent `json:"constituent"`
	Value       float64     `json:"value"`
	Raw         float64     `json:"raw"`
}

// Breakdown splits a record's weight into fat, protein, minerals and water.
type Breakdown struct {
	Mode        Mode     `json:"mode"`
	TotalWeight float64  `json:"total_weight"`
	Shares      [4]Share `json:"shares"`
}

// Share returns the share for a constituent.
func (b Breakdown) Share(c Constituent) Share {
	for _, s := range b.Shares {
		if s.Constituent == c {
			return s
		}
	}
	return Share{Constituent: c}
}

// ComputeBreakdown splits the record's weight. Missing constituents count as
// zero; the total falls back to the constituent sum when weight is absent.
// The bool is false when the record has no composition block.
func ComputeBreakdown(rec *measurement.Record, mode Mode) (Breakdown, bool) {
	if rec == nil || rec.Composition == nil {
		return Breakdown{Mode: mode}, false
	}
	c := rec.Composition
	masses := [4]struct {
		name Constituent
		val  float64
	}{
		{ConstituentFat, valueOr(c.FatMass, 0)},
		{ConstituentProtein, valueOr(c.Protein, 0)},
		{ConstituentMinerals, valueOr(c.Minerals, 0)},
		{ConstituentWater, valueOr(c.TotalBodyWater, 0)},
	}
	sum := decFromFloat(0)
	for _, m := range masses {
		sum = sum.Add(decFromFloat(m.val))
	}
	total := decToFloat(sum)
	if c.Weight != nil {
		total = *c.Weight
	}
	out := Breakdown{Mode: mode, TotalWeight: total}
	for i, m := range masses {
		share := Share{Constituent: m.name}
		switch mode {
		case ModeAbsolute:
			share.Raw = m.val
		default:
			if total != 0 {
				share.Raw = decToFloat(decFromFloat(m.val).Div(decFromFloat(total)).Mul(decHundred))
			}
		}
		share.Value = round1(share.Raw)
		out.Shares[i] = share
	}
	return out, true
}
