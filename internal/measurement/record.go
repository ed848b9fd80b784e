// Package measurement models a single body-composition analysis as exported by
// the analyzer: every scalar is optional, absence is distinct from zero.
package measurement

import (
	"strings"
	"time"
)

// Record 是一次体成分测量的完整记录（外部拥有，只读）。
type Record struct {
	ID            string         `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp     *time.Time     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Basics        Basics         `json:"informacoes_basicas" yaml:"informacoes_basicas"`
	Composition   *Composition   `json:"composicao_corporal,omitempty" yaml:"composicao_corporal,omitempty"`
	Indices       *Indices       `json:"indices_corporais,omitempty" yaml:"indices_corporais,omitempty"`
	Segmental     *Segmental     `json:"analise_segmentar,omitempty" yaml:"analise_segmentar,omitempty"`
	WeightControl *WeightControl `json:"controle_peso,omitempty" yaml:"controle_peso,omitempty"`
	Score         *int           `json:"pontuacao_inbody,omitempty" yaml:"pontuacao_inbody,omitempty"`
	DeviceModel   *string        `json:"modelo_inbody,omitempty" yaml:"modelo_inbody,omitempty"`
}

// Basics carries the subject and exam identification block.
type Basics struct {
	Name      string   `json:"nome" yaml:"nome"`
	SubjectID string   `json:"id" yaml:"id"`
	ExamDate  string   `json:"data_exame" yaml:"data_exame"`
	Age       *int     `json:"idade,omitempty" yaml:"idade,omitempty"`
	Sex       *string  `json:"sexo,omitempty" yaml:"sexo,omitempty"`
	Height    *float64 `json:"altura,omitempty" yaml:"altura,omitempty"`
}

// Composition masses are kg, water is litres.
type Composition struct {
	Weight             *float64 `json:"peso,omitempty" yaml:"peso,omitempty"`
	TotalBodyWater     *float64 `json:"agua_corporal_total,omitempty" yaml:"agua_corporal_total,omitempty"`
	Protein            *float64 `json:"proteina,omitempty" yaml:"proteina,omitempty"`
	Minerals           *float64 `json:"minerais,omitempty" yaml:"minerais,omitempty"`
	FatMass            *float64 `json:"massa_gordura,omitempty" yaml:"massa_gordura,omitempty"`
	SkeletalMuscleMass *float64 `json:"massa_muscular_esqueletica,omitempty" yaml:"massa_muscular_esqueletica,omitempty"`
	FatFreeMass        *float64 `json:"massa_livre_gordura,omitempty" yaml:"massa_livre_gordura,omitempty"`
}

type Indices struct {
	BMI           *float64 `json:"imc,omitempty" yaml:"imc,omitempty"`
	BodyFatPct    *float64 `json:"pgc,omitempty" yaml:"pgc,omitempty"`
	BMR           *float64 `json:"taxa_metabolica_basal,omitempty" yaml:"taxa_metabolica_basal,omitempty"`
	WaistHipRatio *float64 `json:"relacao_cintura_quadril,omitempty" yaml:"relacao_cintura_quadril,omitempty"`
	VisceralFat   *float64 `json:"nivel_gordura_visceral,omitempty" yaml:"nivel_gordura_visceral,omitempty"`
	ObesityDegree *float64 `json:"grau_obesidade,omitempty" yaml:"grau_obesidade,omitempty"`
}

// Segmental holds lean and fat mass per body segment. Either map may be absent.
type Segmental struct {
	Lean *SegmentMass `json:"massa_magra,omitempty" yaml:"massa_magra,omitempty"`
	Fat  *SegmentMass `json:"massa_gorda,omitempty" yaml:"massa_gorda,omitempty"`
}

// At 按 segment × kind 读取质量，缺失时返回 nil。
func (s *Segmental) At(seg Segment, kind MassKind) *float64 {
	if s == nil {
		return nil
	}
	if kind == Fat {
		return s.Fat.At(seg)
	}
	return s.Lean.At(seg)
}

// WeightControl 为设备给出的体重控制建议。
type WeightControl struct {
	IdealWeight   *float64 `json:"peso_ideal,omitempty" yaml:"peso_ideal,omitempty"`
	WeightControl *float64 `json:"controle_peso,omitempty" yaml:"controle_peso,omitempty"`
	FatControl    *float64 `json:"controle_gordura,omitempty" yaml:"controle_gordura,omitempty"`
	MuscleControl *float64 `json:"controle_musculo,omitempty" yaml:"controle_musculo,omitempty"`
}

var examLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ExamTime parses the exam date. The bool is false when the date is missing
// or matches none of the known layouts.
func (r Record) ExamTime() (time.Time, bool) {
	return ParseExamDate(r.Basics.ExamDate)
}

// ParseExamDate accepts the layouts seen in analyzer exports. Dates without a
// zone are read as UTC.
func ParseExamDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range examLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clone returns a deep copy; no pointer is shared with the receiver.
func (r Record) Clone() Record {
	out := r
	out.Timestamp = clonePtr(r.Timestamp)
	out.Basics.Age = clonePtr(r.Basics.Age)
	out.Basics.Sex = clonePtr(r.Basics.Sex)
	out.Basics.Height = clonePtr(r.Basics.Height)
	if r.Composition != nil {
		c := *r.Composition
		c.Weight = clonePtr(c.Weight)
		c.TotalBodyWater = clonePtr(c.TotalBodyWater)
		c.Protein = clonePtr(c.Protein)
		c.Minerals = clonePtr(c.Minerals)
		c.FatMass = clonePtr(c.FatMass)
		c.SkeletalMuscleMass = clonePtr(c.SkeletalMuscleMass)
		c.FatFreeMass = clonePtr(c.FatFreeMass)
		out.Composition = &c
	}
	if r.Indices != nil {
		i := *r.Indices
		i.BMI = clonePtr(i.BMI)
		i.BodyFatPct = clonePtr(i.BodyFatPct)
		i.BMR = clonePtr(i.BMR)
		i.WaistHipRatio = clonePtr(i.WaistHipRatio)
		i.VisceralFat = clonePtr(i.VisceralFat)
		i.ObesityDegree = clonePtr(i.ObesityDegree)
		out.Indices = &i
	}
	if r.Segmental != nil {
		s := Segmental{Lean: r.Segmental.Lean.clone(), Fat: r.Segmental.Fat.clone()}
		out.Segmental = &s
	}
	if r.WeightControl != nil {
		w := *r.WeightControl
		w.IdealWeight = clonePtr(w.IdealWeight)
		w.WeightControl = clonePtr(w.WeightControl)
		w.FatControl = clonePtr(w.FatControl)
		w.MuscleControl = clonePtr(w.MuscleControl)
		out.WeightControl = &w
	}
	out.Score = clonePtr(r.Score)
	out.DeviceModel = clonePtr(r.DeviceModel)
	return out
}

// CloneAll deep-copies a record set.
func CloneAll(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float is a helper for building optional values.
func Float(v float64) *float64 { return &v }

// Int is a helper for building optional values.
func Int(v int) *int { return &v }

// String is a helper for building optional values.
func String(v string) *string { return &v }
