package measurement

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Segment identifies one of the five measured body regions.
type Segment int

const (
	LeftArm Segment = iota
	RightArm
	Trunk
	LeftLeg
	RightLeg

	// SegmentCount is the number of segments, usable as an array length.
	SegmentCount
)

// MassKind distinguishes the two per-segment quantities.
type MassKind int

const (
	Muscle MassKind = iota
	Fat
)

var segmentKeys = [SegmentCount]string{
	LeftArm:  "braco_esquerdo",
	RightArm: "braco_direito",
	Trunk:    "tronco",
	LeftLeg:  "perna_esquerda",
	RightLeg: "perna_direita",
}

var segmentNames = [SegmentCount]string{
	LeftArm:  "left_arm",
	RightArm: "right_arm",
	Trunk:    "trunk",
	LeftLeg:  "left_leg",
	RightLeg: "right_leg",
}

// Segments lists every segment in display order.
func Segments() []Segment {
	return []Segment{LeftArm, RightArm, Trunk, LeftLeg, RightLeg}
}

func (s Segment) String() string {
	if s < 0 || s >= SegmentCount {
		return fmt.Sprintf("segment(%d)", int(s))
	}
	return segmentNames[s]
}

// Key is the field name used by the analyzer export.
func (s Segment) Key() string {
	if s < 0 || s >= SegmentCount {
		return ""
	}
	return segmentKeys[s]
}

func (s Segment) MarshalText() ([]byte, error) {
	if s < 0 || s >= SegmentCount {
		return nil, fmt.Errorf("unknown segment %d", int(s))
	}
	return []byte(segmentNames[s]), nil
}

func (k MassKind) String() string {
	if k == Fat {
		return "fat"
	}
	return "muscle"
}

// SegmentMass is a fixed table of optional masses, one slot per segment.
type SegmentMass [SegmentCount]*float64

// At returns the mass for a segment, nil when absent.
func (m *SegmentMass) At(s Segment) *float64 {
	if m == nil || s < 0 || s >= SegmentCount {
		return nil
	}
	return m[s]
}

// Set stores a mass for a segment.
func (m *SegmentMass) Set(s Segment, v float64) {
	if m == nil || s < 0 || s >= SegmentCount {
		return
	}
	m[s] = &v
}

func (m *SegmentMass) clone() *SegmentMass {
	if m == nil {
		return nil
	}
	var out SegmentMass
	for i, v := range m {
		out[i] = clonePtr(v)
	}
	return &out
}

func (m SegmentMass) toMap() map[string]*float64 {
	out := make(map[string]*float64, SegmentCount)
	for _, s := range Segments() {
		if v := m[s]; v != nil {
			out[s.Key()] = v
		}
	}
	return out
}

func (m *SegmentMass) fromMap(src map[string]*float64) {
	for _, s := range Segments() {
		if v, ok := src[s.Key()]; ok {
			m[s] = v
		}
	}
}

func (m SegmentMass) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toMap())
}

func (m *SegmentMass) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = SegmentMass{}
	m.fromMap(raw)
	return nil
}

func (m SegmentMass) MarshalYAML() (any, error) {
	return m.toMap(), nil
}

func (m *SegmentMass) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]*float64
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*m = SegmentMass{}
	m.fromMap(raw)
	return nil
}
