package analytics

import (
	"fmt"
	"strings"

	talib "github.com/markcheno/go-talib"

	"bodycomp/internal/measurement"
)

// SeriesMetric selects a value from a record for trend display.
type SeriesMetric string

const (
	SeriesWeight         SeriesMetric = "weight"
	SeriesSkeletalMuscle SeriesMetric = "skeletal_muscle_mass"
	SeriesFatMass        SeriesMetric = "fat_mass"
	SeriesBodyWater      SeriesMetric = "total_body_water"
	SeriesProtein        SeriesMetric = "protein"
	SeriesMinerals       SeriesMetric = "minerals"
	SeriesFatFreeMass    SeriesMetric = "fat_free_mass"
	SeriesBMI            SeriesMetric = "bmi"
	SeriesBodyFatPct     SeriesMetric = "body_fat_pct"
	SeriesVisceralFat    SeriesMetric = "visceral_fat"
	SeriesBMR            SeriesMetric = "bmr"
	SeriesScore          SeriesMetric = "score"
)

type accessor func(*measurement.Record) *float64

func compositionField(pick func(*measurement.Composition) *float64) accessor {
	return func(r *measurement.Record) *float64 {
		if r == nil || r.Composition == nil {
			return nil
		}
		return pick(r.Composition)
	}
}

func indicesField(pick func(*measurement.Indices) *float64) accessor {
	return func(r *measurement.Record) *float64 {
		if r == nil || r.Indices == nil {
			return nil
		}
		return pick(r.Indices)
	}
}

var seriesAccessors = map[SeriesMetric]accessor{
	SeriesWeight:         compositionField(func(c *measurement.Composition) *float64 { return c.Weight }),
	SeriesSkeletalMuscle: compositionField(func(c *measurement.Composition) *float64 { return c.SkeletalMuscleMass }),
	SeriesFatMass:        compositionField(func(c *measurement.Composition) *float64 { return c.FatMass }),
	SeriesBodyWater:      compositionField(func(c *measurement.Composition) *float64 { return c.TotalBodyWater }),
	SeriesProtein:        compositionField(func(c *measurement.Composition) *float64 { return c.Protein }),
	SeriesMinerals:       compositionField(func(c *measurement.Composition) *float64 { return c.Minerals }),
	SeriesFatFreeMass:    compositionField(func(c *measurement.Composition) *float64 { return c.FatFreeMass }),
	SeriesBMI:            indicesField(func(i *measurement.Indices) *float64 { return i.BMI }),
	SeriesBodyFatPct:     indicesField(func(i *measurement.Indices) *float64 { return i.BodyFatPct }),
	SeriesVisceralFat:    indicesField(func(i *measurement.Indices) *float64 { return i.VisceralFat }),
	SeriesBMR:            indicesField(func(i *measurement.Indices) *float64 { return i.BMR }),
	SeriesScore: func(r *measurement.Record) *float64 {
		if r == nil || r.Score == nil {
			return nil
		}
		return ptr(float64(*r.Score))
	},
}

// DefaultSeriesMetrics mirrors the weight/muscle/fat trend chart.
var DefaultSeriesMetrics = []SeriesMetric{SeriesWeight, SeriesSkeletalMuscle, SeriesFatMass}

// ParseSeriesMetric validates a metric name.
func ParseSeriesMetric(raw string) (SeriesMetric, error) {
	m := SeriesMetric(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := seriesAccessors[m]; !ok {
		return "", fmt.Errorf("unknown series metric %q", raw)
	}
	return m, nil
}

// ParseSeriesMetrics parses a comma separated list, skipping blanks.
func ParseSeriesMetrics(raw string) ([]SeriesMetric, error) {
	var out []SeriesMetric
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := ParseSeriesMetric(part)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Point is one position on the shared time axis. Value is nil when the
// record lacks the metric; charts skip such points.
type Point struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

type Series struct {
	Metric SeriesMetric `json:"metric"`
	Points []Point      `json:"points"`
}

// SeriesSet is a group of series aligned on the same record order.
type SeriesSet struct {
	Labels    []string `json:"labels"`
	RecordIDs []string `json:"record_ids"`
	Series    []Series `json:"series"`
}

// Get returns the series for a metric.
func (s SeriesSet) Get(m SeriesMetric) (Series, bool) {
	for _, series := range s.Series {
		if series.Metric == m {
			return series, true
		}
	}
	return Series{}, false
}

// IndexOf returns the position of id in the set, -1 when absent.
func (s SeriesSet) IndexOf(id string) int {
	for i, rid := range s.RecordIDs {
		if rid == id {
			return i
		}
	}
	return -1
}

// BuildSeries lays records out oldest first and extracts one series per
// metric. Every series has one point per record; an unknown metric yields
// an all-null series in its requested position.
func BuildSeries(records []measurement.Record, metrics []SeriesMetric) SeriesSet {
	ordered := SortAscending(records)
	set := SeriesSet{
		Labels:    make([]string, len(ordered)),
		RecordIDs: make([]string, len(ordered)),
		Series:    make([]Series, 0, len(metrics)),
	}
	for i := range ordered {
		set.Labels[i] = TimeLabel(ordered[i])
		set.RecordIDs[i] = ordered[i].ID
	}
	for _, m := range metrics {
		// 未知指标仍占一个位置，全部为 null，保证结果与请求一一对应
		get := seriesAccessors[m]
		points := make([]Point, len(ordered))
		for i := range ordered {
			points[i] = Point{Label: set.Labels[i]}
			if get != nil {
				points[i].Value = get(&ordered[i])
			}
		}
		set.Series = append(set.Series, Series{Metric: m, Points: points})
	}
	return set
}

// IndexOf returns the position of a record in ascending order, -1 when the
// id is not present.
func IndexOf(records []measurement.Record, id string) int {
	for i, rec := range SortAscending(records) {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// TimeLabel renders the axis label for a record.
func TimeLabel(rec measurement.Record) string {
	if t, ok := rec.ExamTime(); ok {
		return t.Format("2006-01-02")
	}
	if raw := strings.TrimSpace(rec.Basics.ExamDate); raw != "" {
		return raw
	}
	return "N/A"
}

// Smoothed returns a simple moving average over the present points. Points
// without a value stay nil, as do the first window-1 present points.
func (s Series) Smoothed(window int) Series {
	out := Series{Metric: s.Metric, Points: make([]Point, len(s.Points))}
	copy(out.Points, s.Points)
	if window < 2 {
		return out
	}
	idx := make([]int, 0, len(s.Points))
	values := make([]float64, 0, len(s.Points))
	for i, p := range s.Points {
		if p.Value != nil {
			idx = append(idx, i)
			values = append(values, *p.Value)
		}
	}
	for _, i := range idx {
		out.Points[i].Value = nil
	}
	if len(values) < window {
		return out
	}
	sma := talib.Sma(values, window)
	for k := window - 1; k < len(values); k++ {
		out.Points[idx[k]].Value = ptr(round1(sma[k]))
	}
	return out
}

// Smoothed applies Series.Smoothed to every series in the set.
func (s SeriesSet) Smoothed(window int) SeriesSet {
	out := SeriesSet{Labels: s.Labels, RecordIDs: s.RecordIDs, Series: make([]Series, len(s.Series))}
	for i, series := range s.Series {
		out.Series[i] = series.Smoothed(window)
	}
	return out
}
