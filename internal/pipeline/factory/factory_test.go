package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodycomp/internal/analytics"
	"bodycomp/internal/config"
	"bodycomp/internal/measurement"
	"bodycomp/internal/pipeline"
)

func segmental(arm, leg float64) *measurement.Segmental {
	lean := &measurement.SegmentMass{}
	fat := &measurement.SegmentMass{}
	for _, s := range measurement.Segments() {
		lean.Set(s, 3)
		fat.Set(s, 1)
	}
	lean.Set(measurement.LeftArm, arm)
	lean.Set(measurement.LeftLeg, leg)
	return &measurement.Segmental{Lean: lean, Fat: fat}
}

func sample() []measurement.Record {
	return []measurement.Record{
		{
			ID:     "A",
			Basics: measurement.Basics{ExamDate: "2024-01-01"},
			Composition: &measurement.Composition{
				Weight:             measurement.Float(80.0),
				SkeletalMuscleMass: measurement.Float(30.0),
				FatMass:            measurement.Float(20.0),
			},
		},
		{
			ID:     "B",
			Basics: measurement.Basics{ExamDate: "2024-02-01"},
			Composition: &measurement.Composition{
				Weight:             measurement.Float(78.5),
				SkeletalMuscleMass: measurement.Float(30.5),
				FatMass:            measurement.Float(18.0),
				Protein:            measurement.Float(11.0),
				Minerals:           measurement.Float(3.5),
				TotalBodyWater:     measurement.Float(40.5),
			},
			Segmental: segmental(3, 3),
		},
	}
}

func TestDefaultPipeline(t *testing.T) {
	f := &Factory{}
	p, err := f.Pipeline("dashboard", nil)
	require.NoError(t, err)
	assert.Equal(t, "selection", p.Middlewares()[0])
	assert.ElementsMatch(t, []string{"selection", "deltas", "segments", "breakdown", "series"}, p.Middlewares())

	dc := pipeline.NewContext(sample(), pipeline.Request{})
	require.NoError(t, p.Run(context.Background(), dc))
	out := dc.Dashboard()

	assert.Equal(t, "B", out.SelectedID)
	assert.Equal(t, "A", out.PreviousID)
	assert.Empty(t, out.Warnings)
	require.Len(t, out.Steps, 5)
	assert.Equal(t, "selection", out.Steps[0].Name)
	for _, step := range out.Steps {
		assert.False(t, step.Failed(), step.Name)
	}

	weight := out.Deltas[analytics.MetricWeight]
	require.NotNil(t, weight.Delta)
	assert.InDelta(t, -1.5, *weight.Delta, 1e-9)
	assert.False(t, out.Deltas[analytics.MetricBMI].Available())

	require.NotNil(t, out.Symmetry)
	assert.InDelta(t, 100.0, out.Symmetry.Overall, 1e-9)

	require.NotNil(t, out.Breakdown)
	assert.Equal(t, analytics.ModePercentage, out.Breakdown.Mode)
	assert.InDelta(t, 78.5, out.Breakdown.TotalWeight, 1e-9)

	assert.Equal(t, []string{"A", "B"}, out.Series.RecordIDs)
	assert.Len(t, out.Series.Series, len(analytics.DefaultSeriesMetrics))
	assert.Equal(t, 1, out.SeriesIndex)
}

func TestSelectionNotFoundAborts(t *testing.T) {
	p, err := (&Factory{}).Pipeline("dashboard", nil)
	require.NoError(t, err)

	dc := pipeline.NewContext(sample(), pipeline.Request{SelectedID: "missing"})
	err = p.Run(context.Background(), dc)
	require.Error(t, err)
	assert.True(t, analytics.IsNotFound(err))
	assert.Nil(t, dc.Dashboard().Breakdown)
}

func TestSelectPreviousRecord(t *testing.T) {
	p, err := (&Factory{}).Pipeline("dashboard", nil)
	require.NoError(t, err)

	dc := pipeline.NewContext(sample(), pipeline.Request{SelectedID: "A", Mode: analytics.ModeAbsolute})
	require.NoError(t, p.Run(context.Background(), dc))
	out := dc.Dashboard()

	assert.Equal(t, "A", out.SelectedID)
	assert.Nil(t, out.Previous)
	assert.False(t, out.Deltas[analytics.MetricWeight].Available())
	assert.Nil(t, out.Segments, "record A has no segmental data")
	require.NotNil(t, out.Breakdown)
	assert.Equal(t, analytics.ModeAbsolute, out.Breakdown.Mode)
	assert.InDelta(t, 20.0, out.Breakdown.Share(analytics.ConstituentFat).Value, 1e-9)
	assert.Equal(t, 0, out.SeriesIndex)
}

func TestEmptyRecordSet(t *testing.T) {
	p, err := (&Factory{}).Pipeline("dashboard", nil)
	require.NoError(t, err)

	dc := pipeline.NewContext(nil, pipeline.Request{})
	require.NoError(t, p.Run(context.Background(), dc))
	out := dc.Dashboard()
	assert.Nil(t, out.Current)
	assert.Nil(t, out.Deltas)
	assert.Equal(t, -1, out.SeriesIndex)
	assert.Equal(t, 0, out.RecordCount)
}

func TestSeriesParams(t *testing.T) {
	f := &Factory{DefaultSeriesMetrics: []analytics.SeriesMetric{analytics.SeriesBMI}}
	mw, err := f.Build(config.MiddlewareConfig{Name: "series", Params: map[string]interface{}{
		"metrics": []interface{}{"weight", "score"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "series", mw.Meta().Name)

	dc := pipeline.NewContext(sample(), pipeline.Request{})
	require.NoError(t, mw.Handle(context.Background(), dc))
	set := dc.Dashboard().Series
	_, ok := set.Get(analytics.SeriesScore)
	assert.True(t, ok)
	_, ok = set.Get(analytics.SeriesBMI)
	assert.False(t, ok)

	_, err = f.Build(config.MiddlewareConfig{Name: "series", Params: map[string]interface{}{"metrics": "height"}})
	assert.Error(t, err)
	_, err = f.Build(config.MiddlewareConfig{Name: "series", Params: map[string]interface{}{"window": -2}})
	assert.Error(t, err)
}

func TestSeriesRequestMetricsOverrideDefaults(t *testing.T) {
	f := &Factory{DefaultSeriesMetrics: []analytics.SeriesMetric{analytics.SeriesBMI}}
	mw, err := f.Build(config.MiddlewareConfig{Name: "series", Params: map[string]interface{}{"window": 2}})
	require.NoError(t, err)

	dc := pipeline.NewContext(sample(), pipeline.Request{SeriesMetrics: []analytics.SeriesMetric{analytics.SeriesWeight}})
	require.NoError(t, mw.Handle(context.Background(), dc))
	weight, ok := dc.Dashboard().Series.Get(analytics.SeriesWeight)
	require.True(t, ok)
	require.Len(t, weight.Points, 2)
	assert.Nil(t, weight.Points[0].Value)
	require.NotNil(t, weight.Points[1].Value)
	assert.InDelta(t, 79.3, *weight.Points[1].Value, 1e-9)
}

func TestUnknownMiddleware(t *testing.T) {
	_, err := (&Factory{}).Build(config.MiddlewareConfig{Name: "kline_fetcher"})
	assert.Error(t, err)
	_, err = (&Factory{}).Pipeline("x", []config.MiddlewareConfig{{Name: "selection", Critical: true}, {Name: "nope", Stage: 1}})
	assert.Error(t, err)
}

func TestLayoutRequiresCriticalSelection(t *testing.T) {
	cases := map[string][]config.MiddlewareConfig{
		"missing":      {{Name: "deltas", Stage: 1}},
		"not critical": {{Name: "selection"}, {Name: "deltas", Stage: 1}},
		"duplicated":   {{Name: "selection", Critical: true}, {Name: "Selection", Stage: 1, Critical: true}},
		"same stage":   {{Name: "selection", Critical: true}, {Name: "deltas"}},
		"earlier":      {{Name: "selection", Stage: 2, Critical: true}, {Name: "series", Stage: 1}},
	}
	for name, layout := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := (&Factory{}).Pipeline("x", layout)
			assert.Error(t, err)
		})
	}

	p, err := (&Factory{}).Pipeline("x", []config.MiddlewareConfig{
		{Name: "selection", Stage: 1, Critical: true},
		{Name: "breakdown", Stage: 3},
	})
	require.NoError(t, err)
	err = p.Run(context.Background(), pipeline.NewContext(sample(), pipeline.Request{SelectedID: "ghost"}))
	assert.True(t, analytics.IsNotFound(err))
}
