package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodycomp/internal/analytics"
	"bodycomp/internal/measurement"
)

type stubMiddleware struct {
	meta MiddlewareMeta
	err  error
	fn   func(dc *DashboardContext)
}

func (s *stubMiddleware) Meta() MiddlewareMeta { return s.meta }

func (s *stubMiddleware) Handle(_ context.Context, dc *DashboardContext) error {
	if s.fn != nil {
		s.fn(dc)
	}
	return s.err
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) mark(name string) func(*DashboardContext) {
	return func(*DashboardContext) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
	}
}

func TestPipelineOrdersStages(t *testing.T) {
	rec := &recorder{}
	p := New("test",
		&stubMiddleware{meta: MiddlewareMeta{Name: "late", Stage: 2}, fn: rec.mark("late")},
		&stubMiddleware{meta: MiddlewareMeta{Name: "first", Stage: 0}, fn: rec.mark("first")},
		nil,
		&stubMiddleware{meta: MiddlewareMeta{Name: "mid", Stage: 1}, fn: rec.mark("mid")},
	)
	assert.Equal(t, []string{"first", "mid", "late"}, p.Middlewares())
	assert.Equal(t, "test", p.Name())

	dc := NewContext(nil, Request{})
	require.NoError(t, p.Run(context.Background(), dc))
	assert.Equal(t, []string{"first", "mid", "late"}, rec.calls)
}

func TestPipelineCriticalErrorStops(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	p := New("test",
		&stubMiddleware{meta: MiddlewareMeta{Name: "gate", Stage: 0, Critical: true}, err: boom},
		&stubMiddleware{meta: MiddlewareMeta{Name: "after", Stage: 1}, fn: rec.mark("after")},
	)
	err := p.Run(context.Background(), NewContext(nil, Request{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var mwErr *MiddlewareError
	require.True(t, errors.As(err, &mwErr))
	assert.Equal(t, "gate", mwErr.Middleware)
	assert.True(t, mwErr.Critical)
	assert.Empty(t, rec.calls)
}

func TestPipelineNonCriticalBecomesWarning(t *testing.T) {
	rec := &recorder{}
	p := New("test",
		&stubMiddleware{meta: MiddlewareMeta{Name: "flaky", Stage: 0}, err: errors.New("skipped")},
		&stubMiddleware{meta: MiddlewareMeta{Name: "after", Stage: 1}, fn: rec.mark("after")},
	)
	dc := NewContext(nil, Request{})
	require.NoError(t, p.Run(context.Background(), dc))
	assert.Equal(t, []string{"after"}, rec.calls)
	assert.Equal(t, []string{"flaky: skipped"}, dc.Warnings())
	assert.Equal(t, []string{"flaky: skipped"}, dc.Dashboard().Warnings)
}

func TestPipelineWarningsFollowDeclaredOrder(t *testing.T) {
	slow := Func(MiddlewareMeta{Name: "slow", Stage: 0}, func(context.Context, *DashboardContext) error {
		time.Sleep(20 * time.Millisecond)
		return errors.New("late")
	})
	fast := Func(MiddlewareMeta{Name: "fast", Stage: 0}, func(context.Context, *DashboardContext) error {
		return errors.New("early")
	})
	dc := NewContext(nil, Request{})
	require.NoError(t, New("test", slow, fast).Run(context.Background(), dc))
	assert.Equal(t, []string{"slow: late", "fast: early"}, dc.Warnings())
}

func TestPipelineRecordsSteps(t *testing.T) {
	boom := errors.New("boom")
	p := New("test",
		Func(MiddlewareMeta{Name: "ok", Stage: 0}, nil),
		Func(MiddlewareMeta{Name: "gate", Stage: 1, Critical: true}, func(context.Context, *DashboardContext) error { return boom }),
		Func(MiddlewareMeta{Name: "never", Stage: 2}, nil),
	)
	dc := NewContext(nil, Request{})
	require.ErrorIs(t, p.Run(context.Background(), dc), boom)

	steps := dc.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "ok", steps[0].Name)
	assert.False(t, steps[0].Failed())
	assert.Equal(t, "gate", steps[1].Name)
	assert.True(t, steps[1].Critical)
	assert.Equal(t, "gate: boom", steps[1].Err)
	assert.Empty(t, dc.Warnings())
	assert.Len(t, dc.Dashboard().Steps, 2)
}

func TestFuncTimeoutReachesHandler(t *testing.T) {
	var deadline bool
	mw := Func(MiddlewareMeta{Name: "bounded", Timeout: time.Second}, func(ctx context.Context, _ *DashboardContext) error {
		_, deadline = ctx.Deadline()
		return nil
	})
	require.NoError(t, New("test", mw).Run(context.Background(), NewContext(nil, Request{})))
	assert.True(t, deadline)
}

func TestRunRejectsNilContext(t *testing.T) {
	assert.Error(t, New("test").Run(context.Background(), nil))
}

func TestContextCopiesRecords(t *testing.T) {
	records := []measurement.Record{{
		ID:          "A",
		Basics:      measurement.Basics{ExamDate: "2024-01-01"},
		Composition: &measurement.Composition{Weight: measurement.Float(80)},
	}}
	dc := NewContext(records, Request{})
	*records[0].Composition.Weight = 1

	got := dc.Records()
	require.Len(t, got, 1)
	assert.Equal(t, 80.0, *got[0].Composition.Weight)
}

func TestDashboardAssembly(t *testing.T) {
	a := measurement.Record{ID: "A", Basics: measurement.Basics{ExamDate: "2024-01-01"}}
	b := measurement.Record{ID: "B", Basics: measurement.Basics{ExamDate: "2024-02-01"}}
	dc := NewContext([]measurement.Record{a, b}, Request{})

	empty := dc.Dashboard()
	assert.Equal(t, -1, empty.SeriesIndex)
	assert.Nil(t, empty.Current)
	assert.Equal(t, 2, empty.RecordCount)

	sel, err := analytics.SelectCurrentAndPrevious(dc.Records(), "")
	require.NoError(t, err)
	dc.SetSelection(sel)
	dc.SetSeries(analytics.BuildSeries(dc.Records(), analytics.DefaultSeriesMetrics))
	var table analytics.SegmentTable
	dc.SetSegments(table, analytics.ComputeSymmetry(table))

	out := dc.Dashboard()
	assert.Equal(t, "B", out.SelectedID)
	assert.Equal(t, "A", out.PreviousID)
	assert.Equal(t, 1, out.SeriesIndex)
	require.NotNil(t, out.Ratings)
	assert.Equal(t, analytics.RatingGood, out.Ratings.Overall)
}
