package measurement

import (
	"context"
	"fmt"
	"strings"

	"bodycomp/internal/analytics"
	"bodycomp/internal/config"
	"bodycomp/internal/gateway/notifier"
	"bodycomp/internal/logger"
	domain "bodycomp/internal/measurement"
	"bodycomp/internal/pipeline"
	"bodycomp/internal/pipeline/factory"
	"bodycomp/internal/store"
)

// Options 为 dashboard 计算的默认参数，请求可逐项覆盖。
type Options struct {
	Mode            analytics.Mode
	SeriesMetrics   []analytics.SeriesMetric
	SmoothingWindow int
	Layout          []config.MiddlewareConfig
}

// DashboardRequest selects what a dashboard run should show. Zero values
// fall back to the service defaults.
type DashboardRequest struct {
	SelectedID      string
	Mode            *analytics.Mode
	SeriesMetrics   []analytics.SeriesMetric
	SmoothingWindow int
}

// SegmentReport is the segment table and limb symmetry for one record. All
// fields are nil when the record carries no segmental data.
type SegmentReport struct {
	RecordID string                     `json:"record_id"`
	Segments *analytics.SegmentTable    `json:"segments"`
	Symmetry *analytics.SymmetryScores  `json:"symmetry"`
	Ratings  *analytics.SymmetryRatings `json:"ratings"`
}

// Service orchestrates persistence, the dashboard pipeline and change events.
type Service struct {
	store     store.RecordStore
	publisher notifier.EventPublisher
	dashboard *pipeline.Pipeline
	opts      Options
}

func NewService(st store.RecordStore, pub notifier.EventPublisher, opts Options) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("measurement service: store is required")
	}
	if len(opts.SeriesMetrics) == 0 {
		opts.SeriesMetrics = analytics.DefaultSeriesMetrics
	}
	f := &factory.Factory{DefaultSeriesMetrics: opts.SeriesMetrics, DefaultWindow: opts.SmoothingWindow}
	p, err := f.Pipeline("dashboard", opts.Layout)
	if err != nil {
		return nil, fmt.Errorf("measurement service: %w", err)
	}
	return &Service{store: st, publisher: pub, dashboard: p, opts: opts}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Record, error) {
	rec, err := s.store.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Record{}, fmt.Errorf("get measurement: %w", err)
	}
	return rec, nil
}

func (s *Service) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return domain.Record{}, fmt.Errorf("create measurement: %w", err)
	}
	s.publish(ctx, notifier.NewEvent(notifier.EventCreated, created))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, rec domain.Record) (domain.Record, error) {
	updated, err := s.store.Update(ctx, strings.TrimSpace(id), rec)
	if err != nil {
		return domain.Record{}, fmt.Errorf("update measurement: %w", err)
	}
	s.publish(ctx, notifier.NewEvent(notifier.EventUpdated, updated))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	s.publish(ctx, notifier.NewEvent(notifier.EventDeleted, rec))
	return nil
}

// Dashboard runs the pipeline over the full record set.
func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (pipeline.Dashboard, error) {
	records, err := s.List(ctx)
	if err != nil {
		return pipeline.Dashboard{}, err
	}
	preq := pipeline.Request{
		SelectedID:      strings.TrimSpace(req.SelectedID),
		Mode:            s.opts.Mode,
		SeriesMetrics:   req.SeriesMetrics,
		SmoothingWindow: req.SmoothingWindow,
	}
	if req.Mode != nil {
		preq.Mode = *req.Mode
	}
	dc := pipeline.NewContext(records, preq)
	if err := s.dashboard.Run(ctx, dc); err != nil {
		return pipeline.Dashboard{}, err
	}
	out := dc.Dashboard()
	logger.Debugf("[dashboard] selected=%s previous=%s records=%d warnings=%d",
		out.SelectedID, out.PreviousID, out.RecordCount, len(out.Warnings))
	return out, nil
}

func (s *Service) Segments(ctx context.Context, id string) (SegmentReport, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return SegmentReport{}, err
	}
	report := SegmentReport{RecordID: rec.ID}
	table, ok := analytics.AnalyzeSegments(&rec)
	if !ok {
		return report, nil
	}
	scores := analytics.ComputeSymmetry(table)
	ratings := scores.Ratings()
	report.Segments, report.Symmetry, report.Ratings = &table, &scores, &ratings
	return report, nil
}

// Breakdown computes the composition split; the bool is false when the record
// has no composition block. A nil mode uses the configured default.
func (s *Service) Breakdown(ctx context.Context, id string, mode *analytics.Mode) (analytics.Breakdown, bool, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return analytics.Breakdown{}, false, err
	}
	m := s.opts.Mode
	if mode != nil {
		m = *mode
	}
	out, ok := analytics.ComputeBreakdown(&rec, m)
	return out, ok, nil
}

// Series builds the trend series; empty metrics and a zero window use the
// service defaults.
func (s *Service) Series(ctx context.Context, metrics []analytics.SeriesMetric, window int) (analytics.SeriesSet, error) {
	records, err := s.List(ctx)
	if err != nil {
		return analytics.SeriesSet{}, err
	}
	if len(metrics) == 0 {
		metrics = s.opts.SeriesMetrics
	}
	if window == 0 {
		window = s.opts.SmoothingWindow
	}
	set := analytics.BuildSeries(records, metrics)
	if window > 1 {
		set = set.Smoothed(window)
	}
	return set, nil
}

func (s *Service) publish(ctx context.Context, evt notifier.Event) {
	logger.Audit(string(evt.Type), evt.RecordID, logger.AuditSection{Title: "EVENT", Body: evt.Summary()})
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.Warnf("[measurement] publish %s %s failed: %v", evt.Type, evt.RecordID, err)
	}
}
