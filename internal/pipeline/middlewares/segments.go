package middlewares

import (
	"context"

	"bodycomp/internal/analytics"
	"bodycomp/internal/pipeline"
)

// SegmentAnalyzer fills the segment table and limb symmetry for the selected
// record. Records without segmental data leave both outputs empty.
type SegmentAnalyzer struct {
	meta pipeline.MiddlewareMeta
}

func NewSegmentAnalyzer(cfg Config) *SegmentAnalyzer {
	return &SegmentAnalyzer{meta: cfg.meta("segments")}
}

func (s *SegmentAnalyzer) Meta() pipeline.MiddlewareMeta { return s.meta }

func (s *SegmentAnalyzer) Handle(ctx context.Context, dc *pipeline.DashboardContext) error {
	sel, err := requireSelection(dc)
	if err != nil || sel.Current == nil {
		return err
	}
	table, ok := analytics.AnalyzeSegments(sel.Current)
	if !ok {
		return nil
	}
	dc.SetSegments(table, analytics.ComputeSymmetry(table))
	return nil
}
