package middlewares

import (
	"context"

	"bodycomp/internal/analytics"
	"bodycomp/internal/pipeline"
)

type BreakdownCalculator struct {
	meta pipeline.MiddlewareMeta
}

func NewBreakdownCalculator(cfg Config) *BreakdownCalculator {
	return &BreakdownCalculator{meta: cfg.meta("breakdown")}
}

func (b *BreakdownCalculator) Meta() pipeline.MiddlewareMeta { return b.meta }

func (b *BreakdownCalculator) Handle(ctx context.Context, dc *pipeline.DashboardContext) error {
	sel, err := requireSelection(dc)
	if err != nil || sel.Current == nil {
		return err
	}
	if out, ok := analytics.ComputeBreakdown(sel.Current, dc.Request.Mode); ok {
		dc.SetBreakdown(out)
	}
	return nil
}
