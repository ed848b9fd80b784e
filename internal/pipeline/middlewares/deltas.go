package middlewares

import (
	"context"

	"bodycomp/internal/analytics"
	"bodycomp/internal/pipeline"
)

// DeltaCalculator 计算当前记录相对前一条记录的变化。
type DeltaCalculator struct {
	meta pipeline.MiddlewareMeta
}

func NewDeltaCalculator(cfg Config) *DeltaCalculator {
	return &DeltaCalculator{meta: cfg.meta("deltas")}
}

func (d *DeltaCalculator) Meta() pipeline.MiddlewareMeta { return d.meta }

func (d *DeltaCalculator) Handle(ctx context.Context, dc *pipeline.DashboardContext) error {
	sel, err := requireSelection(dc)
	if err != nil || sel.Current == nil {
		return err
	}
	dc.SetDeltas(analytics.ComputeDeltas(sel.Current, sel.Previous))
	return nil
}
