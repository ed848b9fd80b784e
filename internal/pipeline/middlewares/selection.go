package middlewares

import (
	"context"
	"fmt"

	"bodycomp/internal/analytics"
	"bodycomp/internal/pipeline"
)

// Selector 解析当前记录与前一条记录，其余中间件依赖其结果。
type Selector struct {
	meta pipeline.MiddlewareMeta
}

func NewSelector(cfg Config) *Selector {
	return &Selector{meta: cfg.meta("selection")}
}

func (s *Selector) Meta() pipeline.MiddlewareMeta { return s.meta }

func (s *Selector) Handle(ctx context.Context, dc *pipeline.DashboardContext) error {
	if dc == nil {
		return fmt.Errorf("nil dashboard context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	sel, err := analytics.SelectCurrentAndPrevious(dc.Records(), dc.Request.SelectedID)
	if err != nil {
		return err
	}
	dc.SetSelection(sel)
	return nil
}
