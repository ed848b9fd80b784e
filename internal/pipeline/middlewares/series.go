package middlewares

import (
	"context"

	"bodycomp/internal/analytics"
	"bodycomp/internal/pipeline"
)

// SeriesBuilder 基于全部记录生成趋势序列，不依赖 selection。
type SeriesBuilder struct {
	meta     pipeline.MiddlewareMeta
	defaults []analytics.SeriesMetric
	window   int
}

// NewSeriesBuilder 创建序列构建器；window 为默认平滑窗口，请求中的窗口优先。
func NewSeriesBuilder(cfg Config, defaults []analytics.SeriesMetric, window int) *SeriesBuilder {
	if len(defaults) == 0 {
		defaults = analytics.DefaultSeriesMetrics
	}
	return &SeriesBuilder{
		meta:     cfg.meta("series"),
		defaults: append([]analytics.SeriesMetric(nil), defaults...),
		window:   window,
	}
}

func (s *SeriesBuilder) Meta() pipeline.MiddlewareMeta { return s.meta }

func (s *SeriesBuilder) Handle(ctx context.Context, dc *pipeline.DashboardContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	metrics := dc.Request.SeriesMetrics
	if len(metrics) == 0 {
		metrics = s.defaults
	}
	set := analytics.BuildSeries(dc.Records(), metrics)
	window := s.window
	if dc.Request.SmoothingWindow > 0 {
		window = dc.Request.SmoothingWindow
	}
	if window > 1 {
		set = set.Smoothed(window)
	}
	dc.SetSeries(set)
	return nil
}
