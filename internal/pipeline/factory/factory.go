package factory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bodycomp/internal/analytics"
	"bodycomp/internal/config"
	"bodycomp/internal/logger"
	"bodycomp/internal/pipeline"
	"bodycomp/internal/pipeline/middlewares"
)

// DefaultLayout 是 dashboard 的标准编排：selection 单独成为 stage 0，
// 其余计算在 stage 1 并行。
func DefaultLayout() []config.MiddlewareConfig {
	return []config.MiddlewareConfig{
		{Name: "selection", Stage: 0, Critical: true},
		{Name: "deltas", Stage: 1},
		{Name: "segments", Stage: 1},
		{Name: "breakdown", Stage: 1},
		{Name: "series", Stage: 1},
	}
}

type Factory struct {
	DefaultSeriesMetrics []analytics.SeriesMetric
	DefaultWindow        int
}

// Pipeline 按配置装配 pipeline；layout 为空时使用 DefaultLayout。
func (f *Factory) Pipeline(name string, layout []config.MiddlewareConfig) (*pipeline.Pipeline, error) {
	if len(layout) == 0 {
		layout = DefaultLayout()
	}
	if err := checkSelection(layout); err != nil {
		return nil, err
	}
	mws := make([]pipeline.Middleware, 0, len(layout))
	for _, cfg := range layout {
		mw, err := f.Build(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return pipeline.New(name, mws...), nil
}

// checkSelection 要求 layout 恰好包含一个 critical 的 selection，且它独占最早的
// stage：其余中间件都依赖选择结果，未知 id 必须中止整个 pipeline。
func checkSelection(layout []config.MiddlewareConfig) error {
	idx := -1
	for i, mw := range layout {
		if !strings.EqualFold(strings.TrimSpace(mw.Name), "selection") {
			continue
		}
		if idx >= 0 {
			return fmt.Errorf("pipeline layout declares selection more than once")
		}
		idx = i
	}
	if idx < 0 {
		return fmt.Errorf("pipeline layout must include selection")
	}
	sel := layout[idx]
	if !sel.Critical {
		return fmt.Errorf("pipeline selection must be critical")
	}
	for i, mw := range layout {
		if i != idx && mw.Stage <= sel.Stage {
			return fmt.Errorf("pipeline middleware %s must run after selection (stage %d <= %d)", mw.Name, mw.Stage, sel.Stage)
		}
	}
	return nil
}

func (f *Factory) Build(cfg config.MiddlewareConfig) (pipeline.Middleware, error) {
	base := middlewares.Config{
		Name:     cfg.Name,
		Stage:    cfg.Stage,
		Critical: cfg.Critical,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "selection":
		return middlewares.NewSelector(base), nil
	case "deltas":
		return middlewares.NewDeltaCalculator(base), nil
	case "segments":
		return middlewares.NewSegmentAnalyzer(base), nil
	case "breakdown":
		return middlewares.NewBreakdownCalculator(base), nil
	case "series":
		return f.buildSeries(base, cfg)
	default:
		return nil, fmt.Errorf("unknown middleware: %s", cfg.Name)
	}
}

func (f *Factory) buildSeries(base middlewares.Config, cfg config.MiddlewareConfig) (pipeline.Middleware, error) {
	metrics := f.DefaultSeriesMetrics
	if names := sliceFromCfg(cfg.Params, "metrics"); len(names) > 0 {
		metrics = make([]analytics.SeriesMetric, 0, len(names))
		for _, name := range names {
			m, err := analytics.ParseSeriesMetric(name)
			if err != nil {
				return nil, fmt.Errorf("series: %w", err)
			}
			metrics = append(metrics, m)
		}
	}
	window := f.DefaultWindow
	if _, ok := cfg.Params["window"]; ok {
		window = intFromCfg(cfg.Params, "window")
	}
	if window < 0 {
		return nil, fmt.Errorf("series window 不能为负数")
	}
	return middlewares.NewSeriesBuilder(base, metrics, window), nil
}

func sliceFromCfg(params map[string]interface{}, key string) []string {
	if params == nil {
		return nil
	}
	raw, ok := params[key]
	if !ok {
		return nil
	}
	switch val := raw.(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str := strings.TrimSpace(fmt.Sprintf("%v", item))
			if str == "" {
				continue
			}
			out = append(out, str)
		}
		return out
	default:
		parts := strings.Split(fmt.Sprintf("%v", val), ",")
		out := make([]string, 0, len(parts))
		for _, item := range parts {
			s := strings.TrimSpace(item)
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
}

func intFromCfg(params map[string]interface{}, key string) int {
	if params == nil {
		return 0
	}
	raw, ok := params[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		val, err := strconv.Atoi(fmt.Sprintf("%v", v))
		if err != nil {
			logger.Warnf("middleware param %s invalid int: %v", key, err)
			return 0
		}
		return val
	}
}
