package middlewares

import (
	"fmt"
	"strings"
	"time"

	"bodycomp/internal/analytics"
	"bodycomp/internal/pipeline"
)

// Config 是各中间件共用的调度参数。
type Config struct {
	Name     string
	Stage    int
	Critical bool
	Timeout  time.Duration
}

func (c Config) meta(fallback string) pipeline.MiddlewareMeta {
	return pipeline.MiddlewareMeta{
		Name:     nameOrDefault(c.Name, fallback),
		Stage:    c.Stage,
		Critical: c.Critical,
		Timeout:  c.Timeout,
	}
}

func nameOrDefault(val, fallback string) string {
	if val = strings.TrimSpace(val); val != "" {
		return val
	}
	return fallback
}

func requireSelection(dc *pipeline.DashboardContext) (analytics.Selection, error) {
	if dc == nil {
		return analytics.Selection{}, fmt.Errorf("nil dashboard context")
	}
	sel, ok := dc.Selection()
	if !ok {
		return analytics.Selection{}, fmt.Errorf("selection stage has not run")
	}
	return sel, nil
}
