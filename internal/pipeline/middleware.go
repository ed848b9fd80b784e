package pipeline

import (
	"context"
	"time"
)

// Middleware 描述 dashboard 计算中的一个步骤。
type Middleware interface {
	Meta() MiddlewareMeta
	Handle(ctx context.Context, dc *DashboardContext) error
}

// MiddlewareMeta 提供调度所需元信息。
type MiddlewareMeta struct {
	Name     string
	Stage    int
	Critical bool
	Timeout  time.Duration
}

// Func 把普通函数包装成 Middleware。
func Func(meta MiddlewareMeta, fn func(ctx context.Context, dc *DashboardContext) error) Middleware {
	return funcMiddleware{meta: meta, fn: fn}
}

type funcMiddleware struct {
	meta MiddlewareMeta
	fn   func(ctx context.Context, dc *DashboardContext) error
}

func (f funcMiddleware) Meta() MiddlewareMeta { return f.meta }

func (f funcMiddleware) Handle(ctx context.Context, dc *DashboardContext) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, dc)
}

// Step 记录一个中间件的执行情况，随 Dashboard 一起返回。
type Step struct {
	Name     string        `json:"name"`
	Stage    int           `json:"stage"`
	Critical bool          `json:"critical,omitempty"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Err      string        `json:"error,omitempty"`
}

func (s Step) Failed() bool { return s.Err != "" }

// MiddlewareError 封装中间件的失败信息。
type MiddlewareError struct {
	Middleware string
	Stage      int
	Critical   bool
	Err        error
}

func (e *MiddlewareError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Middleware
	}
	return e.Middleware + ": " + e.Err.Error()
}

func (e *MiddlewareError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
