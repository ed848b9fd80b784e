package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bodycomp/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Pipeline 按 stage 调度一组中间件：同一 stage 内并行，stage 之间串行。
type Pipeline struct {
	name   string
	stages [][]Middleware
}

// New 创建 Pipeline，并按 stage 归类中间件；同一 stage 内保持传入顺序。
func New(name string, middlewares ...Middleware) *Pipeline {
	byStage := make(map[int][]Middleware)
	for _, mw := range middlewares {
		if mw == nil {
			continue
		}
		st := mw.Meta().Stage
		byStage[st] = append(byStage[st], mw)
	}
	order := make([]int, 0, len(byStage))
	for st := range byStage {
		order = append(order, st)
	}
	sort.Ints(order)
	p := &Pipeline{name: name, stages: make([][]Middleware, 0, len(order))}
	for _, st := range order {
		p.stages = append(p.stages, byStage[st])
	}
	return p
}

// Name returns the pipeline name used in logs.
func (p *Pipeline) Name() string { return p.name }

// Middlewares lists middleware names in execution order.
func (p *Pipeline) Middlewares() []string {
	var out []string
	for _, stage := range p.stages {
		for _, mw := range stage {
			out = append(out, mw.Meta().Name)
		}
	}
	return out
}

// Run 执行 pipeline，直到全部 stage 完成或出现 critical 错误。每个中间件的
// 结果都会记录到 dc 的 Steps 中，包括 critical 失败。
func (p *Pipeline) Run(ctx context.Context, dc *DashboardContext) error {
	if dc == nil {
		return fmt.Errorf("nil dashboard context")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, stage := range p.stages {
		if err := p.runStage(ctx, dc, stage); err != nil {
			return err
		}
	}
	return nil
}

// runStage 并行执行一个 stage。非 critical 的失败转为告警，按中间件声明顺序
// 写入，保证输出稳定。
func (p *Pipeline) runStage(ctx context.Context, dc *DashboardContext, stage []Middleware) error {
	if len(stage) == 0 {
		return nil
	}
	group, stageCtx := errgroup.WithContext(ctx)
	steps := make([]Step, len(stage))
	for i, mw := range stage {
		i, mw := i, mw
		group.Go(func() error {
			meta := mw.Meta()
			steps[i] = Step{Name: meta.Name, Stage: meta.Stage, Critical: meta.Critical}
			runCtx := stageCtx
			if meta.Timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(stageCtx, meta.Timeout)
				defer cancel()
			}
			start := time.Now()
			err := mw.Handle(runCtx, dc)
			steps[i].Elapsed = time.Since(start)
			if err == nil {
				return nil
			}
			mwErr := &MiddlewareError{Middleware: meta.Name, Stage: meta.Stage, Critical: meta.Critical, Err: err}
			steps[i].Err = mwErr.Error()
			if meta.Critical {
				return mwErr
			}
			return nil
		})
	}
	err := group.Wait()
	for _, step := range steps {
		dc.recordStep(step)
		if step.Failed() && !step.Critical {
			dc.AddWarning(step.Err)
			logger.Warnf("[pipeline] %s %s", p.name, step.Err)
		}
	}
	return err
}
