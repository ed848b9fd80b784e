package pipeline

import (
	"strings"
	"sync"
	"time"

	"bodycomp/internal/analytics"
	"bodycomp/internal/measurement"
)

// Request 描述一次 dashboard 计算的输入选择。
type Request struct {
	SelectedID      string
	Mode            analytics.Mode
	SeriesMetrics   []analytics.SeriesMetric
	SmoothingWindow int
}

// Dashboard 是一次 pipeline 运行的完整结果，交给展示层使用。
type Dashboard struct {
	SelectedID  string                     `json:"selected_id,omitempty"`
	PreviousID  string                     `json:"previous_id,omitempty"`
	Current     *measurement.Record        `json:"current,omitempty"`
	Previous    *measurement.Record        `json:"previous,omitempty"`
	Deltas      analytics.Deltas           `json:"deltas,omitempty"`
	Segments    *analytics.SegmentTable    `json:"segments,omitempty"`
	Symmetry    *analytics.SymmetryScores  `json:"symmetry,omitempty"`
	Ratings     *analytics.SymmetryRatings `json:"symmetry_ratings,omitempty"`
	Breakdown   *analytics.Breakdown       `json:"breakdown,omitempty"`
	Series      analytics.SeriesSet        `json:"series"`
	SeriesIndex int                        `json:"series_index"`
	RecordCount int                        `json:"record_count"`
	Warnings    []string                   `json:"warnings,omitempty"`
	Steps       []Step                     `json:"steps,omitempty"`
}

// DashboardContext 在一次 Pipeline 执行过程中共享；记录集合为深拷贝。
type DashboardContext struct {
	Request   Request
	StartedAt time.Time

	records []measurement.Record

	mu        sync.RWMutex
	selection analytics.Selection
	selected  bool
	deltas    analytics.Deltas
	segments  *analytics.SegmentTable
	symmetry  *analytics.SymmetryScores
	breakdown *analytics.Breakdown
	series    analytics.SeriesSet
	warnings  []string
	steps     []Step
}

// NewContext 初始化上下文，并复制记录集合以隔离调用方的修改。
func NewContext(records []measurement.Record, req Request) *DashboardContext {
	return &DashboardContext{
		Request:   req,
		StartedAt: time.Now(),
		records:   measurement.CloneAll(records),
	}
}

// Records 返回上下文内的记录（只读）。
func (dc *DashboardContext) Records() []measurement.Record {
	return dc.records
}

func (dc *DashboardContext) SetSelection(sel analytics.Selection) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.selection = sel
	dc.selected = true
}

// Selection 返回 selection 阶段的结果；ok 为 false 表示尚未选择。
func (dc *DashboardContext) Selection() (analytics.Selection, bool) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.selection, dc.selected
}

func (dc *DashboardContext) SetDeltas(d analytics.Deltas) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.deltas = d
}

func (dc *DashboardContext) SetSegments(table analytics.SegmentTable, scores analytics.SymmetryScores) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.segments = &table
	dc.symmetry = &scores
}

func (dc *DashboardContext) SetBreakdown(b analytics.Breakdown) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.breakdown = &b
}

func (dc *DashboardContext) SetSeries(s analytics.SeriesSet) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.series = s
}

// AddWarning 记录警告。
func (dc *DashboardContext) AddWarning(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.warnings = append(dc.warnings, msg)
}

// Warnings 获取告警列表。
func (dc *DashboardContext) Warnings() []string {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	out := make([]string, len(dc.warnings))
	copy(out, dc.warnings)
	return out
}

func (dc *DashboardContext) recordStep(step Step) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.steps = append(dc.steps, step)
}

// Steps 按执行顺序返回已完成的中间件记录。
func (dc *DashboardContext) Steps() []Step {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return append([]Step(nil), dc.steps...)
}

// Dashboard 汇总当前上下文中的全部输出。
func (dc *DashboardContext) Dashboard() Dashboard {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	out := Dashboard{
		Current:     dc.selection.Current,
		Previous:    dc.selection.Previous,
		Deltas:      dc.deltas,
		Segments:    dc.segments,
		Symmetry:    dc.symmetry,
		Breakdown:   dc.breakdown,
		Series:      dc.series,
		SeriesIndex: -1,
		RecordCount: len(dc.records),
		Warnings:    append([]string(nil), dc.warnings...),
		Steps:       append([]Step(nil), dc.steps...),
	}
	if dc.symmetry != nil {
		ratings := dc.symmetry.Ratings()
		out.Ratings = &ratings
	}
	if out.Current != nil {
		out.SelectedID = out.Current.ID
		out.SeriesIndex = dc.series.IndexOf(out.Current.ID)
	}
	if out.Previous != nil {
		out.PreviousID = out.Previous.ID
	}
	return out
}
