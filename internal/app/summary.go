package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	brcfg "bodycomp/internal/config"
	"bodycomp/internal/ingest"
)

type StartupSummary struct {
	Store     StoreSummary
	Analytics AnalyticsSummary
	Ingest    IngestSummary
	Notify    []string
	HTTPAddr  string
}

type StoreSummary struct {
	Driver  string
	Path    string
	Records int
}

type AnalyticsSummary struct {
	BreakdownMode   string
	SeriesMetrics   []string
	SmoothingWindow int
	Middlewares     []string
}

type IngestSummary struct {
	Enabled  bool
	InboxDir string
	Seeds    []ingest.Result
}

func newStartupSummary(cfg *brcfg.Config, records int, seeds []ingest.Result) *StartupSummary {
	s := &StartupSummary{
		Store: StoreSummary{Driver: cfg.Store.Driver, Path: cfg.Store.Path, Records: records},
		Analytics: AnalyticsSummary{
			BreakdownMode:   cfg.Analytics.Mode().String(),
			SeriesMetrics:   cfg.Analytics.SeriesMetrics,
			SmoothingWindow: cfg.Analytics.SmoothingWindow,
		},
		Ingest:   IngestSummary{Enabled: cfg.Ingest.Enabled, InboxDir: cfg.Ingest.InboxDir, Seeds: seeds},
		HTTPAddr: cfg.App.HTTPAddr,
	}
	if s.Store.Driver == driverMemory {
		s.Store.Path = ""
	}
	for _, mw := range cfg.Analytics.Pipeline {
		s.Analytics.Middlewares = append(s.Analytics.Middlewares, fmt.Sprintf("%s (stage %d)", mw.Name, mw.Stage))
	}
	if cfg.Notify.Log {
		s.Notify = append(s.Notify, "log")
	}
	if cfg.Notify.AMQP.Enabled {
		s.Notify = append(s.Notify, "amqp:"+cfg.Notify.AMQP.Queue)
	}
	return s
}

func (s *StartupSummary) Print() {
	s.Fprint(os.Stdout)
}

func (s *StartupSummary) Fprint(w io.Writer) {
	title := "启动配置摘要 (STARTUP SUMMARY)"
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%*s\n", 40+len(title)/2, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintln(w, "[记录存储 (STORE)]")
	fmt.Fprintf(w, "  驱动: %s\n", s.Store.Driver)
	if s.Store.Path != "" {
		fmt.Fprintf(w, "  路径: %s\n", s.Store.Path)
	}
	fmt.Fprintf(w, "  记录数: %d\n", s.Store.Records)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[分析参数 (ANALYTICS)]")
	fmt.Fprintf(w, "  构成模式: %s\n", s.Analytics.BreakdownMode)
	fmt.Fprintf(w, "  趋势指标: %s\n", formatList(s.Analytics.SeriesMetrics))
	fmt.Fprintf(w, "  平滑窗口: %d\n", s.Analytics.SmoothingWindow)
	if len(s.Analytics.Middlewares) == 0 {
		fmt.Fprintln(w, "  中间件: (默认)")
	} else {
		fmt.Fprintln(w, "  中间件:")
		for _, mw := range s.Analytics.Middlewares {
			fmt.Fprintf(w, "    - %s\n", mw)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[导入 (INGEST)]")
	if s.Ingest.Enabled {
		fmt.Fprintf(w, "  监听目录: %s\n", s.Ingest.InboxDir)
	} else {
		fmt.Fprintln(w, "  监听目录: (未启用)")
	}
	for _, res := range s.Ingest.Seeds {
		fmt.Fprintf(w, "  种子 %s: 新增 %d, 跳过 %d\n", res.Path, res.Created, res.Skipped)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[接口与通知 (HTTP & NOTIFY)]")
	fmt.Fprintf(w, "  HTTP: %s\n", s.HTTPAddr)
	fmt.Fprintf(w, "  通知: %s\n", formatList(s.Notify))
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
