package config

import (
	"strings"

	"bodycomp/internal/analytics"
)

// Config 是 bodycomp 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Store     StoreConfig     `toml:"store"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Ingest    IngestConfig    `toml:"ingest"`
	Notify    NotifyConfig    `toml:"notify"`
}

type AppConfig struct {
	Env          string `toml:"env"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`
	HTTPAddr     string `toml:"http_addr"`
	LogPath      string `toml:"log_path"`
	AuditLogPath string `toml:"audit_log_path"`
}

// StoreConfig 选择记录存储：sqlite（modernc，纯 Go）、sqlite3（cgo）或 memory。
type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type AnalyticsConfig struct {
	BreakdownMode   string             `toml:"breakdown_mode"`
	SeriesMetrics   []string           `toml:"series_metrics"`
	SmoothingWindow int                `toml:"smoothing_window"`
	Pipeline        []MiddlewareConfig `toml:"pipeline"`
}

// MiddlewareConfig 为单个中间件节点的配置。
type MiddlewareConfig struct {
	Name           string                 `toml:"name"`
	Stage          int                    `toml:"stage"`
	Critical       bool                   `toml:"critical"`
	TimeoutSeconds int                    `toml:"timeout_seconds"`
	Params         map[string]interface{} `toml:"params"`
}

// Mode 解析 breakdown_mode；已在 Load 中校验。
func (a AnalyticsConfig) Mode() analytics.Mode {
	mode, _ := analytics.ParseMode(a.BreakdownMode)
	return mode
}

// Metrics 解析 series_metrics，忽略无法识别的名称。
func (a AnalyticsConfig) Metrics() []analytics.SeriesMetric {
	out := make([]analytics.SeriesMetric, 0, len(a.SeriesMetrics))
	for _, name := range a.SeriesMetrics {
		if m, err := analytics.ParseSeriesMetric(name); err == nil {
			out = append(out, m)
		}
	}
	return out
}

type IngestConfig struct {
	Enabled   bool     `toml:"enabled"`
	InboxDir  string   `toml:"inbox_dir"`
	SeedFiles []string `toml:"seed_files"`
}

type NotifyConfig struct {
	Log  bool       `toml:"log"`
	AMQP AMQPConfig `toml:"amqp"`
}

// AMQPConfig 中 failure_threshold/cooldown_seconds 控制发布失败后的熔断。
type AMQPConfig struct {
	Enabled          bool   `toml:"enabled"`
	URL              string `toml:"url"`
	Queue            string `toml:"queue"`
	FailureThreshold int    `toml:"failure_threshold"`
	CooldownSeconds  int    `toml:"cooldown_seconds"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
