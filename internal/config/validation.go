package config

import (
	"fmt"
	"strings"

	"bodycomp/internal/analytics"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Analytics.validate(); err != nil {
		return err
	}
	if err := c.Ingest.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogFormat)) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case "memory":
		return nil
	case "sqlite", "sqlite3":
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("store.path cannot be empty for driver %s", s.Driver)
		}
		return nil
	default:
		return fmt.Errorf("store.driver must be sqlite, sqlite3 or memory, got %q", s.Driver)
	}
}

func (a *AnalyticsConfig) validate() error {
	if _, err := analytics.ParseMode(a.BreakdownMode); err != nil {
		return fmt.Errorf("analytics.breakdown_mode: %w", err)
	}
	for _, name := range a.SeriesMetrics {
		if _, err := analytics.ParseSeriesMetric(name); err != nil {
			return fmt.Errorf("analytics.series_metrics: %w", err)
		}
	}
	if a.SmoothingWindow < 0 {
		return fmt.Errorf("analytics.smoothing_window must be >= 0")
	}
	for i, mw := range a.Pipeline {
		if strings.TrimSpace(mw.Name) == "" {
			return fmt.Errorf("analytics.pipeline[%d] missing name", i)
		}
		if mw.Stage < 0 || mw.TimeoutSeconds < 0 {
			return fmt.Errorf("analytics.pipeline.%s stage and timeout_seconds must be >= 0", mw.Name)
		}
	}
	return nil
}

func (i *IngestConfig) validate() error {
	if i.Enabled && strings.TrimSpace(i.InboxDir) == "" {
		return fmt.Errorf("ingest.inbox_dir cannot be empty when ingest is enabled")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if !n.AMQP.Enabled {
		return nil
	}
	if strings.TrimSpace(n.AMQP.URL) == "" {
		return fmt.Errorf("notify.amqp.url cannot be empty when amqp is enabled")
	}
	if strings.TrimSpace(n.AMQP.Queue) == "" {
		return fmt.Errorf("notify.amqp.queue cannot be empty")
	}
	if n.AMQP.FailureThreshold < 1 || n.AMQP.CooldownSeconds < 0 {
		return fmt.Errorf("notify.amqp.failure_threshold must be >= 1 and cooldown_seconds >= 0")
	}
	return nil
}
