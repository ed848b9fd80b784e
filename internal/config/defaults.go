package config

import (
	"strings"
)

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppLogFormat    = "text"
	defaultAppHTTPAddr     = ":9991"
	defaultAppLogPath      = "data/logs/bodycomp.log"
	defaultAppAuditLogPath = "data/logs/bodycomp-audit.log"
	defaultStoreDriver     = "sqlite"
	defaultStorePath       = "data/bodycomp.db"
	defaultBreakdownMode   = "percentage"
	defaultInboxDir        = "data/inbox"
	defaultAMQPQueue       = "bodycomp.measurements"
	defaultAMQPThreshold   = 3
	defaultAMQPCooldown    = 30
)

var defaultSeriesMetrics = []string{"weight", "skeletal_muscle_mass", "fat_mass"}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Analytics.applyDefaults(keys)
	c.Ingest.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.audit_log_path", &a.AuditLogPath, defaultAppAuditLogPath),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	applyFieldDefaults(keys,
		stringFieldDefault("store.driver", &s.Driver, defaultStoreDriver),
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func (a *AnalyticsConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("analytics.breakdown_mode", &a.BreakdownMode, defaultBreakdownMode),
		fieldDefault{
			key:   "analytics.series_metrics",
			need:  func() bool { return len(a.SeriesMetrics) == 0 },
			apply: func() { a.SeriesMetrics = append([]string(nil), defaultSeriesMetrics...) },
		},
	)
	a.SeriesMetrics = normalizeList(a.SeriesMetrics)
}

func (i *IngestConfig) applyDefaults(keys keySet) {
	if i == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("ingest.inbox_dir", &i.InboxDir, defaultInboxDir),
	)
	i.SeedFiles = normalizeList(i.SeedFiles)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("notify.log", &n.Log, true),
		stringFieldDefault("notify.amqp.queue", &n.AMQP.Queue, defaultAMQPQueue),
		intFieldDefault("notify.amqp.failure_threshold", &n.AMQP.FailureThreshold, defaultAMQPThreshold),
		intFieldDefault("notify.amqp.cooldown_seconds", &n.AMQP.CooldownSeconds, defaultAMQPCooldown),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target == 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func normalizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
