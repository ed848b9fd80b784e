package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPath 指定配置文件路径的环境变量。
const EnvPath = "BODYCOMP_CONFIG"

// DefaultPath 是未设置 EnvPath 时使用的配置文件。
const DefaultPath = "configs/config.yaml"

// EnvPrefix 是覆盖单个配置项的环境变量前缀，例如 BODYCOMP_STORE_DRIVER。
const EnvPrefix = "BODYCOMP"

var errIncludeCycle = errors.New("include cycle")

// envKeys 允许通过环境变量覆盖的标量配置。列表类配置只能写在文件里。
var envKeys = []string{
	"app.env",
	"app.log_level",
	"app.log_format",
	"app.http_addr",
	"app.log_path",
	"app.audit_log_path",
	"store.driver",
	"store.path",
	"analytics.breakdown_mode",
	"analytics.smoothing_window",
	"ingest.enabled",
	"ingest.inbox_dir",
	"notify.log",
	"notify.amqp.enabled",
	"notify.amqp.url",
	"notify.amqp.queue",
}

// Load 读取配置文件及其 include 列表，按顺序合并后叠加环境变量，
// 再应用默认值并校验。
func Load(path string) (*Config, error) {
	l := &loader{merged: viper.New(), visited: make(map[string]bool), active: make(map[string]bool)}
	if err := l.load(path); err != nil {
		return nil, err
	}
	return l.decode()
}

// loader 以深度优先顺序合并 include：被引用的文件先合并，
// 引用方的同名配置覆盖它们。
type loader struct {
	merged  *viper.Viper
	visited map[string]bool
	active  map[string]bool
}

func (l *loader) load(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return l.visit(abs)
}

func (l *loader) visit(path string) error {
	path = filepath.Clean(path)
	if l.active[path] {
		return fmt.Errorf("%w detected: %s", errIncludeCycle, path)
	}
	if l.visited[path] {
		return nil
	}
	l.active[path] = true
	defer delete(l.active, path)

	file := viper.New()
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	includes, err := includeList(file)
	if err != nil {
		return fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := l.visit(inc); err != nil {
			return err
		}
	}
	if err := l.merged.MergeConfigMap(file.AllSettings()); err != nil {
		return fmt.Errorf("merging config file failed (%s): %w", path, err)
	}
	l.visited[path] = true
	return nil
}

func includeList(v *viper.Viper) ([]string, error) {
	raw := v.Get("include")
	if raw == nil {
		return nil, nil
	}
	var items []any
	switch val := raw.(type) {
	case []any:
		items = val
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("include must be a string array")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include only supports strings")
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

func (l *loader) decode() (*Config, error) {
	v := l.merged
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s failed: %w", key, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults(explicitKeys(v))
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// explicitKeys 收集文件或环境变量中出现过的配置项，默认值不会覆盖它们。
func explicitKeys(v *viper.Viper) keySet {
	keys := make(keySet)
	for _, key := range v.AllKeys() {
		if v.IsSet(key) {
			keys.mark(key)
		}
	}
	return keys
}
