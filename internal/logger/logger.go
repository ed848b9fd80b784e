// Package logger 是基于 log/slog 的进程级日志入口。格式与级别可在运行时切换，
// 调用方只使用 printf 风格的函数。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type sink struct {
	mu     sync.RWMutex
	out    io.Writer
	json   bool
	logger *slog.Logger
}

var (
	level   slog.LevelVar
	current = &sink{out: os.Stdout}
)

func init() {
	current.rebuild()
}

// rebuild 需在持有写锁或初始化时调用。
func (s *sink) rebuild() {
	opts := &slog.HandlerOptions{Level: &level}
	var h slog.Handler
	if s.json {
		h = slog.NewJSONHandler(s.out, opts)
	} else {
		h = slog.NewTextHandler(s.out, opts)
	}
	s.logger = slog.New(h)
}

func (s *sink) get() *slog.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// SetOutput 切换输出目标，nil 表示恢复 stdout。
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	current.mu.Lock()
	defer current.mu.Unlock()
	current.out = w
	current.rebuild()
}

// SetFormat 切换输出格式：json 或 text（默认）。
func SetFormat(format string) {
	current.mu.Lock()
	defer current.mu.Unlock()
	current.json = strings.EqualFold(strings.TrimSpace(format), "json")
	current.rebuild()
}

// SetLevel 接受 debug/info/warn(warning)/error，无法识别时回到 info。
func SetLevel(name string) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		lvl = slog.LevelInfo
	}
	level.Set(lvl)
}

// Named 返回带 component 属性的 slog.Logger，适合需要结构化字段的调用方。
// 返回值绑定调用时的输出配置。
func Named(component string) *slog.Logger {
	return current.get().With("component", component)
}

func Debugf(format string, v ...any) { current.get().Debug(fmt.Sprintf(format, v...)) }

func Infof(format string, v ...any) { current.get().Info(fmt.Sprintf(format, v...)) }

func Warnf(format string, v ...any) { current.get().Warn(fmt.Sprintf(format, v...)) }

func Errorf(format string, v ...any) { current.get().Error(fmt.Sprintf(format, v...)) }
