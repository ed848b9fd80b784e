package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"bodycomp/internal/app"
	bccfg "bodycomp/internal/config"
	"bodycomp/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath()); err != nil {
		log.Fatal(err)
	}
	logger.Infof("已退出")
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(bccfg.EnvPath)); p != "" {
		return p
	}
	return bccfg.DefaultPath
}

func run(ctx context.Context, path string) error {
	cfg, err := bccfg.Load(path)
	if err != nil {
		return fmt.Errorf("读取配置失败: %w", err)
	}
	logger.SetFormat(cfg.App.LogFormat)
	closeOutputs, err := openOutputs(cfg.App)
	if err != nil {
		return err
	}
	defer closeOutputs()
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，存储=%s）", cfg.App.Env, cfg.Store.Driver)

	a, err := app.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("运行失败: %w", err)
	}
	return nil
}

// openOutputs 把运行日志复制到 log_path，审计日志写入 audit_log_path；
// 路径为空时对应输出关闭。
func openOutputs(cfg bccfg.AppConfig) (func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	if p := strings.TrimSpace(cfg.LogPath); p != "" {
		f, err := openAppend(p)
		if err != nil {
			return nil, fmt.Errorf("初始化日志文件失败: %w", err)
		}
		files = append(files, f)
		w := io.MultiWriter(os.Stdout, f)
		log.SetOutput(w)
		logger.SetOutput(w)
	}
	logger.SetAuditWriter(nil)
	if p := strings.TrimSpace(cfg.AuditLogPath); p != "" {
		f, err := openAppend(p)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("初始化审计日志失败: %w", err)
		}
		files = append(files, f)
		logger.SetAuditWriter(f)
	}
	return closeAll, nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
