package app

import (
	"context"
	"fmt"
	"io"

	brcfg "bodycomp/internal/config"
	"bodycomp/internal/ingest"
	"bodycomp/internal/logger"
	measurementsvc "bodycomp/internal/service/measurement"
	apihttp "bodycomp/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 与导入目录监听。
type App struct {
	cfg     *brcfg.Config
	service *measurementsvc.Service
	server  *apihttp.Server
	watcher *ingest.Watcher
	closers []io.Closer
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *brcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务与导入监听，直到 ctx 取消；退出时释放存储与通知连接。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.server != nil {
		group.Go(func() error {
			if err := a.server.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	if a.watcher != nil {
		group.Go(func() error {
			if err := a.watcher.Run(ctx); err != nil {
				return fmt.Errorf("ingest watcher error: %w", err)
			}
			return nil
		})
	}

	return group.Wait()
}

// Close 释放资源，可重复调用。
func (a *App) Close() {
	if a == nil {
		return
	}
	closeAll(a.closers)
	a.closers = nil
}

// Service exposes the measurement service (for tests and embedding).
func (a *App) Service() *measurementsvc.Service {
	if a == nil {
		return nil
	}
	return a.service
}
