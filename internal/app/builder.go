package app

import (
	"context"
	"fmt"
	"io"

	brcfg "bodycomp/internal/config"
	"bodycomp/internal/gateway/notifier"
	"bodycomp/internal/ingest"
	"bodycomp/internal/logger"
	measurementsvc "bodycomp/internal/service/measurement"
	"bodycomp/internal/store"
	apihttp "bodycomp/internal/transport/http/api"
)

type AppBuilder struct {
	cfg *brcfg.Config

	storeFn     func(brcfg.StoreConfig) (store.RecordStore, error)
	publisherFn func(brcfg.NotifyConfig) (notifier.EventPublisher, []io.Closer, error)
	httpFn      func(brcfg.AppConfig, apihttp.MeasurementService, apihttp.DocumentImporter) (*apihttp.Server, error)
	watcherFn   func(brcfg.IngestConfig, *ingest.Importer) (*ingest.Watcher, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *brcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:         cfg,
		storeFn:     buildRecordStore,
		publisherFn: buildPublisher,
		httpFn:      buildHTTPServer,
		watcherFn:   buildWatcher,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)

	st, err := b.storeFn(cfg.Store)
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{st}
	fail := func(err error) (*App, error) {
		closeAll(closers)
		return nil, err
	}

	pub, pubClosers, err := b.publisherFn(cfg.Notify)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, pubClosers...)

	svc, err := measurementsvc.NewService(st, pub, measurementsvc.Options{
		Mode:            cfg.Analytics.Mode(),
		SeriesMetrics:   cfg.Analytics.Metrics(),
		SmoothingWindow: cfg.Analytics.SmoothingWindow,
		Layout:          cfg.Analytics.Pipeline,
	})
	if err != nil {
		return fail(err)
	}
	importer := ingest.NewImporter(svc)

	seeded, err := importer.ImportFiles(ctx, cfg.Ingest.SeedFiles)
	if err != nil {
		return fail(fmt.Errorf("导入种子数据失败: %w", err))
	}

	server, err := b.httpFn(cfg.App, svc, importer)
	if err != nil {
		return fail(err)
	}

	var watcher *ingest.Watcher
	if cfg.Ingest.Enabled {
		if watcher, err = b.watcherFn(cfg.Ingest, importer); err != nil {
			return fail(err)
		}
	}

	records, err := svc.List(ctx)
	if err != nil {
		return fail(err)
	}

	return &App{
		cfg:     cfg,
		service: svc,
		server:  server,
		watcher: watcher,
		closers: closers,
		Summary: newStartupSummary(cfg, len(records), seeded),
	}, nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] == nil {
			continue
		}
		if err := closers[i].Close(); err != nil {
			logger.Warnf("关闭资源失败: %v", err)
		}
	}
}

// WithRecordStore 替换记录存储（测试或嵌入场景）。
func WithRecordStore(st store.RecordStore) AppBuilderOption {
	return func(b *AppBuilder) {
		if st != nil {
			b.storeFn = func(brcfg.StoreConfig) (store.RecordStore, error) { return st, nil }
		}
	}
}

func WithPublisher(fn func(brcfg.NotifyConfig) (notifier.EventPublisher, []io.Closer, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.publisherFn = fn
		}
	}
}

func WithHTTPServer(fn func(brcfg.AppConfig, apihttp.MeasurementService, apihttp.DocumentImporter) (*apihttp.Server, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.httpFn = fn
		}
	}
}
