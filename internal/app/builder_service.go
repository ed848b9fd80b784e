package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	brcfg "bodycomp/internal/config"
	"bodycomp/internal/gateway/notifier"
	"bodycomp/internal/ingest"
	"bodycomp/internal/logger"
	"bodycomp/internal/store"
	"bodycomp/internal/store/memory"
	"bodycomp/internal/store/sqlite"
	apihttp "bodycomp/internal/transport/http/api"
)

const driverMemory = "memory"

func buildRecordStore(cfg brcfg.StoreConfig) (store.RecordStore, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == driverMemory {
		logger.Infof("✓ 使用内存存储（重启后数据丢失）")
		return memory.New(), nil
	}
	st, err := sqlite.NewSqliteStore(driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("初始化记录存储失败: %w", err)
	}
	logger.Infof("✓ 记录存储: %s (%s)", cfg.Path, driver)
	return st, nil
}

func buildPublisher(cfg brcfg.NotifyConfig) (notifier.EventPublisher, []io.Closer, error) {
	var (
		pubs    notifier.Multi
		closers []io.Closer
	)
	if cfg.Log {
		pubs = append(pubs, notifier.LogPublisher{})
	}
	if cfg.AMQP.Enabled {
		amqpPub, err := notifier.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return nil, nil, fmt.Errorf("初始化 AMQP 通知失败: %w", err)
		}
		logger.Infof("✓ 变更事件推送到 AMQP 队列 %s", cfg.AMQP.Queue)
		amqpPub.WithBreaker(cfg.AMQP.FailureThreshold, time.Duration(cfg.AMQP.CooldownSeconds)*time.Second)
		pubs = append(pubs, amqpPub)
		closers = append(closers, amqpPub)
	}
	switch len(pubs) {
	case 0:
		return nil, nil, nil
	case 1:
		return pubs[0], closers, nil
	default:
		return pubs, closers, nil
	}
}

func buildHTTPServer(cfg brcfg.AppConfig, svc apihttp.MeasurementService, importer apihttp.DocumentImporter) (*apihttp.Server, error) {
	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:     cfg.HTTPAddr,
		Service:  svc,
		Importer: importer,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 接口失败: %w", err)
	}
	logger.Infof("✓ HTTP 接口监听 %s", server.Addr())
	return server, nil
}

func buildWatcher(cfg brcfg.IngestConfig, importer *ingest.Importer) (*ingest.Watcher, error) {
	w, err := ingest.NewWatcher(cfg.InboxDir, importer)
	if err != nil {
		return nil, fmt.Errorf("初始化导入目录失败: %w", err)
	}
	return w, nil
}
