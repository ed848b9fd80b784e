package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bodycomp/internal/logger"
	"bodycomp/internal/measurement"
	"bodycomp/internal/store"
	"bodycomp/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

const (
	// DriverCGO 使用 mattn/go-sqlite3。
	DriverCGO = "sqlite3"
	// DriverPure 使用 modernc.org/sqlite，无需 cgo。
	DriverPure = "sqlite"
)

type SqliteStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.RecordStore = (*SqliteStore)(nil)

func NewSqliteStore(driver, path string) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverPure
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	var dsn string
	switch driver {
	case DriverPure:
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	case DriverCGO:
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: driver, DSN: dsn}), &gorm.Config{
		Logger:                                   newGormLogger(),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewSqliteStoreFromDB(db)
}

// gormWriter 把 gorm 的慢查询与错误日志转到应用日志。
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	logger.Warnf("[gorm] "+format, args...)
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// NewSqliteStoreFromDB 复用已打开的 gorm 连接并完成表迁移。
func NewSqliteStoreFromDB(db *gorm.DB) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db 不能为空")
	}
	return newSqliteStore(db)
}

func newSqliteStore(db *gorm.DB) (*SqliteStore, error) {
	if err := db.AutoMigrate(&model.MeasurementModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SqliteStore{db: db, now: time.Now}, nil
}

func (s *SqliteStore) List(ctx context.Context) ([]measurement.Record, error) {
	var rows []model.MeasurementModel
	if err := s.db.WithContext(ctx).
		Order("exam_unix ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]measurement.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.ToRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SqliteStore) Get(ctx context.Context, id string) (measurement.Record, error) {
	row, err := findByID(s.db.WithContext(ctx), id)
	if err != nil {
		return measurement.Record{}, err
	}
	return row.ToRecord()
}

func (s *SqliteStore) Create(ctx context.Context, rec measurement.Record) (measurement.Record, error) {
	now := s.now()
	rec = model.Prepare(rec, now)
	row, err := model.FromRecord(rec, now)
	if err != nil {
		return measurement.Record{}, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.MeasurementModel{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", store.ErrConflict, rec.ID)
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return measurement.Record{}, err
	}
	return rec, nil
}

func (s *SqliteStore) Update(ctx context.Context, id string, rec measurement.Record) (measurement.Record, error) {
	now := s.now()
	var out measurement.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByID(tx, id)
		if err != nil {
			return err
		}
		prev, err := existing.ToRecord()
		if err != nil {
			return err
		}
		out = rec.Clone()
		out.ID = existing.ID
		if out.Timestamp == nil {
			out.Timestamp = prev.Timestamp
		}
		row, err := model.FromRecord(out, now)
		if err != nil {
			return err
		}
		row.CreatedAtUnix = existing.CreatedAtUnix
		return tx.Save(&row).Error
	})
	if err != nil {
		return measurement.Record{}, err
	}
	return out, nil
}

func (s *SqliteStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MeasurementModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func findByID(db *gorm.DB, id string) (model.MeasurementModel, error) {
	var row model.MeasurementModel
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return row, err
}
