package apihttp

import (
	"context"

	"bodycomp/internal/analytics"
	"bodycomp/internal/ingest"
	"bodycomp/internal/measurement"
	"bodycomp/internal/pipeline"
	measurementsvc "bodycomp/internal/service/measurement"
)

// MeasurementService 由 service/measurement 实现。
type MeasurementService interface {
	List(ctx context.Context) ([]measurement.Record, error)
	Get(ctx context.Context, id string) (measurement.Record, error)
	Create(ctx context.Context, rec measurement.Record) (measurement.Record, error)
	Update(ctx context.Context, id string, rec measurement.Record) (measurement.Record, error)
	Delete(ctx context.Context, id string) error
	Dashboard(ctx context.Context, req measurementsvc.DashboardRequest) (pipeline.Dashboard, error)
	Segments(ctx context.Context, id string) (measurementsvc.SegmentReport, error)
	Breakdown(ctx context.Context, id string, mode *analytics.Mode) (analytics.Breakdown, bool, error)
	Series(ctx context.Context, metrics []analytics.SeriesMetric, window int) (analytics.SeriesSet, error)
}

// DocumentImporter 处理上传的导出文件；为 nil 时 upload 接口不注册。
type DocumentImporter interface {
	ImportBytes(ctx context.Context, name string, raw []byte) (ingest.Result, error)
}

// envelope 是所有接口的统一响应结构，前端按 success/message/data 读取。
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	ID      string `json:"id,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// uploadBase64Request 对应前端以 base64 提交文件内容的请求体。
type uploadBase64Request struct {
	FileData string `json:"file_data"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}
