package apihttp

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bodycomp/internal/analytics"
	"bodycomp/internal/ingest"
	"bodycomp/internal/logger"
	"bodycomp/internal/measurement"
	measurementsvc "bodycomp/internal/service/measurement"
	"bodycomp/internal/store"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

// Router 暴露测量记录 CRUD、上传与分析接口。
type Router struct {
	Service  MeasurementService
	Importer DocumentImporter
}

func NewRouter(svc MeasurementService, importer DocumentImporter) *Router {
	return &Router{Service: svc, Importer: importer}
}

// Register 将路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/measurements", r.handleList)
	group.POST("/measurements", r.handleCreate)
	group.GET("/measurements/:id", r.handleGet)
	group.PUT("/measurements/:id", r.handleUpdate)
	group.DELETE("/measurements/:id", r.handleDelete)
	group.GET("/measurements/:id/segments", r.handleSegments)
	group.GET("/measurements/:id/breakdown", r.handleBreakdown)
	group.GET("/dashboard", r.handleDashboard)
	group.GET("/series", r.handleSeries)
	if r.Importer != nil {
		group.POST("/measurements/upload", r.handleUpload)
		group.POST("/measurements/upload-base64", r.handleUploadBase64)
	}
}

func (r *Router) handleList(c *gin.Context) {
	records, err := r.Service.List(c.Request.Context())
	if err != nil {
		r.fail(c, err, "Error getting measurements")
		return
	}
	if records == nil {
		records = []measurement.Record{}
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d measurements", len(records)),
		Data:    records,
	})
}

func (r *Router) handleGet(c *gin.Context) {
	id := c.Param("id")
	rec, err := r.Service.Get(c.Request.Context(), id)
	if err != nil {
		r.failRecord(c, id, err, "Error getting measurement")
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Retrieved measurement %s", id),
		Data:    rec,
		ID:      rec.ID,
	})
}

func (r *Router) handleCreate(c *gin.Context) {
	rec, err := readRecord(c)
	if err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	created, err := r.Service.Create(c.Request.Context(), rec)
	if err != nil {
		r.failRecord(c, rec.ID, err, "Error creating measurement")
		return
	}
	c.JSON(http.StatusCreated, envelope{
		Success: true,
		Message: "Measurement saved successfully",
		Data:    created,
		ID:      created.ID,
	})
}

func (r *Router) handleUpdate(c *gin.Context) {
	id := c.Param("id")
	rec, err := readRecord(c)
	if err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	updated, err := r.Service.Update(c.Request.Context(), id, rec)
	if err != nil {
		r.failRecord(c, id, err, "Error updating measurement")
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Measurement %s updated successfully", id),
		Data:    updated,
		ID:      updated.ID,
	})
}

func (r *Router) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := r.Service.Delete(c.Request.Context(), id); err != nil {
		r.failRecord(c, id, err, "Error deleting measurement")
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Deleted measurement %s", id),
		ID:      id,
	})
}

func (r *Router) handleSegments(c *gin.Context) {
	id := c.Param("id")
	report, err := r.Service.Segments(c.Request.Context(), id)
	if err != nil {
		r.failRecord(c, id, err, "Error analysing segments")
		return
	}
	msg := fmt.Sprintf("Segment analysis for measurement %s", id)
	if report.Segments == nil {
		msg = fmt.Sprintf("Measurement %s has no segmental data", id)
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: msg, Data: report, ID: report.RecordID})
}

func (r *Router) handleBreakdown(c *gin.Context) {
	id := c.Param("id")
	mode, err := parseMode(c.Query("mode"))
	if err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	out, ok, err := r.Service.Breakdown(c.Request.Context(), id, mode)
	if err != nil {
		r.failRecord(c, id, err, "Error computing breakdown")
		return
	}
	if !ok {
		c.JSON(http.StatusOK, envelope{
			Success: true,
			Message: fmt.Sprintf("Measurement %s has no composition data", id),
			ID:      id,
		})
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Breakdown for measurement %s", id),
		Data:    out,
		ID:      id,
	})
}

func (r *Router) handleDashboard(c *gin.Context) {
	req := measurementsvc.DashboardRequest{SelectedID: strings.TrimSpace(c.Query("selected"))}
	var err error
	if req.Mode, err = parseMode(c.Query("mode")); err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	if req.SeriesMetrics, err = analytics.ParseSeriesMetrics(c.Query("metrics")); err != nil {
		r.fail(c, badRequest(err), "Validation error")
		return
	}
	if req.SmoothingWindow, err = parseWindow(c.Query("smooth")); err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	out, err := r.Service.Dashboard(c.Request.Context(), req)
	if err != nil {
		r.failRecord(c, req.SelectedID, err, "Error building dashboard")
		return
	}
	msg := fmt.Sprintf("Dashboard for measurement %s", out.SelectedID)
	if out.Current == nil {
		msg = "No measurements available"
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: msg, Data: out, ID: out.SelectedID})
}

func (r *Router) handleSeries(c *gin.Context) {
	metrics, err := analytics.ParseSeriesMetrics(c.Query("metrics"))
	if err != nil {
		r.fail(c, badRequest(err), "Validation error")
		return
	}
	window, err := parseWindow(c.Query("smooth"))
	if err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	set, err := r.Service.Series(c.Request.Context(), metrics, window)
	if err != nil {
		r.fail(c, err, "Error building series")
		return
	}
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d series over %d measurements", len(set.Series), len(set.RecordIDs)),
		Data:    set,
	})
}

func (r *Router) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		r.fail(c, badRequest(fmt.Errorf("missing file field: %w", err)), "Validation error")
		return
	}
	if !ingest.Supported(header.Filename) {
		r.fail(c, badRequest(errors.New("file type not allowed, allowed types: json, yaml, yml")), "Validation error")
		return
	}
	f, err := header.Open()
	if err != nil {
		r.fail(c, err, "Error processing measurement file")
		return
	}
	defer f.Close()
	raw, err := readLimited(f, "file")
	if err != nil {
		r.fail(c, err, "Validation error")
		return
	}
	r.importDocument(c, header.Filename, raw)
}

func (r *Router) handleUploadBase64(c *gin.Context) {
	var req uploadBase64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		r.fail(c, badRequest(err), "Validation error")
		return
	}
	name := uploadName(req.FileName, req.FileType)
	if name == "" {
		r.fail(c, badRequest(errors.New("could not determine file type, please provide file_type")), "Validation error")
		return
	}
	payload := req.FileData
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		r.fail(c, badRequest(fmt.Errorf("decode file_data: %w", err)), "Validation error")
		return
	}
	r.importDocument(c, name, raw)
}

func (r *Router) importDocument(c *gin.Context, name string, raw []byte) {
	res, err := r.Importer.ImportBytes(c.Request.Context(), name, raw)
	if err != nil {
		r.fail(c, err, "Error processing measurement file")
		return
	}
	out := envelope{Success: true, Message: "Measurement processed and saved successfully", Data: res}
	if len(res.IDs) == 1 {
		out.ID = res.IDs[0]
	}
	if res.Created == 0 {
		out.Message = fmt.Sprintf("No new measurements in %s (%d already stored)", name, res.Skipped)
	} else if res.Created > 1 || res.Skipped > 0 {
		out.Message = fmt.Sprintf("Imported %d of %d measurements", res.Created, res.Total)
	}
	c.JSON(http.StatusOK, out)
}

// uploadName 返回可被 ingest 识别的文件名；无法判断类型时返回空串。
func uploadName(fileName, fileType string) string {
	fileName = strings.TrimSpace(fileName)
	if fileName != "" && ingest.Supported(fileName) {
		return fileName
	}
	ext := strings.ToLower(strings.TrimSpace(fileType))
	if idx := strings.LastIndex(ext, "/"); idx >= 0 {
		ext = ext[idx+1:]
	}
	ext = strings.TrimPrefix(strings.TrimPrefix(ext, "."), "x-")
	if ext == "" {
		return ""
	}
	base := "upload"
	if fileName != "" {
		base = fileName
	}
	name := base + "." + ext
	if !ingest.Supported(name) {
		return ""
	}
	return name
}

// readLimited 读取至多 maxUploadBytes 字节；超出时返回 400 而不是截断后再解析。
func readLimited(src io.Reader, what string) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return nil, badRequest(fmt.Errorf("read %s: %w", what, err))
	}
	if len(raw) > maxUploadBytes {
		return nil, badRequest(fmt.Errorf("%s exceeds upload limit", what))
	}
	return raw, nil
}

func readRecord(c *gin.Context) (measurement.Record, error) {
	raw, err := readLimited(c.Request.Body, "request body")
	if err != nil {
		return measurement.Record{}, err
	}
	rec, err := measurement.ParseRecord(raw)
	if err != nil {
		return measurement.Record{}, badRequest(err)
	}
	return rec, nil
}

func parseMode(raw string) (*analytics.Mode, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	m, err := analytics.ParseMode(raw)
	if err != nil {
		return nil, badRequest(err)
	}
	return &m, nil
}

func parseWindow(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest(fmt.Errorf("smooth must be a non-negative integer, got %q", raw))
	}
	return n, nil
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

func statusFor(err error) int {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad), errors.Is(err, ingest.ErrInvalidDocument):
		return http.StatusBadRequest
	case analytics.IsNotFound(err), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (r *Router) fail(c *gin.Context, err error, prefix string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, envelope{Success: false, Message: prefix, Detail: fmt.Sprintf("%s: %v", prefix, err)})
}

// failRecord 与 fail 相同，但 404 使用针对单条记录的提示。
func (r *Router) failRecord(c *gin.Context, id string, err error, prefix string) {
	switch statusFor(err) {
	case http.StatusNotFound:
		msg := fmt.Sprintf("Measurement with ID %s not found", id)
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: msg, Detail: msg, ID: id})
	case http.StatusConflict:
		msg := fmt.Sprintf("Measurement with ID %s already exists", id)
		c.JSON(http.StatusConflict, envelope{Success: false, Message: msg, Detail: msg, ID: id})
	default:
		r.fail(c, err, prefix)
	}
}
