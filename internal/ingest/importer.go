// Package ingest 负责把分析仪导出的 JSON/YAML 文件导入记录库。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bodycomp/internal/logger"
	"bodycomp/internal/measurement"
	"bodycomp/internal/store"
)

// ErrInvalidDocument marks files that could not be decoded or validated.
var ErrInvalidDocument = errors.New("ingest: invalid document")

// RecordCreator persists a parsed record.
type RecordCreator interface {
	Create(ctx context.Context, rec measurement.Record) (measurement.Record, error)
}

// Result summarises one imported file.
type Result struct {
	Path    string   `json:"path"`
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	IDs     []string `json:"ids,omitempty"`
}

type Importer struct {
	creator RecordCreator
}

func NewImporter(creator RecordCreator) *Importer {
	return &Importer{creator: creator}
}

// Supported reports whether the file extension can be imported.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Decode parses a document according to the file extension. Every record is
// validated before anything is returned.
func Decode(name string, raw []byte) ([]measurement.Record, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return measurement.ParseDocument(raw)
	case ".yaml", ".yml":
		return measurement.DecodeYAML(raw)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
}

func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("read %s: %w", path, err)
	}
	return im.ImportBytes(ctx, path, raw)
}

// ImportBytes decodes and stores every record in raw. Records whose id is
// already taken are skipped so that re-importing a file is harmless.
func (im *Importer) ImportBytes(ctx context.Context, name string, raw []byte) (Result, error) {
	res := Result{Path: name}
	records, err := Decode(name, raw)
	if err != nil {
		return res, fmt.Errorf("decode %s: %w: %w", name, ErrInvalidDocument, err)
	}
	res.Total = len(records)
	for _, rec := range records {
		created, err := im.creator.Create(ctx, rec)
		if errors.Is(err, store.ErrConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("import %s: %w", name, err)
		}
		res.Created++
		res.IDs = append(res.IDs, created.ID)
	}
	logger.Audit("import", name, logger.AuditSection{
		Title: "RESULT",
		Body:  fmt.Sprintf("total=%d created=%d skipped=%d", res.Total, res.Created, res.Skipped),
	})
	return res, nil
}

// ImportFiles 导入种子文件；缺失的文件仅告警。
func (im *Importer) ImportFiles(ctx context.Context, paths []string) ([]Result, error) {
	out := make([]Result, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Warnf("[ingest] seed file %s not found, skipped", path)
			continue
		}
		res, err := im.ImportFile(ctx, path)
		if err != nil {
			return out, err
		}
		logger.Infof("[ingest] seeded %s: created=%d skipped=%d", path, res.Created, res.Skipped)
		out = append(out, res)
	}
	return out, nil
}
