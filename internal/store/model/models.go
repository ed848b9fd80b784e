package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"bodycomp/internal/measurement"
)

// MeasurementModel 是 measurements 表的一行：完整记录保存在 payload，
// 常用的筛选字段单独成列。
type MeasurementModel struct {
	ID            string         `gorm:"column:id;primaryKey"`
	ExamDate      string         `gorm:"column:exam_date"`
	ExamUnix      int64          `gorm:"column:exam_unix;index"`
	SubjectID     string         `gorm:"column:subject_id;index"`
	SubjectName   string         `gorm:"column:subject_name"`
	Payload       datatypes.JSON `gorm:"column:payload"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (MeasurementModel) TableName() string {
	return "measurements"
}

// ExamUnix 返回检查时间的秒级时间戳，无法解析时为 0，升序时排在最前。
func ExamUnix(rec measurement.Record) int64 {
	if t, ok := rec.ExamTime(); ok {
		return t.Unix()
	}
	return 0
}

// Prepare fills the id and timestamp of a record about to be created.
func Prepare(rec measurement.Record, now time.Time) measurement.Record {
	out := rec.Clone()
	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Timestamp == nil {
		ts := now.UTC()
		out.Timestamp = &ts
	}
	return out
}

// FromRecord 将记录转换为数据库行。
func FromRecord(rec measurement.Record, now time.Time) (MeasurementModel, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return MeasurementModel{}, fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return MeasurementModel{
		ID:            rec.ID,
		ExamDate:      rec.Basics.ExamDate,
		ExamUnix:      ExamUnix(rec),
		SubjectID:     rec.Basics.SubjectID,
		SubjectName:   rec.Basics.Name,
		Payload:       datatypes.JSON(payload),
		CreatedAtUnix: now.Unix(),
		UpdatedAtUnix: now.Unix(),
	}, nil
}

// ToRecord 还原 payload；行 id 优先。
func (m MeasurementModel) ToRecord() (measurement.Record, error) {
	var rec measurement.Record
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &rec); err != nil {
			return measurement.Record{}, fmt.Errorf("decode record %s: %w", m.ID, err)
		}
	}
	rec.ID = m.ID
	return rec, nil
}
