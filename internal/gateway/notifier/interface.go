package notifier

import (
	"context"
	"time"

	"bodycomp/internal/measurement"
)

// EventType 描述记录的变更类型。
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event is published after a record mutation succeeds.
type Event struct {
	Type     EventType `json:"type"`
	RecordID string    `json:"record_id"`
	ExamDate string    `json:"exam_date,omitempty"`
	Subject  string    `json:"subject,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent builds an event for rec stamped with the current time.
func NewEvent(t EventType, rec measurement.Record) Event {
	return Event{
		Type:     t,
		RecordID: rec.ID,
		ExamDate: rec.Basics.ExamDate,
		Subject:  rec.Basics.Name,
		At:       time.Now().UTC(),
	}
}

// EventPublisher defines a minimal publishing interface so the service does
// not depend on a concrete broker.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
