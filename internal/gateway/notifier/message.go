package notifier

import (
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Summary 返回单行事件描述，例如 "measurement created r1 (2024-02-01, Ana)"。
func (e Event) Summary() string {
	var b strings.Builder
	b.WriteString("measurement ")
	b.WriteString(string(e.Type))
	b.WriteString(" ")
	b.WriteString(e.RecordID)
	var extra []string
	for _, s := range []string{e.ExamDate, e.Subject} {
		if s = strings.TrimSpace(s); s != "" {
			extra = append(extra, s)
		}
	}
	if len(extra) > 0 {
		b.WriteString(" (" + strings.Join(extra, ", ") + ")")
	}
	return b.String()
}

func (e Event) logAttrs() []any {
	attrs := []any{"type", string(e.Type), "record_id", e.RecordID}
	if e.ExamDate != "" {
		attrs = append(attrs, "exam_date", e.ExamDate)
	}
	if !e.At.IsZero() {
		attrs = append(attrs, "at", e.At.Format(time.RFC3339))
	}
	return attrs
}

// headers 让消费者不解析 body 就能路由事件。
func (e Event) headers() amqp.Table {
	h := amqp.Table{"record_id": e.RecordID}
	if e.ExamDate != "" {
		h["exam_date"] = e.ExamDate
	}
	return h
}
