package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 审计日志：导入与记录变更写入独立文件，便于追溯数据来源。
var (
	auditMu  sync.Mutex
	auditLog *log.Logger
)

func SetAuditWriter(w io.Writer) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if w == nil {
		auditLog = nil
		return
	}
	auditLog = log.New(w, "", log.LstdFlags)
}

// AuditSection is one titled block inside an audit entry.
type AuditSection struct {
	Title string
	Body  string
}

// Audit writes an entry tagged with kind and subject. It is a no-op until a
// writer is configured.
func Audit(kind, subject string, sections ...AuditSection) {
	auditMu.Lock()
	l := auditLog
	auditMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[AUDIT]")
	for _, tag := range []string{kind, subject} {
		if tag = strings.TrimSpace(tag); tag != "" {
			b.WriteString("[")
			b.WriteString(tag)
			b.WriteString("]")
		}
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}
