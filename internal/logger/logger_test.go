package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetFormat("text")
		SetOutput(nil)
		SetLevel("info")
	})

	SetLevel("warn")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	SetFormat("json")
	SetLevel("debug")
	Debugf("as json")
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "as json", entry["msg"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestNamedAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Named("ingest").Info("moved", "file", "a.json")
	out := buf.String()
	assert.Contains(t, out, "component=ingest")
	assert.Contains(t, out, "file=a.json")
}

func TestSetLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel("info")
	})

	SetLevel("WARNING")
	Infof("dropped")
	SetLevel("loud")
	Debugf("still dropped")
	Infof("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestAudit(t *testing.T) {
	Audit("noop", "x")

	var buf bytes.Buffer
	SetAuditWriter(&buf)
	t.Cleanup(func() { SetAuditWriter(nil) })

	Audit("import", "inbox/a.json", AuditSection{Title: "RESULT", Body: "created=2"}, AuditSection{Body: "raw"})
	out := buf.String()
	assert.Contains(t, out, "[AUDIT][import][inbox/a.json]")
	assert.Contains(t, out, "--- RESULT ---\ncreated=2\n")
	assert.Contains(t, out, "--- CONTENT ---\nraw\n")
	assert.True(t, strings.HasSuffix(out, "=====\n"))
}
