package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"bodycomp/internal/logger"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	defaultSettle = 250 * time.Millisecond
)

// Watcher imports files dropped into an inbox directory, then moves them to
// processed/ or failed/.
type Watcher struct {
	dir      string
	importer *Importer
	settle   time.Duration
}

func NewWatcher(dir string, importer *Importer) (*Watcher, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("ingest inbox dir 不能为空")
	}
	if importer == nil {
		return nil, fmt.Errorf("ingest importer 不能为空")
	}
	for _, sub := range []string{"", ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &Watcher{dir: dir, importer: importer, settle: defaultSettle}, nil
}

// Dir returns the inbox directory.
func (w *Watcher) Dir() string { return w.dir }

// Run watches until ctx is cancelled. Files already in the inbox are imported
// first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Infof("[ingest] watching %s", w.dir)
	w.sweep(ctx)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Write) {
				if Supported(evt.Name) {
					pending[evt.Name] = time.Now()
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("[ingest] watcher error: %v", err)
		case now := <-ticker.C:
			for _, path := range readyPaths(pending, now, w.settle) {
				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

func readyPaths(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var out []string
	for path, seen := range pending {
		if now.Sub(seen) >= settle {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warnf("[ingest] sweep %s: %v", w.dir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		w.process(ctx, filepath.Join(w.dir, e.Name()))
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	log := logger.Named("ingest").With("file", filepath.Base(path))
	res, err := w.importer.ImportFile(ctx, path)
	target := ProcessedDir
	if err != nil {
		target = FailedDir
		log.Error("import failed", "error", err)
		logger.Audit("import-failed", path, logger.AuditSection{Title: "ERROR", Body: err.Error()})
	} else {
		log.Info("imported", "created", res.Created, "skipped", res.Skipped)
	}
	if moveErr := moveInto(path, filepath.Join(w.dir, target)); moveErr != nil {
		logger.Warnf("[ingest] move %s: %v", path, moveErr)
	}
}

// moveInto renames path into dir; an existing file of the same name gets a
// timestamp suffix.
func moveInto(path, dir string) error {
	name := filepath.Base(path)
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(name)
		dst = filepath.Join(dir, fmt.Sprintf("%s.%d%s", strings.TrimSuffix(name, ext), time.Now().UnixNano(), ext))
	}
	return os.Rename(path, dst)
}
