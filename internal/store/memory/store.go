// Package memory 提供进程内的 RecordStore，供测试与 store.driver=memory 使用。
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bodycomp/internal/measurement"
	"bodycomp/internal/store"
	"bodycomp/internal/store/model"
)

type entry struct {
	rec    measurement.Record
	examAt int64
	seq    uint64
}

type Store struct {
	mu      sync.RWMutex
	records map[string]entry
	seq     uint64
	now     func() time.Time
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[string]entry), now: time.Now}
}

func (s *Store) List(ctx context.Context) ([]measurement.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries := make([]entry, 0, len(s.records))
	for _, e := range s.records {
		entries = append(entries, e)
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.examAt != b.examAt {
			return a.examAt < b.examAt
		}
		return a.seq < b.seq
	})
	out := make([]measurement.Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec.Clone()
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (measurement.Record, error) {
	if err := ctx.Err(); err != nil {
		return measurement.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[id]
	if !ok {
		return measurement.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return e.rec.Clone(), nil
}

func (s *Store) Create(ctx context.Context, rec measurement.Record) (measurement.Record, error) {
	if err := ctx.Err(); err != nil {
		return measurement.Record{}, err
	}
	rec = model.Prepare(rec, s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return measurement.Record{}, fmt.Errorf("%w: %s", store.ErrConflict, rec.ID)
	}
	s.seq++
	s.records[rec.ID] = entry{rec: rec.Clone(), examAt: model.ExamUnix(rec), seq: s.seq}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, id string, rec measurement.Record) (measurement.Record, error) {
	if err := ctx.Err(); err != nil {
		return measurement.Record{}, err
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[id]
	if !ok {
		return measurement.Record{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	out := rec.Clone()
	out.ID = id
	if out.Timestamp == nil {
		out.Timestamp = existing.rec.Clone().Timestamp
	}
	existing.rec = out.Clone()
	existing.examAt = model.ExamUnix(out)
	s.records[id] = existing
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *Store) Close() error { return nil }
