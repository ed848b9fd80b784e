package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodycomp/internal/measurement"
	"bodycomp/internal/store"
	"bodycomp/internal/store/memory"
	"bodycomp/internal/store/sqlite"
)

func newRecord(id, date string, weight float64) measurement.Record {
	return measurement.Record{
		ID:          id,
		Basics:      measurement.Basics{Name: "Ana", SubjectID: "p-1", ExamDate: date},
		Composition: &measurement.Composition{Weight: measurement.Float(weight)},
	}
}

func stores(t *testing.T) map[string]store.RecordStore {
	t.Helper()
	db, err := sqlite.NewSqliteStore(sqlite.DriverPure, filepath.Join(t.TempDir(), "data", "bodycomp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]store.RecordStore{
		"memory": memory.New(),
		"sqlite": db,
	}
}

func TestRecordStoreLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := s.Create(ctx, newRecord("", "2024-02-01", 78.5))
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			require.NotNil(t, created.Timestamp)

			_, err = s.Create(ctx, newRecord("jan", "2024-01-01", 80))
			require.NoError(t, err)
			_, err = s.Create(ctx, newRecord("nodate", "soon", 70))
			require.NoError(t, err)

			_, err = s.Create(ctx, newRecord("jan", "2024-01-05", 1))
			assert.ErrorIs(t, err, store.ErrConflict)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "nodate", list[0].ID)
			assert.Equal(t, "jan", list[1].ID)
			assert.Equal(t, created.ID, list[2].ID)

			got, err := s.Get(ctx, "jan")
			require.NoError(t, err)
			assert.Equal(t, 80.0, *got.Composition.Weight)
			assert.Equal(t, "p-1", got.Basics.SubjectID)
			assert.Nil(t, got.Indices)

			upd := newRecord("ignored", "2024-03-01", 79)
			updated, err := s.Update(ctx, "jan", upd)
			require.NoError(t, err)
			assert.Equal(t, "jan", updated.ID)
			require.NotNil(t, updated.Timestamp, "timestamp is kept from the stored record")

			got, err = s.Get(ctx, "jan")
			require.NoError(t, err)
			assert.Equal(t, 79.0, *got.Composition.Weight)

			list, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, "jan", list[2].ID, "update moves the record to its new exam date")

			require.NoError(t, s.Delete(ctx, "jan"))
			_, err = s.Get(ctx, "jan")
			assert.ErrorIs(t, err, store.ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "jan"), store.ErrNotFound)
			_, err = s.Update(ctx, "jan", upd)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := newRecord("a", "2024-01-01", 80)
			_, err := s.Create(ctx, rec)
			require.NoError(t, err)
			*rec.Composition.Weight = 1

			got, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, 80.0, *got.Composition.Weight)
			*got.Composition.Weight = 2

			again, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, 80.0, *again.Composition.Weight)
		})
	}
}

func TestSqliteRejectsBadConfig(t *testing.T) {
	_, err := sqlite.NewSqliteStoreFromDB(nil)
	assert.Error(t, err)
	_, err = sqlite.NewSqliteStore(sqlite.DriverPure, " ")
	assert.Error(t, err)
	_, err = sqlite.NewSqliteStore("postgres", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}
