package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bodycomp/internal/store/memory"
)

const recordA = `{"id": "a", "informacoes_basicas": {"data_exame": "2024-01-01"}, "composicao_corporal": {"peso": 80}}`
const recordB = `{"id": "b", "informacoes_basicas": {"data_exame": "2024-02-01"}, "composicao_corporal": {"peso": 78.5}}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	tmp := path + ".part"
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	return path
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("x.json"))
	assert.True(t, Supported("dir/x.YAML"))
	assert.True(t, Supported("x.yml"))
	assert.False(t, Supported("x.json.part"))
	assert.False(t, Supported("x.csv"))
}

func TestImportFileShapes(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		name string
		body string
		want int
	}{
		"object":   {"one.json", recordA, 1},
		"array":    {"many.json", "[" + recordA + "," + recordB + "]", 2},
		"envelope": {"env.json", `{"success": true, "data": [` + recordA + `]}`, 1},
		"yaml":     {"one.yaml", "id: y\ninformacoes_basicas:\n  data_exame: \"2024-03-01\"\n", 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			st := memory.New()
			res, err := NewImporter(st).ImportFile(context.Background(), writeFile(t, dir, tc.name, tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Total)
			assert.Equal(t, tc.want, res.Created)
			list, err := st.List(context.Background())
			require.NoError(t, err)
			assert.Len(t, list, tc.want)
		})
	}
}

func TestImportSkipsExistingIDs(t *testing.T) {
	st := memory.New()
	im := NewImporter(st)
	ctx := context.Background()
	_, err := im.ImportBytes(ctx, "a.json", []byte(recordA))
	require.NoError(t, err)

	res, err := im.ImportBytes(ctx, "ab.json", []byte("["+recordA+","+recordB+"]"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"b"}, res.IDs)
}

func TestImportRejectsInvalidDocumentsAtomically(t *testing.T) {
	st := memory.New()
	im := NewImporter(st)
	bad := `[` + recordA + `, {"id": "x", "informacoes_basicas": {}}]`
	_, err := im.ImportBytes(context.Background(), "bad.json", []byte(bad))
	require.ErrorIs(t, err, ErrInvalidDocument)

	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is stored when any record is invalid")

	_, err = im.ImportBytes(context.Background(), "x.csv", []byte("a,b"))
	assert.Error(t, err)
	_, err = im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestImportFilesSkipsMissingSeeds(t *testing.T) {
	dir := t.TempDir()
	seed := writeFile(t, dir, "seed.json", recordA)
	st := memory.New()
	results, err := NewImporter(st).ImportFiles(context.Background(), []string{"", filepath.Join(dir, "nope.json"), seed})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Created)
}

func TestWatcherImportsAndMovesFiles(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	st := memory.New()
	w, err := NewWatcher(inbox, NewImporter(st))
	require.NoError(t, err)
	w.settle = 20 * time.Millisecond

	writeFile(t, inbox, "early.json", recordA)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(inbox, ProcessedDir, "early.json"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "files present at start are swept")

	writeFile(t, inbox, "late.json", recordB)
	writeFile(t, inbox, "broken.json", `{"id": "z"}`)

	assert.Eventually(t, func() bool {
		_, errOK := os.Stat(filepath.Join(inbox, ProcessedDir, "late.json"))
		_, errBad := os.Stat(filepath.Join(inbox, FailedDir, "broken.json"))
		return errOK == nil && errBad == nil
	}, 5*time.Second, 20*time.Millisecond)

	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = os.Stat(filepath.Join(inbox, "late.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestMoveIntoAvoidsOverwrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(dst, 0o755))
	require.NoError(t, moveInto(writeFile(t, dir, "f.json", "1"), dst))
	require.NoError(t, moveInto(writeFile(t, dir, "f.json", "2"), dst))
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNewWatcherValidates(t *testing.T) {
	_, err := NewWatcher(" ", NewImporter(memory.New()))
	assert.Error(t, err)
	_, err = NewWatcher(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestImportShippedSeed(t *testing.T) {
	st := memory.New()
	res, err := NewImporter(st).ImportFile(context.Background(), filepath.Join("..", "..", "configs", "seed", "sample.json"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	list, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sample-2024-01", list[0].ID)
	assert.Nil(t, list[2].Segmental)
}
