package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-itree/internal/index"
)

func openInMemory(t *testing.T) *DuckDBLoader {
	t.Helper()
	l, err := NewDuckDBLoader("")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.NoError(t, l.CreateSchema())
	return l
}

func TestDuckDBLoader_InsertAndEach(t *testing.T) {
	l := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, l.InsertRecords(ctx, []*index.Record{
		{ID: "B", Label: "chr2", Start: 5, End: 9, Name: "beta"},
		{ID: "A", Label: "chr1", Start: 100, End: 200},
		{Label: "chr1", Start: 10, End: 20},
	}))

	count, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	labels, err := l.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr2"}, labels)

	var got []index.Record
	require.NoError(t, l.Each(ctx, func(r *index.Record) error {
		got = append(got, *r)
		return nil
	}))
	assert.Equal(t, []index.Record{
		{Label: "chr1", Start: 10, End: 20},
		{ID: "A", Label: "chr1", Start: 100, End: 200},
		{ID: "B", Label: "chr2", Start: 5, End: 9, Name: "beta"},
	}, got)
}

func TestDuckDBLoader_InsertEmpty(t *testing.T) {
	l := openInMemory(t)
	require.NoError(t, l.InsertRecords(context.Background(), nil))
	count, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIsDuckDB(t *testing.T) {
	assert.True(t, IsDuckDB("x.duckdb"))
	assert.True(t, IsDuckDB("x.db"))
	assert.False(t, IsDuckDB("x.bed"))
}

func TestOpenDuckDBLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intervals.duckdb")
	w, err := NewDuckDBLoader(path)
	require.NoError(t, err)
	require.NoError(t, w.CreateSchema())
	require.NoError(t, w.InsertRecords(context.Background(), []*index.Record{
		{ID: "A", Label: "chr1", Start: 1, End: 2},
	}))
	require.NoError(t, w.Close())

	r, err := OpenDuckDBLoader(path)
	require.NoError(t, err)
	defer r.Close()

	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenDuckDBLoader_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.duckdb")

	_, err := OpenDuckDBLoader(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "open interval database")

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
