package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"timefilter/internal/expr"
	"timefilter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preset(t *testing.T, name string, days int) models.TimePreset {
	t.Helper()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	tr, err := expr.NewTimeRange(start, start.AddDate(0, 0, days))
	require.NoError(t, err)
	return models.NewTimePreset(name, tr)
}

func TestFileStore_CRUD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "presets.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Save(ctx, preset(t, "week", 7)))
	require.NoError(t, store.Save(ctx, preset(t, "day", 1)))

	got, err := store.Get(ctx, "week")
	require.NoError(t, err)
	assert.True(t, got.Equals(preset(t, "week", 7)))

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "day", list[0].Name())
	assert.Equal(t, "week", list[1].Name())

	require.NoError(t, store.Save(ctx, preset(t, "week", 14)), "save replaces")
	got, err = store.Get(ctx, "week")
	require.NoError(t, err)
	assert.True(t, got.Equals(preset(t, "week", 14)))

	require.NoError(t, store.Delete(ctx, "day"))
	_, err = store.Get(ctx, "day")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "day"), ErrNotFound)
}

func TestFileStore_Reload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "presets.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, preset(t, "month", 31)))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "month")
	require.NoError(t, err)
	assert.True(t, got.Equals(preset(t, "month", 31)))
}

func TestNewFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("presets: [\n"), 0o600))
	_, err := NewFileStore(bad)
	assert.Error(t, err)

	reversed := filepath.Join(dir, "reversed.yaml")
	require.NoError(t, os.WriteFile(reversed, []byte(`presets:
  - name: broken
    timeRange:
      start: "2024-02-01T00:00:00Z"
      end: "2024-01-01T00:00:00Z"
`), 0o600))
	_, err = NewFileStore(reversed)
	assert.ErrorIs(t, err, expr.ErrInvalidTimeRange)
}
