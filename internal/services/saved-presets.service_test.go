package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"timefilter/internal/bus"
	"timefilter/internal/expr"
	"timefilter/internal/models"
	"timefilter/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	presets map[string]models.TimePreset
	failing bool
}

func (m *memoryStore) List(context.Context) ([]models.TimePreset, error) {
	out := []models.TimePreset{}
	for _, p := range m.presets {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, name string) (models.TimePreset, error) {
	p, ok := m.presets[name]
	if !ok {
		return models.TimePreset{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) Save(_ context.Context, p models.TimePreset) error {
	if m.failing {
		return errors.New("disk full")
	}
	m.presets[p.Name()] = p
	return nil
}

func (m *memoryStore) Delete(_ context.Context, name string) error {
	if _, ok := m.presets[name]; !ok {
		return storage.ErrNotFound
	}
	delete(m.presets, name)
	return nil
}

func (m *memoryStore) Close() {}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []PresetEvent
	err      error
}

func (r *recordingPublisher) Publish(subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.events = append(r.events, payload.(PresetEvent))
	return r.err
}

func (r *recordingPublisher) Close() {}

func testPreset(t *testing.T, name string) models.TimePreset {
	t.Helper()
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	tr, err := expr.NewTimeRange(start, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	return models.NewTimePreset(name, tr)
}

func TestPresetService_SaveAndDeletePublish(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{presets: map[string]models.TimePreset{}}
	pub := &recordingPublisher{}
	ps := NewPresetService(store, pub, zap.NewNop())

	require.NoError(t, ps.Save(ctx, testPreset(t, "march")))
	got, err := ps.Get(ctx, "march")
	require.NoError(t, err)
	assert.True(t, got.Equals(testPreset(t, "march")))

	require.NoError(t, ps.Delete(ctx, "march"))
	assert.ErrorIs(t, ps.Delete(ctx, "march"), storage.ErrNotFound)

	assert.Equal(t, []string{bus.SubjectPresetSaved, bus.SubjectPresetDeleted}, pub.subjects)
	require.NotNil(t, pub.events[0].Preset)
	assert.Equal(t, "march", pub.events[0].Preset.Name)
	assert.Nil(t, pub.events[1].Preset)
}

func TestPresetService_FailedWritesDoNotPublish(t *testing.T) {
	store := &memoryStore{presets: map[string]models.TimePreset{}, failing: true}
	pub := &recordingPublisher{}
	ps := NewPresetService(store, pub, zap.NewNop())

	assert.Error(t, ps.Save(context.Background(), testPreset(t, "march")))
	assert.Empty(t, pub.subjects)
}

func TestPresetService_PublishErrorsAreNotFatal(t *testing.T) {
	store := &memoryStore{presets: map[string]models.TimePreset{}}
	ps := NewPresetService(store, &recordingPublisher{err: errors.New("nats down")}, zap.NewNop())

	require.NoError(t, ps.Save(context.Background(), testPreset(t, "march")))
	list, err := ps.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewPresetService_DefaultsToNop(t *testing.T) {
	ps := NewPresetService(&memoryStore{presets: map[string]models.TimePreset{}}, nil, zap.NewNop())
	assert.NoError(t, ps.Save(context.Background(), testPreset(t, "march")))
}

func TestPresetEvent_WireShape(t *testing.T) {
	at := time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC)
	js := testPreset(t, "march").ToJS()

	saved, err := json.Marshal(PresetEvent{Name: "march", Preset: &js, At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "march",
		"preset": {"name": "march", "timeRange": {"start": "2024-03-01T00:00:00Z", "end": "2024-04-01T00:00:00Z"}},
		"at": "2024-04-02T10:00:00Z"
	}`, string(saved))

	deleted, err := json.Marshal(PresetEvent{Name: "march", At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "march", "at": "2024-04-02T10:00:00Z"}`, string(deleted))
}
