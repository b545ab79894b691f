package services

import (
	"context"
	"time"

	"timefilter/internal/bus"
	"timefilter/internal/models"
	"timefilter/internal/storage"

	"go.uber.org/zap"
)

// PresetEvent is published whenever a saved preset changes.
// Preset is nil for deletions.
type PresetEvent struct {
	Name   string               `json:"name"`
	Preset *models.TimePresetJS `json:"preset,omitempty"`
	At     time.Time            `json:"at"`
}

// PresetService manages saved time presets and announces changes on the bus
// and to live websocket clients.
type PresetService struct {
	store     storage.PresetStore
	publisher bus.Publisher
	logger    *zap.Logger
}

var presetService *PresetService

func NewPresetService(store storage.PresetStore, publisher bus.Publisher, logger *zap.Logger) *PresetService {
	if publisher == nil {
		publisher = bus.NopPublisher{}
	}
	return &PresetService{store: store, publisher: publisher, logger: logger}
}

func InitPresetService(ps *PresetService) *PresetService {
	presetService = ps
	return presetService
}

func GetPresetService() *PresetService {
	return presetService
}

func (ps *PresetService) List(ctx context.Context) ([]models.TimePreset, error) {
	return ps.store.List(ctx)
}

func (ps *PresetService) Get(ctx context.Context, name string) (models.TimePreset, error) {
	return ps.store.Get(ctx, name)
}

func (ps *PresetService) Save(ctx context.Context, preset models.TimePreset) error {
	if err := ps.store.Save(ctx, preset); err != nil {
		return err
	}
	js := preset.ToJS()
	ps.logger.Info("preset saved", zap.String("name", preset.Name()), zap.Stringer("range", preset.TimeRange()))
	ps.announce(bus.SubjectPresetSaved, PresetEvent{Name: preset.Name(), Preset: &js, At: time.Now()})
	return nil
}

func (ps *PresetService) Delete(ctx context.Context, name string) error {
	if err := ps.store.Delete(ctx, name); err != nil {
		return err
	}
	ps.logger.Info("preset deleted", zap.String("name", name))
	ps.announce(bus.SubjectPresetDeleted, PresetEvent{Name: name, At: time.Now()})
	return nil
}

// announce never fails the write; the store is the source of truth
func (ps *PresetService) announce(subject string, event PresetEvent) {
	if err := ps.publisher.Publish(subject, event); err != nil {
		ps.logger.Warn("publish preset event failed", zap.String("subject", subject), zap.Error(err))
	}
	if hub := GetWebSocketHub(); hub != nil {
		hub.Broadcast(WebSocketMessage{Type: MessagePresets, Timestamp: event.At, Data: event})
	}
}

func (ps *PresetService) Close() {
	ps.publisher.Close()
	ps.store.Close()
}
