package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"timefilter/internal/models"

	"gopkg.in/yaml.v3"
)

type presetFile struct {
	Presets []models.TimePresetJS `yaml:"presets"`
}

// FileStore keeps presets in a YAML file, rewritten on every change
type FileStore struct {
	mu      sync.RWMutex
	path    string
	presets map[string]models.TimePreset
}

// NewFileStore loads path, starting empty when the file does not exist yet
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, presets: make(map[string]models.TimePreset)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode presets %s: %w", path, err)
	}
	for _, js := range file.Presets {
		preset, err := models.TimePresetFromJS(js)
		if err != nil {
			return nil, fmt.Errorf("decode presets %s: %w", path, err)
		}
		s.presets[preset.Name()] = preset
	}
	return s, nil
}

func (s *FileStore) List(_ context.Context) ([]models.TimePreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

func (s *FileStore) Get(_ context.Context, name string) (models.TimePreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	preset, ok := s.presets[name]
	if !ok {
		return models.TimePreset{}, ErrNotFound
	}
	return preset, nil
}

func (s *FileStore) Save(_ context.Context, preset models.TimePreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.presets[preset.Name()]
	s.presets[preset.Name()] = preset
	if err := s.flush(); err != nil {
		if existed {
			s.presets[preset.Name()] = previous
		} else {
			delete(s.presets, preset.Name())
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.presets[name]
	if !ok {
		return ErrNotFound
	}
	delete(s.presets, name)
	if err := s.flush(); err != nil {
		s.presets[name] = previous
		return err
	}
	return nil
}

func (s *FileStore) Close() {}

func (s *FileStore) sorted() []models.TimePreset {
	out := make([]models.TimePreset, 0, len(s.presets))
	for _, preset := range s.presets {
		out = append(out, preset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// flush writes through a temp file so a crash never leaves a truncated store
func (s *FileStore) flush() error {
	file := presetFile{Presets: []models.TimePresetJS{}}
	for _, preset := range s.sorted() {
		file.Presets = append(file.Presets, preset.ToJS())
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".presets-*.yaml")
	if err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	return nil
}
