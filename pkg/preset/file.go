package preset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/observability"
)

// FileStore is a file-based preset store for CLI usage.
// Presets are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based preset store.
// If baseDir is empty, defaults to ~/.config/overmark/presets/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "overmark", "presets")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create preset dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) presetPath(name string) string {
	return filepath.Join(s.baseDir, name+".json")
}

func (s *FileStore) Save(ctx context.Context, p Preset) error {
	if err := prepare(&p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.presetPath(p.Name)
	if _, err := os.Stat(path); err == nil {
		return errors.New(errors.ErrCodePresetDuplicate, "preset %q already exists", p.Name)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal preset %q", p.Name)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write preset file")
	}
	observability.Preset().OnPresetSave(ctx, "file", p.Name)
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (Preset, error) {
	if err := ValidateName(name); err != nil {
		return Preset{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.presetPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			observability.Preset().OnPresetLoad(ctx, "file", name, false)
			return Preset{}, errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
		}
		return Preset{}, errors.Wrap(errors.ErrCodeInternal, err, "read preset file")
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, errors.Wrap(errors.ErrCodeInternal, err, "parse preset %q", name)
	}
	observability.Preset().OnPresetLoad(ctx, "file", name, true)
	return p, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read preset dir")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.presetPath(name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "remove preset file")
	}
	observability.Preset().OnPresetDelete(ctx, "file", name)
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for preset files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
