package preset

import (
	"context"
	"sort"
	"sync"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/observability"
)

// MemoryStore is an in-memory preset store for development and testing.
type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{presets: make(map[string]Preset)}
}

func (s *MemoryStore) Save(ctx context.Context, p Preset) error {
	if err := prepare(&p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.presets[p.Name]; exists {
		return errors.New(errors.ErrCodePresetDuplicate, "preset %q already exists", p.Name)
	}
	s.presets[p.Name] = p
	observability.Preset().OnPresetSave(ctx, "memory", p.Name)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, name string) (Preset, error) {
	s.mu.RLock()
	p, ok := s.presets[name]
	s.mu.RUnlock()

	observability.Preset().OnPresetLoad(ctx, "memory", name, ok)
	if !ok {
		return Preset{}, errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	return p, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presets[name]; !ok {
		return errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	delete(s.presets, name)
	observability.Preset().OnPresetDelete(ctx, "memory", name)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
