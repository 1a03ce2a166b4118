// Package preset provides named watermark spec storage.
//
// This package defines the Store interface for saving and recalling specs by
// name, with implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage for persistent shared catalogs
//   - file: File-based storage for CLI usage
//
// All backends share the same contract: Save rejects a name that already
// exists, Load and Delete fail on a name that does not.
//
// # Usage
//
// Create a store and inject it into whatever needs presets:
//
//	// Development
//	store := preset.NewMemoryStore()
//
//	// CLI
//	store, err := preset.NewFileStore("")  // Uses ~/.config/overmark/presets/
//
//	// Production
//	store, err := preset.NewRedisStore(ctx, preset.RedisConfig{
//	    Addr: "localhost:6379",
//	})
package preset

import (
	"context"
	"strings"
	"time"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/mark"
)

// Preset is a named, stored watermark spec.
type Preset struct {
	Name      string    `json:"name" bson:"_id"`
	Spec      mark.Spec `json:"spec" bson:"spec"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store persists presets by name.
//
// Consumers depend on this interface, never on a concrete backend, so tests
// can substitute their own implementation.
type Store interface {
	// Save stores a new preset. A name that already exists is rejected with
	// a PRESET_DUPLICATE error; the stored preset is left untouched.
	Save(ctx context.Context, p Preset) error

	// Load returns the preset with the given name, or a PRESET_NOT_FOUND
	// error.
	Load(ctx context.Context, name string) (Preset, error)

	// List returns the names of all stored presets, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes the named preset, or returns PRESET_NOT_FOUND.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// ValidateName checks that a preset name is storable on every backend.
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidSpec, "preset name is required")
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.New(errors.ErrCodeInvalidSpec, "preset name %q contains path separators", name)
	}
	return nil
}

// prepare validates and normalizes a preset before storage.
func prepare(p *Preset) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	p.Spec = p.Spec.Normalized()
	if err := p.Spec.Validate(); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}
