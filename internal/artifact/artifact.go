// Package artifact defines the trained artifact bundle: the classifier and
// the whole preprocessing state it was trained with, persisted as one
// atomic unit. A bundle is written exactly once by the training pipeline
// and loaded read-only by serving processes.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"mycoscan/internal/boost"
	"mycoscan/internal/encode"
)

var (
	// ErrNotFound means no bundle exists at the expected location.
	ErrNotFound = errors.New("artifact not found")
	// ErrCorrupt means the bundle exists but cannot be deserialized or
	// fails validation.
	ErrCorrupt = errors.New("artifact corrupt")
)

// Evaluation holds the test-partition metrics recorded at training time.
// Reporting output only; nothing gates on these values.
type Evaluation struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	TestRows  int     `json:"test_rows"`
}

// Bundle ties the classifier to the exact encoder state and column
// ordering it was trained with. Loaders must treat the persisted form as
// opaque and atomic; there are no partial updates.
type Bundle struct {
	Version      string                     `json:"version"`
	TrainedAt    time.Time                  `json:"trained_at"`
	FeatureNames []string                   `json:"feature_names"`
	Encoder      *encode.CategoricalEncoder `json:"encoder"`
	Target       *encode.TargetEncoder      `json:"target"`
	Model        *boost.Model               `json:"model"`
	Evaluation   Evaluation                 `json:"evaluation"`
	TrainingRows int                        `json:"training_rows"`
}

// Assembler returns a feature assembler bound to the bundle's encoder.
func (b *Bundle) Assembler() *encode.Assembler {
	return encode.NewAssembler(b.Encoder)
}

// Validate cross-checks the bundle's parts: encoder state against the
// schema registry, the persisted column ordering against the layout the
// encoder reproduces, and the model's feature width against both.
func (b *Bundle) Validate() error {
	if b.Encoder == nil || b.Target == nil || b.Model == nil {
		return errors.New("bundle missing a component")
	}
	if err := b.Encoder.Validate(); err != nil {
		return err
	}
	if len(b.Target.Classes) != 2 {
		return fmt.Errorf("bundle target encoder has %d classes", len(b.Target.Classes))
	}
	if err := b.Model.Validate(); err != nil {
		return err
	}
	asm := b.Assembler()
	if err := asm.CheckNames(b.FeatureNames); err != nil {
		return err
	}
	if asm.Width() != b.Model.NumFeatures {
		return fmt.Errorf("bundle model expects %d features, assembler produces %d", b.Model.NumFeatures, asm.Width())
	}
	return nil
}

// Save writes the bundle atomically: serialize to a temp file in the target
// directory, fsync, then rename over the final path. A crash mid-write
// never leaves a partial artifact visible.
func Save(b *Bundle, path string) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid bundle: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename bundle into place: %w", err)
	}

	log.Info().Str("path", path).Str("version", b.Version).Int("features", len(b.FeatureNames)).Msg("artifact bundle persisted")
	return nil
}

// Load reads and validates a bundle. Missing files map to ErrNotFound,
// anything unreadable or inconsistent to ErrCorrupt.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	log.Info().
		Str("path", path).
		Str("version", b.Version).
		Time("trained_at", b.TrainedAt).
		Int("features", len(b.FeatureNames)).
		Msg("artifact bundle loaded")
	return &b, nil
}
