package encode

import (
	"fmt"

	"mycoscan/internal/schema"
)

// Assembler produces feature vectors with the layout the classifier was
// trained on: all one-hot sub-vectors grouped by field in registry order,
// followed by the numerical scalars in registry order, presence indicator
// last. This concatenation order is the single most important invariant in
// the system; reordering it silently invalidates every prediction.
type Assembler struct {
	enc *CategoricalEncoder
}

// NewAssembler wires an assembler to a fitted categorical encoder.
func NewAssembler(enc *CategoricalEncoder) *Assembler {
	return &Assembler{enc: enc}
}

// Width returns the fixed feature-vector length.
func (a *Assembler) Width() int {
	return a.enc.Width() + len(schema.NumericalFields())
}

// Vector assembles the specimen into a feature vector. Deterministic: the
// same specimen always yields the same vector for a given fitted encoder.
func (a *Assembler) Vector(s *schema.Specimen) []float64 {
	v := make([]float64, 0, a.Width())
	v = a.enc.Transform(v, s)
	v = append(v, s.NumericalValues()...)
	return v
}

// Matrix assembles a training matrix, one row per specimen.
func (a *Assembler) Matrix(rows []schema.Specimen) [][]float64 {
	m := make([][]float64, len(rows))
	for i := range rows {
		m[i] = a.Vector(&rows[i])
	}
	return m
}

// FeatureNames returns the column names in assembled order: one-hot columns
// first, then the numerical fields.
func (a *Assembler) FeatureNames() []string {
	names := a.enc.FeatureNames()
	return append(names, schema.NumericalFields()...)
}

// CheckNames verifies that a persisted column ordering matches the layout
// this assembler produces. Loaders use this to refuse a bundle whose
// encoder state and feature names have drifted apart.
func (a *Assembler) CheckNames(persisted []string) error {
	names := a.FeatureNames()
	if len(names) != len(persisted) {
		return fmt.Errorf("feature ordering: bundle has %d columns, encoder produces %d", len(persisted), len(names))
	}
	for i := range names {
		if names[i] != persisted[i] {
			return fmt.Errorf("feature ordering: column %d is %q in bundle but %q from encoder", i, persisted[i], names[i])
		}
	}
	return nil
}
