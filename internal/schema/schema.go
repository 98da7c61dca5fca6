// Package schema declares the fixed input contract for mushroom specimens:
// the ordered list of categorical and numerical attribute names, the
// Specimen value type, and the boundary validation that turns a raw request
// mapping into a Specimen.
//
// The field order declared here is load-bearing. The categorical encoder and
// the feature assembler both iterate fields in registry order, so the layout
// of every feature vector ever produced depends on this package staying
// stable.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaMismatch reports a request that is missing a required field or
// carries a value of the wrong type. An unrecognized categorical value is
// not a schema mismatch; the encoder tolerates those.
var ErrSchemaMismatch = errors.New("schema mismatch")

const (
	// TargetField is the label column of the training dataset.
	TargetField = "class"

	// SporePrintField is the raw column whose presence (not value) feeds
	// the derived indicator. Callers never supply the indicator directly.
	SporePrintField = "spore-print-color"

	// IndicatorField is the derived presence indicator, always the last
	// numerical column of the feature vector.
	IndicatorField = "spore_print_color_present"
)

// Specimen is one observation, either a training row after cleaning or a
// single inference request. Immutable once built.
type Specimen struct {
	CapShape          string
	CapSurface        string
	CapColor          string
	DoesBruiseOrBleed string
	GillAttachment    string
	GillSpacing       string
	GillColor         string
	StemSurface       string
	StemColor         string
	HasRing           string
	RingType          string
	Habitat           string
	Season            string

	CapDiameter float64
	StemHeight  float64
	StemWidth   float64

	// SporePrintPresent is 1 when the source row carried a
	// spore-print-color value, 0 otherwise.
	SporePrintPresent float64
}

type catField struct {
	name string
	get  func(*Specimen) string
	set  func(*Specimen, string)
}

type numField struct {
	name string
	get  func(*Specimen) float64
	set  func(*Specimen, float64)
}

var catFields = []catField{
	{"cap-shape", func(s *Specimen) string { return s.CapShape }, func(s *Specimen, v string) { s.CapShape = v }},
	{"cap-surface", func(s *Specimen) string { return s.CapSurface }, func(s *Specimen, v string) { s.CapSurface = v }},
	{"cap-color", func(s *Specimen) string { return s.CapColor }, func(s *Specimen, v string) { s.CapColor = v }},
	{"does-bruise-or-bleed", func(s *Specimen) string { return s.DoesBruiseOrBleed }, func(s *Specimen, v string) { s.DoesBruiseOrBleed = v }},
	{"gill-attachment", func(s *Specimen) string { return s.GillAttachment }, func(s *Specimen, v string) { s.GillAttachment = v }},
	{"gill-spacing", func(s *Specimen) string { return s.GillSpacing }, func(s *Specimen, v string) { s.GillSpacing = v }},
	{"gill-color", func(s *Specimen) string { return s.GillColor }, func(s *Specimen, v string) { s.GillColor = v }},
	{"stem-surface", func(s *Specimen) string { return s.StemSurface }, func(s *Specimen, v string) { s.StemSurface = v }},
	{"stem-color", func(s *Specimen) string { return s.StemColor }, func(s *Specimen, v string) { s.StemColor = v }},
	{"has-ring", func(s *Specimen) string { return s.HasRing }, func(s *Specimen, v string) { s.HasRing = v }},
	{"ring-type", func(s *Specimen) string { return s.RingType }, func(s *Specimen, v string) { s.RingType = v }},
	{"habitat", func(s *Specimen) string { return s.Habitat }, func(s *Specimen, v string) { s.Habitat = v }},
	{"season", func(s *Specimen) string { return s.Season }, func(s *Specimen, v string) { s.Season = v }},
}

var numFields = []numField{
	{"cap-diameter", func(s *Specimen) float64 { return s.CapDiameter }, func(s *Specimen, v float64) { s.CapDiameter = v }},
	{"stem-height", func(s *Specimen) float64 { return s.StemHeight }, func(s *Specimen, v float64) { s.StemHeight = v }},
	{"stem-width", func(s *Specimen) float64 { return s.StemWidth }, func(s *Specimen, v float64) { s.StemWidth = v }},
	{IndicatorField, func(s *Specimen) float64 { return s.SporePrintPresent }, func(s *Specimen, v float64) { s.SporePrintPresent = v }},
}

// CategoricalFields returns the categorical attribute names in registry
// order. The returned slice is a copy.
func CategoricalFields() []string {
	names := make([]string, len(catFields))
	for i, f := range catFields {
		names[i] = f.name
	}
	return names
}

// NumericalFields returns the numerical attribute names in registry order,
// presence indicator last. The returned slice is a copy.
func NumericalFields() []string {
	names := make([]string, len(numFields))
	for i, f := range numFields {
		names[i] = f.name
	}
	return names
}

// CategoricalValues returns the specimen's categorical values in registry
// order, aligned with CategoricalFields.
func (s *Specimen) CategoricalValues() []string {
	vals := make([]string, len(catFields))
	for i, f := range catFields {
		vals[i] = f.get(s)
	}
	return vals
}

// NumericalValues returns the specimen's numerical values in registry
// order, presence indicator last.
func (s *Specimen) NumericalValues() []float64 {
	vals := make([]float64, len(numFields))
	for i, f := range numFields {
		vals[i] = f.get(s)
	}
	return vals
}

// SetCategorical assigns a categorical field by registry name. Unknown
// names are a schema mismatch; the dataset loader relies on this when
// mapping CSV headers.
func (s *Specimen) SetCategorical(name, value string) error {
	for _, f := range catFields {
		if f.name == name {
			f.set(s, value)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown categorical field %q", ErrSchemaMismatch, name)
}

// SetNumerical assigns a numerical field by registry name.
func (s *Specimen) SetNumerical(name string, value float64) error {
	for _, f := range numFields {
		if f.name == name {
			f.set(s, value)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown numerical field %q", ErrSchemaMismatch, name)
}

// FromMap validates a raw request mapping against the registry and builds a
// Specimen. Categorical fields are always required. Numerical fields are
// required except the presence indicator, which is derived: it becomes 1
// when the mapping carries a non-empty spore-print-color value and 0
// otherwise. Callers cannot set the indicator directly.
func FromMap(raw map[string]any) (Specimen, error) {
	var s Specimen

	for _, f := range catFields {
		v, ok := raw[f.name]
		if !ok || v == nil {
			return Specimen{}, fmt.Errorf("%w: missing required field %q", ErrSchemaMismatch, f.name)
		}
		str, ok := v.(string)
		if !ok {
			return Specimen{}, fmt.Errorf("%w: field %q must be a string", ErrSchemaMismatch, f.name)
		}
		f.set(&s, str)
	}

	for _, f := range numFields {
		if f.name == IndicatorField {
			continue
		}
		v, ok := raw[f.name]
		if !ok || v == nil {
			return Specimen{}, fmt.Errorf("%w: missing required field %q", ErrSchemaMismatch, f.name)
		}
		num, ok := toFloat(v)
		if !ok {
			return Specimen{}, fmt.Errorf("%w: field %q must be numeric", ErrSchemaMismatch, f.name)
		}
		f.set(&s, num)
	}

	if v, ok := raw[SporePrintField]; ok && v != nil {
		if str, isStr := v.(string); !isStr || str != "" {
			s.SporePrintPresent = 1
		}
	}

	return s, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
