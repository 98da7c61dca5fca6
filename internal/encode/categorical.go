// Package encode holds the fitted preprocessing state that sits between raw
// specimens and the classifier: the one-hot categorical encoder, the target
// label encoder, and the feature assembler that fixes column order.
//
// All state here is fitted once during training, serialized inside the
// artifact bundle, and never mutated afterwards.
package encode

import (
	"fmt"
	"sort"

	"mycoscan/internal/schema"
)

// CategoricalEncoder maps each categorical field's fit-time category set to
// a one-hot sub-vector. Category order within a field is sorted
// lexicographically at fit time and recorded explicitly, so the column
// position of every known value is fixed forever after Fit.
//
// Transform is total: a value never seen during fitting produces the
// all-zero sub-vector instead of an error, because live traffic may carry
// rare morphological codes absent from the training sample.
type CategoricalEncoder struct {
	// Fields lists the categorical field names in registry order.
	Fields []string `json:"fields"`
	// Categories holds, per field, the sorted category values observed at
	// fit time. Indexed parallel to Fields.
	Categories [][]string `json:"categories"`

	// index[i][value] is the column offset of value within field i's
	// sub-vector. Rebuilt lazily after deserialization.
	index []map[string]int
}

// FitCategorical scans every specimen and records the distinct values per
// categorical field, in sorted order. The field set and iteration order
// come from the schema registry, never from the rows themselves.
func FitCategorical(rows []schema.Specimen) *CategoricalEncoder {
	fields := schema.CategoricalFields()
	cats := make([][]string, len(fields))

	for i := range fields {
		seen := make(map[string]struct{})
		for r := range rows {
			seen[rows[r].CategoricalValues()[i]] = struct{}{}
		}
		vals := make([]string, 0, len(seen))
		for v := range seen {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		cats[i] = vals
	}

	enc := &CategoricalEncoder{Fields: fields, Categories: cats}
	enc.buildIndex()
	return enc
}

func (e *CategoricalEncoder) buildIndex() {
	e.index = make([]map[string]int, len(e.Categories))
	for i, vals := range e.Categories {
		m := make(map[string]int, len(vals))
		for j, v := range vals {
			m[v] = j
		}
		e.index[i] = m
	}
}

// Width returns the total one-hot block width across all fields.
func (e *CategoricalEncoder) Width() int {
	w := 0
	for _, vals := range e.Categories {
		w += len(vals)
	}
	return w
}

// Transform appends the specimen's one-hot block to dst and returns the
// extended slice. Unknown values contribute a zero sub-vector of the
// field's fixed width.
func (e *CategoricalEncoder) Transform(dst []float64, s *schema.Specimen) []float64 {
	if e.index == nil {
		e.buildIndex()
	}
	vals := s.CategoricalValues()
	for i := range e.Fields {
		sub := make([]float64, len(e.Categories[i]))
		if j, ok := e.index[i][vals[i]]; ok {
			sub[j] = 1
		}
		dst = append(dst, sub...)
	}
	return dst
}

// FeatureNames returns one column name per one-hot column, in the exact
// order Transform emits them, using the field_value convention.
func (e *CategoricalEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for i, field := range e.Fields {
		for _, v := range e.Categories[i] {
			names = append(names, fmt.Sprintf("%s_%s", field, v))
		}
	}
	return names
}

// Validate checks internal consistency after deserialization.
func (e *CategoricalEncoder) Validate() error {
	if len(e.Fields) != len(e.Categories) {
		return fmt.Errorf("categorical encoder: %d fields but %d category sets", len(e.Fields), len(e.Categories))
	}
	want := schema.CategoricalFields()
	if len(e.Fields) != len(want) {
		return fmt.Errorf("categorical encoder: %d fields, registry has %d", len(e.Fields), len(want))
	}
	for i, f := range e.Fields {
		if f != want[i] {
			return fmt.Errorf("categorical encoder: field %d is %q, registry says %q", i, f, want[i])
		}
		if len(e.Categories[i]) == 0 {
			return fmt.Errorf("categorical encoder: field %q has no categories", f)
		}
	}
	return nil
}
