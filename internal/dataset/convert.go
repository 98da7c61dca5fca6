package dataset

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"mycoscan/internal/schema"
)

// ToSpecimens converts a cleaned table into typed specimens plus their
// label codes. Every registry field must be present as a column; columns
// outside the registry are ignored with a warning, since the encoder can
// only consume registered fields.
func (t *Table) ToSpecimens() ([]schema.Specimen, []string, error) {
	target := t.ColumnIndex(schema.TargetField)
	if target < 0 {
		return nil, nil, fmt.Errorf("dataset has no %q column", schema.TargetField)
	}

	catIdx := make(map[string]int)
	for _, name := range schema.CategoricalFields() {
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, nil, fmt.Errorf("dataset missing categorical column %q", name)
		}
		catIdx[name] = i
	}
	numIdx := make(map[string]int)
	for _, name := range schema.NumericalFields() {
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, nil, fmt.Errorf("dataset missing numerical column %q", name)
		}
		numIdx[name] = i
	}

	known := make(map[string]bool, len(catIdx)+len(numIdx)+1)
	known[schema.TargetField] = true
	for n := range catIdx {
		known[n] = true
	}
	for n := range numIdx {
		known[n] = true
	}
	for _, c := range t.Columns {
		if !known[c] {
			log.Warn().Str("column", c).Msg("ignoring column outside the schema registry")
		}
	}

	specimens := make([]schema.Specimen, 0, len(t.Rows))
	labels := make([]string, 0, len(t.Rows))

	for r, row := range t.Rows {
		var s schema.Specimen
		for name, i := range catIdx {
			if err := s.SetCategorical(name, row[i]); err != nil {
				return nil, nil, err
			}
		}
		for name, i := range numIdx {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: column %q: %w", r, name, err)
			}
			if err := s.SetNumerical(name, v); err != nil {
				return nil, nil, err
			}
		}
		specimens = append(specimens, s)
		labels = append(labels, row[target])
	}

	return specimens, labels, nil
}
