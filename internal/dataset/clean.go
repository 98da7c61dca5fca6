package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"mycoscan/internal/schema"
)

// MaxMissingFraction is the pruning threshold: columns with more missing
// cells than this are dropped, except the indicator-eligible column.
const MaxMissingFraction = 0.8

// UnknownCategory is the sentinel substituted for missing categorical cells
// during training-data cleaning. It becomes an ordinary category at encoder
// fit time.
const UnknownCategory = "Unknown"

// Deduplicate removes exact-duplicate rows, keeping first occurrences.
// Returns the number of rows removed.
func (t *Table) Deduplicate() int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

// DeriveIndicator appends the presence-indicator column computed from the
// spore-print-color column (1 where present, 0 where missing) and drops the
// raw column. The raw value never reaches the feature matrix; only its
// presence carries signal.
func (t *Table) DeriveIndicator() {
	src := t.ColumnIndex(schema.SporePrintField)
	t.Columns = append(t.Columns, schema.IndicatorField)
	for r, row := range t.Rows {
		v := "0"
		if src >= 0 && row[src] != missing {
			v = "1"
		}
		t.Rows[r] = append(row, v)
	}
	if src >= 0 {
		t.DropColumns(map[string]bool{schema.SporePrintField: true})
	}
}

// PruneColumns drops columns with zero variance or with a missing fraction
// above MaxMissingFraction. The target column and the derived indicator are
// never pruned. Returns the dropped column names.
func (t *Table) PruneColumns() []string {
	drop := make(map[string]bool)
	for i, name := range t.Columns {
		if name == schema.TargetField || name == schema.IndicatorField {
			continue
		}
		if frac := t.MissingFraction(i); frac > MaxMissingFraction {
			log.Info().Str("column", name).Float64("missing", frac).Msg("dropping sparse column")
			drop[name] = true
			continue
		}
		if !t.hasVariance(i) {
			log.Info().Str("column", name).Msg("dropping zero-variance column")
			drop[name] = true
		}
	}
	t.DropColumns(drop)

	names := make([]string, 0, len(drop))
	for n := range drop {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (t *Table) hasVariance(col int) bool {
	first := ""
	seen := false
	for _, row := range t.Rows {
		if row[col] == missing {
			continue
		}
		if !seen {
			first = row[col]
			seen = true
			continue
		}
		if row[col] != first {
			return true
		}
	}
	return false
}

// Impute fills remaining missing cells: the sentinel category for
// categorical columns, the column median for numerical columns. Applies
// only to training-data cleaning; the inference path has no imputation and
// fails closed on missing fields.
func (t *Table) Impute() error {
	numeric := make(map[string]bool)
	for _, n := range schema.NumericalFields() {
		numeric[n] = true
	}

	for i, name := range t.Columns {
		if name == schema.TargetField || t.MissingFraction(i) == 0 {
			continue
		}
		if numeric[name] {
			med, err := t.columnMedian(i)
			if err != nil {
				return fmt.Errorf("impute %s: %w", name, err)
			}
			fill := strconv.FormatFloat(med, 'g', -1, 64)
			for _, row := range t.Rows {
				if row[i] == missing {
					row[i] = fill
				}
			}
		} else {
			for _, row := range t.Rows {
				if row[i] == missing {
					row[i] = UnknownCategory
				}
			}
		}
	}
	return nil
}

func (t *Table) columnMedian(col int) (float64, error) {
	vals := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row[col] == missing {
			continue
		}
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric cell %q: %w", row[col], err)
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("no observed values")
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.Empirical, vals, nil), nil
}
