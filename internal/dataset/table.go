// Package dataset loads the semicolon-delimited training file and applies
// the cleaning stages of the training pipeline: deduplication, column
// pruning, indicator derivation, and imputation. It hands the pipeline a
// slice of specimens plus labels; everything downstream works on typed
// values, never on raw CSV cells.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// missing marks an absent cell. The loader normalizes empty strings and
// literal "NA"/"nan" cells to this.
const missing = ""

// Table is a column-named view over raw string rows. Cells equal to the
// empty string are missing values.
type Table struct {
	Columns []string
	Rows    [][]string
}

// LoadCSV reads a semicolon-separated file with a header row. Rows whose
// field count does not match the header are skipped with a warning rather
// than aborting the load.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Columns: header}
	skipped := 0
	for {
		record, err := reader.Read()
		if err != nil {
			break // EOF or unrecoverable parse error
		}
		if len(record) != len(header) {
			skipped++
			continue
		}
		row := make([]string, len(record))
		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "NA" || cell == "nan" || cell == "NaN" {
				cell = missing
			}
			row[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("path", path).Msg("skipped malformed dataset rows")
	}
	log.Info().Int("rows", len(t.Rows)).Int("columns", len(t.Columns)).Str("path", path).Msg("dataset loaded")
	return t, nil
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MissingFraction returns the fraction of missing cells in a column.
func (t *Table) MissingFraction(col int) float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		if row[col] == missing {
			n++
		}
	}
	return float64(n) / float64(len(t.Rows))
}

// DropColumns removes the named columns, preserving the order of the rest.
func (t *Table) DropColumns(names map[string]bool) {
	keep := make([]int, 0, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	for i, c := range t.Columns {
		if !names[c] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	for r, row := range t.Rows {
		next := make([]string, len(keep))
		for j, i := range keep {
			next[j] = row[i]
		}
		t.Rows[r] = next
	}
	t.Columns = cols
}
