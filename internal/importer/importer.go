// Package importer converts extracted document rows into typed records
// and writes them to a target table.
package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const dateFormat = "2006-01-02"

// Record is a mapping from target field name to converted value. A nil
// value stands for SQL NULL.
type Record map[string]any

// RowMapper adjusts a record before it is persisted, or drops it by
// returning false. It is the per-deployment customization point for
// renaming, reformatting, or filtering fields.
type RowMapper func(Record) (Record, bool)

// ValidationError describes a row that was rejected during import. It is
// recovered locally: the row is skipped and the import continues.
type ValidationError struct {
	Line   int // 1-based CSV line number
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// RecordStore persists converted records. Implementations live in the
// store package; the importer only needs batch insert and truncate.
type RecordStore interface {
	// InsertRecords writes records into the named table and returns how
	// many were written. A non-nil error may accompany a non-zero count
	// when the import is partially applied.
	InsertRecords(ctx context.Context, table string, fields []string, records []Record) (int, error)

	// DeleteAll removes every row from the named table.
	DeleteAll(ctx context.Context, table string) error
}

// Options control how CSV rows are mapped onto the target schema.
type Options struct {
	// ColumnMapping maps CSV column index to target field name. When
	// empty, cells map positionally onto the schema fields.
	ColumnMapping map[int]string

	// RepeatColumn designates a column whose last non-empty value is
	// carried forward into empty cells of subsequent rows. Used for
	// tables with merged first-column cells.
	RepeatColumn *int

	// SkipHeader drops the first CSV row before import.
	SkipHeader bool

	// ReplaceExisting deletes all rows from the target table before
	// inserting, so a re-upload replaces the previous import.
	ReplaceExisting bool

	// DropDuplicates suppresses rows identical to an earlier row.
	DropDuplicates bool

	// Mapper is the row-to-record transformation hook. Nil means
	// identity.
	Mapper RowMapper
}

// Result summarizes one import.
type Result struct {
	Extracted int                `json:"extracted"`
	Written   int                `json:"written"`
	Skipped   int                `json:"skipped"`
	Errors    []*ValidationError `json:"errors,omitempty"`
}

// Importer parses intermediate CSV text into records matching a target
// schema and writes them through a RecordStore.
type Importer struct {
	store RecordStore
	log   zerolog.Logger
}

// New creates an Importer writing through the given store.
func New(store RecordStore, log zerolog.Logger) *Importer {
	return &Importer{
		store: store,
		log:   log,
	}
}

// ImportCSV parses csvText into records matching schema and persists
// them. Rows whose cell count differs from the schema width, or whose
// cells fail typed conversion, are skipped and recorded in the result;
// the import continues. A storage failure is returned as an error and
// may leave the import partially applied.
func (im *Importer) ImportCSV(ctx context.Context, csvText string, schema Schema, opts Options) (*Result, error) {
	rows, err := parseCSV(csvText)
	if err != nil {
		return nil, fmt.Errorf("ImportCSV: parsing csv: %w", err)
	}

	firstLine := 1
	if opts.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
		firstLine = 2
	}

	result := &Result{Extracted: len(rows)}

	var (
		records  []Record
		lastSeen string
		seen     map[string]bool
	)
	if opts.DropDuplicates {
		seen = make(map[string]bool)
	}

	for i, cells := range rows {
		line := firstLine + i

		if opts.RepeatColumn != nil {
			idx := *opts.RepeatColumn
			if idx >= 0 && idx < len(cells) {
				if strings.TrimSpace(cells[idx]) != "" {
					lastSeen = cells[idx]
				} else {
					cells[idx] = lastSeen
				}
			}
		}

		if len(cells) != schema.Width() {
			im.skip(result, line, fmt.Sprintf("cell count %d does not match schema width %d", len(cells), schema.Width()))
			continue
		}

		if opts.DropDuplicates {
			key := strings.Join(cells, string(Delimiter))
			if seen[key] {
				result.Skipped++
				continue
			}
			seen[key] = true
		}

		rec, err := im.buildRecord(cells, schema, opts.ColumnMapping)
		if err != nil {
			im.skip(result, line, err.Error())
			continue
		}

		if opts.Mapper != nil {
			mapped, keep := opts.Mapper(rec)
			if !keep {
				result.Skipped++
				continue
			}
			rec = mapped
		}

		records = append(records, rec)
	}

	written, err := im.persist(ctx, schema, opts, records)
	result.Written = written
	if err != nil {
		return result, err
	}

	im.log.Info().
		Str("table", schema.Table).
		Int("extracted", result.Extracted).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Msg("Import completed")

	return result, nil
}

// buildRecord maps a row's positional cells onto the schema fields and
// converts each cell to its field's kind. Empty cells become NULL.
func (im *Importer) buildRecord(cells []string, schema Schema, mapping map[int]string) (Record, error) {
	rec := make(Record, schema.Width())

	for i, cell := range cells {
		var field Field
		if len(mapping) > 0 {
			name, ok := mapping[i]
			if !ok {
				continue // unmapped column is dropped
			}
			field, ok = schema.FieldByName(name)
			if !ok {
				return nil, fmt.Errorf("column %d maps to unknown field %q", i, name)
			}
		} else {
			field = schema.Fields[i]
		}

		value, err := convertValue(cell, field.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %v", field.Name, err)
		}
		rec[field.Name] = value
	}

	return rec, nil
}

func (im *Importer) persist(ctx context.Context, schema Schema, opts Options, records []Record) (int, error) {
	if opts.ReplaceExisting {
		if err := im.store.DeleteAll(ctx, schema.Table); err != nil {
			return 0, fmt.Errorf("ImportCSV: clearing table %s: %w", schema.Table, err)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	written, err := im.store.InsertRecords(ctx, schema.Table, schema.FieldNames(), records)
	if err != nil {
		return written, fmt.Errorf("ImportCSV: inserting into %s: %w", schema.Table, err)
	}

	return written, nil
}

func (im *Importer) skip(result *Result, line int, reason string) {
	verr := &ValidationError{Line: line, Reason: reason}
	result.Skipped++
	result.Errors = append(result.Errors, verr)
	im.log.Warn().Int("line", line).Str("reason", reason).Msg("Row skipped")
}

// convertValue converts raw cell text to the typed value for kind. An
// empty cell converts to nil (SQL NULL) regardless of kind.
func convertValue(cell string, kind FieldKind) (any, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil, nil
	}

	switch kind {
	case KindString, "":
		return s, nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return b, nil
	case KindDate:
		d, err := time.Parse(dateFormat, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", kind)
	}
}
