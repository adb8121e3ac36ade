package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkovalev/docximport/internal/importer"
)

// columnType maps a field kind to a column type both supported databases
// accept.
func columnType(kind importer.FieldKind) string {
	switch kind {
	case importer.KindInt:
		return "BIGINT"
	case importer.KindFloat:
		return "DOUBLE PRECISION"
	case importer.KindBool:
		return "BOOLEAN"
	case importer.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// CreateTargetTable creates the table for an import target schema when
// it does not exist yet. All columns are nullable: empty document cells
// import as NULL.
func (s *SQLStore) CreateTargetTable(ctx context.Context, schema importer.Schema) error {
	qTable, err := quoteIdent(schema.Table)
	if err != nil {
		return &StorageError{Op: "creating target table", Err: err}
	}

	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		qCol, err := quoteIdent(f.Name)
		if err != nil {
			return &StorageError{Op: "creating target table", Err: err}
		}
		cols[i] = qCol + " " + columnType(f.Kind)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", qTable, strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return &StorageError{Op: fmt.Sprintf("creating table %s", schema.Table), Err: err}
	}

	s.log.Info().Str("table", schema.Table).Msg("Target table ready")
	return nil
}
