package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkovalev/docximport/internal/importer"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     zerolog.Logger
}

// Open connects to the database named by driver ("postgres" or "sqlite")
// and dsn, and verifies the connection.
func Open(ctx context.Context, driver, dsn string, log zerolog.Logger) (*SQLStore, error) {
	var dialect Dialect
	switch driver {
	case "postgres":
		dialect = PostgresDialect{}
	case "sqlite":
		dialect = SQLiteDialect{}
	default:
		return nil, fmt.Errorf("Open: unsupported driver %q", driver)
	}

	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, &StorageError{Op: "opening database", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "pinging database", Err: err}
	}

	return NewSQLStore(db, dialect, log), nil
}

// NewSQLStore wraps an existing connection.
func NewSQLStore(db *sql.DB, dialect Dialect, log zerolog.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		log:     log,
	}
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// InsertRecords writes records into the named table one row at a time,
// in order. On failure it returns the number of rows already written
// together with the error; earlier rows stay persisted.
func (s *SQLStore) InsertRecords(ctx context.Context, table string, fields []string, records []importer.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query, err := s.buildInsertQuery(table, fields)
	if err != nil {
		return 0, &StorageError{Op: "building insert", Err: err}
	}

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, &StorageError{Op: fmt.Sprintf("preparing insert into %s", table), Err: err}
	}
	defer stmt.Close()

	written := 0
	for _, rec := range records {
		args := make([]any, len(fields))
		for i, f := range fields {
			args[i] = rec[f]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return written, &StorageError{Op: fmt.Sprintf("inserting row into %s", table), Err: err}
		}
		written++
	}

	return written, nil
}

func (s *SQLStore) buildInsertQuery(table string, fields []string) (string, error) {
	qTable, err := quoteIdent(table)
	if err != nil {
		return "", err
	}

	cols := make([]string, len(fields))
	params := make([]string, len(fields))
	for i, f := range fields {
		qf, err := quoteIdent(f)
		if err != nil {
			return "", err
		}
		cols[i] = qf
		params[i] = s.dialect.Placeholder(i + 1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qTable, strings.Join(cols, ", "), strings.Join(params, ", ")), nil
}

// DeleteAll removes every row from the named table.
func (s *SQLStore) DeleteAll(ctx context.Context, table string) error {
	qTable, err := quoteIdent(table)
	if err != nil {
		return &StorageError{Op: "building delete", Err: err}
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+qTable); err != nil {
		return &StorageError{Op: fmt.Sprintf("clearing %s", table), Err: err}
	}

	return nil
}

// InsertDocument inserts a metadata row for an uploaded document.
func (s *SQLStore) InsertDocument(ctx context.Context, row *DocumentRow) error {
	query := fmt.Sprintf(`
		INSERT INTO documents (document_id, original_filename, checksum_sha256, size_bytes, upload_ts)
		VALUES (%s, %s, %s, %s, %s)`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
		s.dialect.Placeholder(4), s.dialect.Placeholder(5))

	_, err := s.db.ExecContext(ctx, query,
		row.DocumentID, row.OriginalFilename, row.ChecksumSHA256, row.SizeBytes, row.UploadTS)
	if err != nil {
		return &StorageError{Op: "inserting document", Err: err}
	}

	return nil
}

// ListDocuments returns all document metadata rows, newest first.
func (s *SQLStore) ListDocuments(ctx context.Context) ([]*DocumentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, original_filename, checksum_sha256, size_bytes, upload_ts
		FROM documents
		ORDER BY upload_ts DESC`)
	if err != nil {
		return nil, &StorageError{Op: "listing documents", Err: err}
	}
	defer rows.Close()

	var result []*DocumentRow
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.DocumentID, &d.OriginalFilename, &d.ChecksumSHA256, &d.SizeBytes, &d.UploadTS); err != nil {
			return nil, &StorageError{Op: "scanning document", Err: err}
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterating documents", Err: err}
	}

	return result, nil
}

// StartImportRun creates an import_runs row with status=RUNNING and
// returns its ID.
func (s *SQLStore) StartImportRun(ctx context.Context, documentID, target string) (string, error) {
	runID := uuid.NewString()

	query := fmt.Sprintf(`
		INSERT INTO import_runs (run_id, document_id, target, started_ts, status)
		VALUES (%s, %s, %s, %s, %s)`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
		s.dialect.Placeholder(4), s.dialect.Placeholder(5))

	_, err := s.db.ExecContext(ctx, query, runID, documentID, target, time.Now().UTC(), StatusRunning)
	if err != nil {
		return "", &StorageError{Op: "starting import run", Err: err}
	}

	return runID, nil
}

// MarkImportRunSucceeded updates an import run to status=SUCCESS with the
// final row counts.
func (s *SQLStore) MarkImportRunSucceeded(ctx context.Context, runID string, extracted, written, skipped int) error {
	query := fmt.Sprintf(`
		UPDATE import_runs
		SET status = %s, finished_ts = %s, rows_extracted = %s, rows_written = %s, rows_skipped = %s
		WHERE run_id = %s`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
		s.dialect.Placeholder(4), s.dialect.Placeholder(5), s.dialect.Placeholder(6))

	_, err := s.db.ExecContext(ctx, query, StatusSuccess, time.Now().UTC(), extracted, written, skipped, runID)
	if err != nil {
		return &StorageError{Op: "finishing import run", Err: err}
	}

	return nil
}

// MarkImportRunFailed updates an import run to status=FAILED. Failures
// here are logged, not returned: the original import error is what the
// caller reports.
func (s *SQLStore) MarkImportRunFailed(ctx context.Context, runID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	query := fmt.Sprintf(`
		UPDATE import_runs
		SET status = %s, finished_ts = %s, error_message = %s
		WHERE run_id = %s`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2),
		s.dialect.Placeholder(3), s.dialect.Placeholder(4))

	if _, err := s.db.ExecContext(ctx, query, StatusFailed, time.Now().UTC(), errMsg, runID); err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Failed to mark import run as failed")
	}
}

// GetImportRun retrieves a single import run by ID.
func (s *SQLStore) GetImportRun(ctx context.Context, runID string) (*ImportRun, error) {
	query := fmt.Sprintf(`
		SELECT run_id, document_id, target, started_ts, finished_ts, status,
		       error_message, rows_extracted, rows_written, rows_skipped
		FROM import_runs
		WHERE run_id = %s`,
		s.dialect.Placeholder(1))

	run, err := scanImportRun(s.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, &StorageError{Op: "getting import run", Err: fmt.Errorf("run not found: %s", runID)}
	}
	if err != nil {
		return nil, &StorageError{Op: "getting import run", Err: err}
	}

	return run, nil
}

// ListImportRuns returns import runs, newest first, optionally filtered
// by document ID.
func (s *SQLStore) ListImportRuns(ctx context.Context, documentID string) ([]*ImportRun, error) {
	query := `
		SELECT run_id, document_id, target, started_ts, finished_ts, status,
		       error_message, rows_extracted, rows_written, rows_skipped
		FROM import_runs`
	var args []any
	if documentID != "" {
		query += " WHERE document_id = " + s.dialect.Placeholder(1)
		args = append(args, documentID)
	}
	query += " ORDER BY started_ts DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "listing import runs", Err: err}
	}
	defer rows.Close()

	var result []*ImportRun
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, &StorageError{Op: "scanning import run", Err: err}
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterating import runs", Err: err}
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportRun(r rowScanner) (*ImportRun, error) {
	var (
		run        ImportRun
		finishedTS sql.NullTime
		errMsg     sql.NullString
	)
	err := r.Scan(&run.RunID, &run.DocumentID, &run.Target, &run.StartedTS, &finishedTS,
		&run.Status, &errMsg, &run.RowsExtracted, &run.RowsWritten, &run.RowsSkipped)
	if err != nil {
		return nil, err
	}
	if finishedTS.Valid {
		t := finishedTS.Time
		run.FinishedTS = &t
	}
	run.ErrorMessage = errMsg.String

	return &run, nil
}

// Ensure SQLStore satisfies the composed store interface.
var _ Store = (*SQLStore)(nil)
