package store

import (
	"context"
)

// Migrate creates the metadata tables when they do not exist yet. Target
// tables for imported records are deployment-owned and not managed here.
func (s *SQLStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			document_id       TEXT PRIMARY KEY,
			original_filename TEXT NOT NULL,
			checksum_sha256   TEXT NOT NULL DEFAULT '',
			size_bytes        BIGINT NOT NULL DEFAULT 0,
			upload_ts         TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS import_runs (
			run_id         TEXT PRIMARY KEY,
			document_id    TEXT NOT NULL,
			target         TEXT NOT NULL,
			started_ts     TIMESTAMP NOT NULL,
			finished_ts    TIMESTAMP,
			status         TEXT NOT NULL,
			error_message  TEXT,
			rows_extracted INTEGER NOT NULL DEFAULT 0,
			rows_written   INTEGER NOT NULL DEFAULT 0,
			rows_skipped   INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: "running migration", Err: err}
		}
	}

	return nil
}
