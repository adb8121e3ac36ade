// Package store persists imported records and import metadata in a
// relational database. It speaks database/sql and supports PostgreSQL
// (github.com/lib/pq) and SQLite (modernc.org/sqlite).
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dkovalev/docximport/internal/importer"
)

// Import run status values.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// DocumentRow is the metadata record kept for every uploaded document.
type DocumentRow struct {
	DocumentID       string    `json:"document_id"`
	OriginalFilename string    `json:"original_filename"`
	ChecksumSHA256   string    `json:"checksum_sha256"`
	SizeBytes        int64     `json:"size_bytes"`
	UploadTS         time.Time `json:"upload_ts"`
}

// ImportRun records one import attempt for a document, including the row
// counts the importer reported.
type ImportRun struct {
	RunID         string     `json:"run_id"`
	DocumentID    string     `json:"document_id"`
	Target        string     `json:"target"`
	StartedTS     time.Time  `json:"started_ts"`
	FinishedTS    *time.Time `json:"finished_ts,omitempty"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	RowsExtracted int        `json:"rows_extracted"`
	RowsWritten   int        `json:"rows_written"`
	RowsSkipped   int        `json:"rows_skipped"`
}

// StorageError indicates a database write or read failure. An import that
// hits one is surfaced to the caller and may be partially applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ImportRepository is the metadata side of the store: document records
// and import run tracking. The record side is importer.RecordStore.
type ImportRepository interface {
	InsertDocument(ctx context.Context, row *DocumentRow) error
	ListDocuments(ctx context.Context) ([]*DocumentRow, error)

	StartImportRun(ctx context.Context, documentID, target string) (string, error)
	MarkImportRunSucceeded(ctx context.Context, runID string, extracted, written, skipped int) error
	MarkImportRunFailed(ctx context.Context, runID string, runErr error)
	GetImportRun(ctx context.Context, runID string) (*ImportRun, error)
	ListImportRuns(ctx context.Context, documentID string) ([]*ImportRun, error)
}

// Store bundles the interfaces the pipeline needs from one backend.
type Store interface {
	importer.RecordStore
	ImportRepository
}
