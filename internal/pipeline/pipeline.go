// Package pipeline orchestrates one document import: metadata record,
// import run tracking, table extraction, CSV conversion, and record
// import. Processing is synchronous and request-scoped; each upload runs
// the whole pipeline once.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkovalev/docximport/internal/docx"
	"github.com/dkovalev/docximport/internal/importer"
	"github.com/dkovalev/docximport/internal/store"
)

// ErrUnknownTarget is returned when the requested import target is not
// registered.
var ErrUnknownTarget = errors.New("unknown import target")

// CSVImporter is the record-import collaborator. Satisfied by
// *importer.Importer; declared here so tests can substitute it.
type CSVImporter interface {
	ImportCSV(ctx context.Context, csvText string, schema importer.Schema, opts importer.Options) (*importer.Result, error)
}

// Request describes one uploaded document to import.
type Request struct {
	Filename string
	Content  []byte
	Target   string
}

// Result reports the outcome of one import.
type Result struct {
	DocumentID string           `json:"document_id"`
	RunID      string           `json:"run_id"`
	Target     string           `json:"target"`
	ElapsedMS  int64            `json:"elapsed_ms"`
	Import     *importer.Result `json:"import"`
}

// Pipeline wires the import collaborators together.
type Pipeline struct {
	repo     store.ImportRepository
	importer CSVImporter
	targets  *Registry
	log      zerolog.Logger
}

// New creates a Pipeline.
func New(repo store.ImportRepository, imp CSVImporter, targets *Registry, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		repo:     repo,
		importer: imp,
		targets:  targets,
		log:      log,
	}
}

// ImportDocument runs the full import for one uploaded document:
// document record → import run → extract tables → convert to CSV →
// import records → finish run. Extraction and conversion failures mark
// the run FAILED and are returned; per-row validation failures are
// recorded in the result and do not fail the import.
func (p *Pipeline) ImportDocument(ctx context.Context, req Request) (*Result, error) {
	target, ok := p.targets.Lookup(req.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, req.Target)
	}

	start := time.Now()

	documentID, err := p.createDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	runID, err := p.repo.StartImportRun(ctx, documentID, target.Name)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DocumentID: documentID,
		RunID:      runID,
		Target:     target.Name,
	}

	rows, err := docx.ExtractBytes(req.Content)
	if err != nil {
		p.repo.MarkImportRunFailed(ctx, runID, err)
		return result, err
	}

	csvText, err := importer.ConvertToCSV(rows)
	if err != nil {
		p.repo.MarkImportRunFailed(ctx, runID, err)
		return result, fmt.Errorf("ImportDocument: converting to csv: %w", err)
	}

	importResult, err := p.importer.ImportCSV(ctx, csvText, target.Schema, target.Options)
	result.Import = importResult
	if err != nil {
		p.repo.MarkImportRunFailed(ctx, runID, err)
		return result, err
	}

	if err := p.repo.MarkImportRunSucceeded(ctx, runID,
		importResult.Extracted, importResult.Written, importResult.Skipped); err != nil {
		return result, err
	}

	result.ElapsedMS = time.Since(start).Milliseconds()

	p.log.Info().
		Str("document_id", documentID).
		Str("run_id", runID).
		Str("target", target.Name).
		Int("written", importResult.Written).
		Int("skipped", importResult.Skipped).
		Int64("elapsed_ms", result.ElapsedMS).
		Msg("Document imported")

	return result, nil
}

// createDocument records metadata for the uploaded file and returns the
// new document ID.
func (p *Pipeline) createDocument(ctx context.Context, req Request) (string, error) {
	documentID := uuid.NewString()
	checksum := sha256.Sum256(req.Content)

	row := &store.DocumentRow{
		DocumentID:       documentID,
		OriginalFilename: req.Filename,
		ChecksumSHA256:   hex.EncodeToString(checksum[:]),
		SizeBytes:        int64(len(req.Content)),
		UploadTS:         time.Now().UTC(),
	}

	if err := p.repo.InsertDocument(ctx, row); err != nil {
		return "", err
	}

	return documentID, nil
}
