// Package docx extracts table data from DOCX documents.
//
// A DOCX file is a ZIP container holding the WordprocessingML body in
// word/document.xml. Tables are w:tbl elements composed of w:tr rows and
// w:tc cells; cell text lives in w:t runs. Extraction walks the XML token
// stream once and yields rows of plain cell text in document order.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Row is an ordered sequence of cell text for one table row.
type Row []string

// FormatError indicates the input is not a readable DOCX document or
// contains no tables. It is fatal for the import: the caller surfaces it
// to the admin user as an upload failure.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("docx: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("docx: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

const documentPath = "word/document.xml"

// ExtractBytes extracts all table rows from an in-memory DOCX document.
func ExtractBytes(data []byte) ([]Row, error) {
	return Extract(bytes.NewReader(data), int64(len(data)))
}

// Extract opens the DOCX container and returns the rows of every table in
// the document body, preserving document order. It returns a *FormatError
// when the container cannot be opened, the document body is missing or
// malformed, or the document contains no tables.
func Extract(r io.ReaderAt, size int64) ([]Row, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &FormatError{Reason: "opening container", Err: err}
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == documentPath {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, &FormatError{Reason: fmt.Sprintf("missing %s", documentPath)}
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, &FormatError{Reason: "opening document body", Err: err}
	}
	defer rc.Close()

	rows, err := parseTables(rc)
	if err != nil {
		return nil, &FormatError{Reason: "parsing document body", Err: err}
	}
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "document contains no tables"}
	}

	return rows, nil
}

// parseTables walks the WordprocessingML token stream and collects table
// rows. Only top-level table structure is tracked; text inside nested
// tables flows into the enclosing cell.
func parseTables(r io.Reader) ([]Row, error) {
	dec := xml.NewDecoder(r)

	var (
		rows     []Row
		row      Row
		cell     strings.Builder
		tblDepth int
		inRow    bool
		inCell   bool
		inText   bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					row = Row{}
					inRow = true
				}
			case "tc":
				if tblDepth == 1 && inRow {
					cell.Reset()
					inCell = true
				}
			case "t":
				if inCell {
					inText = true
				}
			case "br", "cr", "tab":
				if inCell {
					cell.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth--
			case "tr":
				if tblDepth == 1 && inRow {
					rows = append(rows, row)
					inRow = false
				}
			case "tc":
				if tblDepth == 1 && inCell {
					row = append(row, cleanCellText(cell.String()))
					inCell = false
				}
			case "t":
				inText = false
			case "p":
				// Paragraph boundaries inside a cell become spaces,
				// matching a flattened single-line cell value.
				if inCell {
					cell.WriteByte(' ')
				}
			}
		case xml.CharData:
			if inCell && inText {
				cell.Write(t)
			}
		}
	}

	return rows, nil
}

// cleanCellText collapses all runs of whitespace (including newlines from
// multi-paragraph cells) into single spaces and trims the result.
func cleanCellText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
