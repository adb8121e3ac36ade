package docx_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/docximport/internal/docx"
	"github.com/dkovalev/docximport/internal/docx/docxtest"
)

func TestExtractBytes_SingleTable(t *testing.T) {
	data := docxtest.Build([][]string{
		{"Alice", "30"},
		{"Bob", "25"},
	})

	rows, err := docx.ExtractBytes(data)
	require.NoError(t, err)

	want := []docx.Row{
		{"Alice", "30"},
		{"Bob", "25"},
	}
	assert.Equal(t, want, rows)
}

func TestExtractBytes_MultipleTablesPreserveOrder(t *testing.T) {
	data := docxtest.Build(
		[][]string{{"a1", "a2"}},
		[][]string{{"b1", "b2"}, {"b3", "b4"}},
	)

	rows, err := docx.ExtractBytes(data)
	require.NoError(t, err)

	want := []docx.Row{
		{"a1", "a2"},
		{"b1", "b2"},
		{"b3", "b4"},
	}
	assert.Equal(t, want, rows)
}

func TestExtractBytes_MultiParagraphCellFlattened(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc>` +
		`<w:p><w:r><w:t>first line</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>second line</w:t></w:r></w:p>` +
		`</w:tc></w:tr></w:tbl>`

	rows, err := docx.ExtractBytes(docxtest.BuildRawBody(body))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, docx.Row{"first line second line"}, rows[0])
}

func TestExtractBytes_SplitRunsAndBreaks(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc><w:p>` +
		`<w:r><w:t>Hel</w:t></w:r>` +
		`<w:r><w:t>lo</w:t></w:r>` +
		`<w:r><w:br/><w:t>World</w:t></w:r>` +
		`</w:p></w:tc></w:tr></w:tbl>`

	rows, err := docx.ExtractBytes(docxtest.BuildRawBody(body))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, docx.Row{"Hello World"}, rows[0])
}

func TestExtractBytes_IgnoresTextOutsideTables(t *testing.T) {
	body := `<w:p><w:r><w:t>preamble text</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`

	rows, err := docx.ExtractBytes(docxtest.BuildRawBody(body))
	require.NoError(t, err)

	assert.Equal(t, []docx.Row{{"cell"}}, rows)
}

func TestExtractBytes_NoTables(t *testing.T) {
	body := `<w:p><w:r><w:t>just a paragraph</w:t></w:r></w:p>`

	rows, err := docx.ExtractBytes(docxtest.BuildRawBody(body))
	assert.Nil(t, rows)

	var formatErr *docx.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Error(), "no tables")
}

func TestExtractBytes_NotAZipArchive(t *testing.T) {
	_, err := docx.ExtractBytes([]byte("this is not a docx file"))

	var formatErr *docx.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestExtractBytes_MissingDocumentBody(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = docx.ExtractBytes(buf.Bytes())

	var formatErr *docx.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Error(), "word/document.xml")
}

func TestExtractBytes_MalformedBody(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<w:document><w:body><w:tbl>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = docx.ExtractBytes(buf.Bytes())

	var formatErr *docx.FormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestFormatError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &docx.FormatError{Reason: "opening container", Err: cause}

	assert.ErrorIs(t, err, cause)
}
