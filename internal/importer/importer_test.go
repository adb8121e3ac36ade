package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/docximport/internal/docx"
	"github.com/dkovalev/docximport/internal/logger"
)

// mockStore is an in-memory RecordStore for testing.
type mockStore struct {
	inserted   []Record
	fields     []string
	table      string
	deletedAll bool
	insertErr  error
}

func (m *mockStore) InsertRecords(ctx context.Context, table string, fields []string, records []Record) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.table = table
	m.fields = fields
	m.inserted = append(m.inserted, records...)
	return len(records), nil
}

func (m *mockStore) DeleteAll(ctx context.Context, table string) error {
	m.deletedAll = true
	return nil
}

func personSchema() Schema {
	return Schema{
		Table: "people",
		Fields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "age", Kind: KindInt},
		},
	}
}

func newTestImporter(store RecordStore) *Importer {
	return New(store, logger.New())
}

func TestImportCSV_WellFormedRows(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{
		{"Alice", "30"},
		{"Bob", "25"},
	})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Extracted)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, store.inserted, 2)
	assert.Equal(t, Record{"name": "Alice", "age": int64(30)}, store.inserted[0])
	assert.Equal(t, Record{"name": "Bob", "age": int64(25)}, store.inserted[1])
	assert.Equal(t, "people", store.table)
	assert.Equal(t, []string{"name", "age"}, store.fields)
}

func TestImportCSV_RoundTripPreservesValues(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	rows := []docx.Row{
		{"semi;colon", "1"},
		{`quoted "text"`, "2"},
		{"plain, with comma", "3"},
	}
	csvText, err := ConvertToCSV(rows)
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{})
	require.NoError(t, err)
	require.Equal(t, 3, result.Written)

	for i, row := range rows {
		assert.Equal(t, row[0], store.inserted[i]["name"])
	}
}

func TestImportCSV_ShortRowSkipped(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{
		{"Alice", "30"},
		{"Bob"}, // missing age cell
		{"Carol", "41"},
	})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Extracted)
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Reason, "schema width")
}

func TestImportCSV_ConversionFailureSkipsRow(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{
		{"Alice", "thirty"},
		{"Bob", "25"},
	})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "invalid integer")
}

func TestImportCSV_MapperDropsRows(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{
		{"Alice", "30"},
		{"Kid", "12"},
		{"Bob", "25"},
	})
	require.NoError(t, err)

	opts := Options{
		Mapper: func(rec Record) (Record, bool) {
			if age, ok := rec["age"].(int64); ok && age < 18 {
				return nil, false
			}
			return rec, true
		},
	}

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors, "mapper drops are not validation errors")
	require.Len(t, store.inserted, 2)
	assert.Equal(t, "Alice", store.inserted[0]["name"])
	assert.Equal(t, "Bob", store.inserted[1]["name"])
}

func TestImportCSV_MapperRewritesFields(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{{"alice", "30"}})
	require.NoError(t, err)

	opts := Options{
		Mapper: func(rec Record) (Record, bool) {
			if name, ok := rec["name"].(string); ok {
				rec["name"] = "MR/MS " + name
			}
			return rec, true
		},
	}

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)
	assert.Equal(t, "MR/MS alice", store.inserted[0]["name"])
}

func TestImportCSV_ColumnMapping(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	// Three CSV columns; the middle one is dropped by the mapping.
	schema := Schema{
		Table: "people",
		Fields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "age", Kind: KindInt},
			{Name: "city", Kind: KindString},
		},
	}
	csvText, err := ConvertToCSV([]docx.Row{{"Alice", "ignored", "30"}})
	require.NoError(t, err)

	opts := Options{
		ColumnMapping: map[int]string{
			0: "name",
			2: "age",
		},
	}

	result, err := im.ImportCSV(context.Background(), csvText, schema, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)

	rec := store.inserted[0]
	assert.Equal(t, "Alice", rec["name"])
	assert.Equal(t, int64(30), rec["age"])
	_, hasCity := rec["city"]
	assert.False(t, hasCity)
}

func TestImportCSV_RepeatColumnForwardFill(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	schema := Schema{
		Table: "entries",
		Fields: []Field{
			{Name: "section", Kind: KindString},
			{Name: "item", Kind: KindString},
		},
	}
	csvText, err := ConvertToCSV([]docx.Row{
		{"A", "first"},
		{"", "second"},
		{"B", "third"},
		{"", "fourth"},
	})
	require.NoError(t, err)

	repeat := 0
	result, err := im.ImportCSV(context.Background(), csvText, schema, Options{RepeatColumn: &repeat})
	require.NoError(t, err)
	require.Equal(t, 4, result.Written)

	assert.Equal(t, "A", store.inserted[1]["section"])
	assert.Equal(t, "B", store.inserted[3]["section"])
}

func TestImportCSV_SkipHeader(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{
		{"name", "age"},
		{"Alice", "30"},
	})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{SkipHeader: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Extracted)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, "Alice", store.inserted[0]["name"])
}

func TestImportCSV_DropDuplicates(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{
		{"Alice", "30"},
		{"Alice", "30"},
		{"Bob", "25"},
	})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{DropDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Skipped)
}

func TestImportCSV_ReplaceExisting(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{{"Alice", "30"}})
	require.NoError(t, err)

	_, err = im.ImportCSV(context.Background(), csvText, personSchema(), Options{ReplaceExisting: true})
	require.NoError(t, err)

	assert.True(t, store.deletedAll)
}

func TestImportCSV_StoreErrorSurfaces(t *testing.T) {
	cause := errors.New("connection refused")
	store := &mockStore{insertErr: cause}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{{"Alice", "30"}})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, result.Written)
}

func TestImportCSV_EmptyCellBecomesNull(t *testing.T) {
	store := &mockStore{}
	im := newTestImporter(store)

	csvText, err := ConvertToCSV([]docx.Row{{"Alice", ""}})
	require.NoError(t, err)

	result, err := im.ImportCSV(context.Background(), csvText, personSchema(), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)

	assert.Nil(t, store.inserted[0]["age"])
}

func TestConvertToCSV_QuotesEmbeddedDelimiter(t *testing.T) {
	csvText, err := ConvertToCSV([]docx.Row{{"a;b", "c"}})
	require.NoError(t, err)

	assert.Equal(t, "\"a;b\";c\n", csvText)
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name    string
		cell    string
		kind    FieldKind
		want    any
		wantErr bool
	}{
		{name: "string", cell: "hello", kind: KindString, want: "hello"},
		{name: "trimmed string", cell: "  hello  ", kind: KindString, want: "hello"},
		{name: "int", cell: "42", kind: KindInt, want: int64(42)},
		{name: "float", cell: "3.14", kind: KindFloat, want: 3.14},
		{name: "bool", cell: "true", kind: KindBool, want: true},
		{name: "empty is null", cell: "", kind: KindInt, want: nil},
		{name: "blank is null", cell: "   ", kind: KindString, want: nil},
		{name: "bad int", cell: "abc", kind: KindInt, wantErr: true},
		{name: "bad date", cell: "31/12/2024", kind: KindDate, wantErr: true},
		{name: "unknown kind", cell: "x", kind: FieldKind("blob"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertValue(tt.cell, tt.kind)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
