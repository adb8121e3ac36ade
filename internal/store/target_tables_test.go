package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/docximport/internal/importer"
)

func TestCreateTargetTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	schema := importer.Schema{
		Table: "catalog",
		Fields: []importer.Field{
			{Name: "code", Kind: importer.KindString},
			{Name: "quantity", Kind: importer.KindInt},
			{Name: "price", Kind: importer.KindFloat},
			{Name: "active", Kind: importer.KindBool},
			{Name: "issued", Kind: importer.KindDate},
		},
	}

	require.NoError(t, s.CreateTargetTable(ctx, schema))
	// Idempotent: a second run is a no-op.
	require.NoError(t, s.CreateTargetTable(ctx, schema))

	written, err := s.InsertRecords(ctx, "catalog",
		[]string{"code", "quantity", "price", "active", "issued"},
		[]importer.Record{
			{"code": "A1", "quantity": int64(3), "price": 9.99, "active": true, "issued": nil},
		})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
}

func TestCreateTargetTable_InvalidIdentifier(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateTargetTable(context.Background(), importer.Schema{
		Table:  "bad table",
		Fields: []importer.Field{{Name: "x", Kind: importer.KindString}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid identifier")
}
