package importer

// FieldKind identifies how a raw cell value is converted before it is
// written to the target table.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindInt    FieldKind = "int"
	KindFloat  FieldKind = "float"
	KindBool   FieldKind = "bool"
	KindDate   FieldKind = "date" // YYYY-MM-DD
)

// Field describes one column of the target table.
type Field struct {
	Name string
	Kind FieldKind
}

// Schema describes the target table a document is imported into. Width
// (the number of fields) is the expected cell count per row; rows that do
// not match are rejected.
type Schema struct {
	Table  string
	Fields []Field
}

// Width returns the expected number of cells per row.
func (s Schema) Width() int {
	return len(s.Fields)
}

// FieldNames returns the target field names in schema order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the field with the given name.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
