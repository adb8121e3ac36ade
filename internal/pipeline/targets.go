package pipeline

import (
	"sort"

	"github.com/dkovalev/docximport/internal/importer"
)

// Target is a named import destination: the schema of the table rows are
// written to, plus the mapping options for documents of that kind.
type Target struct {
	Name    string
	Schema  importer.Schema
	Options importer.Options
}

// Registry holds the import targets an upload request can select by
// name. Registration happens at startup; lookups are read-only.
type Registry struct {
	targets map[string]Target
}

// NewRegistry creates an empty target registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Register adds or replaces a target.
func (r *Registry) Register(t Target) {
	r.targets[t.Name] = t
}

// Lookup returns the target with the given name.
func (r *Registry) Lookup(name string) (Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Names returns the registered target names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry preloaded with the built-in
// targets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Document402nTarget())
	return r
}

// Document402nTarget is the import target for the 402n medical service
// catalog document: a seven-column table whose first column repeats only
// on section boundaries, with a header row, re-uploaded wholesale on
// each revision.
func Document402nTarget() Target {
	repeat := 0
	return Target{
		Name: "document402n",
		Schema: importer.Schema{
			Table: "document402n",
			Fields: []importer.Field{
				{Name: "number_402n", Kind: importer.KindString},
				{Name: "class_402n", Kind: importer.KindString},
				{Name: "rubric_402n", Kind: importer.KindString},
				{Name: "service_code_402n", Kind: importer.KindString},
				{Name: "service_name_402n", Kind: importer.KindString},
				{Name: "service_code_add_402n", Kind: importer.KindString},
				{Name: "service_name_add_402n", Kind: importer.KindString},
			},
		},
		Options: importer.Options{
			ColumnMapping: map[int]string{
				0: "number_402n",
				1: "class_402n",
				2: "rubric_402n",
				3: "service_code_402n",
				4: "service_name_402n",
				5: "service_code_add_402n",
				6: "service_name_add_402n",
			},
			RepeatColumn:    &repeat,
			SkipHeader:      true,
			DropDuplicates:  true,
			ReplaceExisting: true,
		},
	}
}
