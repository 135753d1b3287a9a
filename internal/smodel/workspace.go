package smodel

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ImportResult is the outcome of one (imp) directive. Models lists the keys copied into the
// importing workspace; it is empty when Err is set.
type ImportResult struct {
	File   string
	Models []string
	Err    error
}

// importGuard maps every file of one top-level parse to its workspace. It is passed down the
// import recursion by reference and only ever grows.
type importGuard map[string]*Workspace

// Workspace is the parse state of one model file.
type Workspace struct {
	file string

	vertices   map[string]Vertex
	triangles  map[string]Triangle
	models     map[string]Model
	namespaces map[string][]string
	exported   map[string]Model

	imports []ImportResult
	files   importGuard // set on the top-level workspace only
}

func newWorkspace(file string) *Workspace {
	return &Workspace{
		file:       file,
		vertices:   make(map[string]Vertex),
		triangles:  make(map[string]Triangle),
		models:     make(map[string]Model),
		namespaces: make(map[string][]string),
		exported:   make(map[string]Model),
	}
}

// File returns the cleaned name the workspace was parsed from.
func (w *Workspace) File() string { return w.file }

// exportKey builds the "namespace.model" lookup key.
func exportKey(ns, name string) string { return ns + "." + name }

// finalize publishes every queued (exm) export. A key that is already bound keeps its first
// binding.
func (w *Workspace) finalize() {
	for _, ns := range slices.Sorted(maps.Keys(w.namespaces)) {
		for _, name := range w.namespaces[ns] {
			key := exportKey(ns, name)
			if _, ok := w.exported[key]; ok {
				continue
			}
			w.exported[key] = w.models[name].Clone()
		}
	}
}

// release drops the scratch tables. Imported workspaces also drop their named models since
// their exports have been copied into the importer.
func (w *Workspace) release(top bool) {
	w.vertices = nil
	w.triangles = nil
	w.namespaces = nil
	if !top {
		w.models = nil
	}
}

// ExportedModel returns a copy of the model exported under key ("namespace.name").
func (w *Workspace) ExportedModel(key string) (Model, error) {
	m, ok := w.exported[key]
	if !ok {
		return nil, fmt.Errorf("%w: no exported model %q in %s", ErrLookup, key, w.file)
	}
	return m.Clone(), nil
}

// Model returns a copy of a named model. Only the top-level workspace keeps its named models.
func (w *Workspace) Model(name string) (Model, error) {
	m, ok := w.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: no named model %q in %s", ErrLookup, name, w.file)
	}
	return m.Clone(), nil
}

// ExportedModelData flattens an exported model and returns the buffer with its vertex count.
func (w *Workspace) ExportedModelData(key string) ([]float32, int, error) {
	m, ok := w.exported[key]
	if !ok {
		return nil, 0, fmt.Errorf("%w: no exported model %q in %s", ErrLookup, key, w.file)
	}
	f := Flatten(m)
	return f, len(f) / 3, nil
}

// ModelData flattens a named model and returns the buffer with its vertex count.
func (w *Workspace) ModelData(name string) ([]float32, int, error) {
	m, ok := w.models[name]
	if !ok {
		return nil, 0, fmt.Errorf("%w: no named model %q in %s", ErrLookup, name, w.file)
	}
	f := Flatten(m)
	return f, len(f) / 3, nil
}

// ExportedKeys returns the exported lookup keys in sorted order.
func (w *Workspace) ExportedKeys() []string {
	return slices.Sorted(maps.Keys(w.exported))
}

// ModelNames returns the retained named models in sorted order.
func (w *Workspace) ModelNames() []string {
	return slices.Sorted(maps.Keys(w.models))
}

// Imports returns the result of every (imp) directive in file order.
func (w *Workspace) Imports() []ImportResult {
	return slices.Clone(w.imports)
}

// Files lists every file parsed as part of this workspace tree, the workspace's own file
// included. It is empty for imported workspaces.
func (w *Workspace) Files() []string {
	return slices.Sorted(maps.Keys(w.files))
}

func (w *Workspace) String() string {
	var b strings.Builder
	b.WriteString("\nNamed models:\n")
	for _, name := range w.ModelNames() {
		fmt.Fprintf(&b, "    %s (%d triangles)\n", name, len(w.models[name]))
	}
	b.WriteString("\nExported models:\n")
	for _, key := range w.ExportedKeys() {
		fmt.Fprintf(&b, "    %s (%d triangles)\n", key, len(w.exported[key]))
	}
	return b.String()
}
