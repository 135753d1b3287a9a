package smodel

import "fmt"

// Ref names one exported model of one file.
type Ref struct {
	File string `yaml:"file"`
	Key  string `yaml:"key"`
}

// Data is the flattened geometry of a Ref.
type Data struct {
	Ref
	Floats      []float32
	VertexCount int
}

// LoadList parses every referenced file once and returns the flattened exported models in
// the order given. The first failure stops the load.
func (p *Parser) LoadList(refs []Ref) ([]Data, error) {
	parsed := make(map[string]*Workspace)
	out := make([]Data, 0, len(refs))
	for _, ref := range refs {
		ws, ok := parsed[ref.File]
		if !ok {
			var err error
			ws, err = p.ParseFile(ref.File)
			if err != nil {
				return nil, fmt.Errorf("smodel: load %s: %w", ref.File, err)
			}
			parsed[ref.File] = ws
		}
		floats, n, err := ws.ExportedModelData(ref.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, Data{Ref: ref, Floats: floats, VertexCount: n})
	}
	return out, nil
}
