package smodel

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `
<** unit square in the XY plane **>
(nv) a 0 0 0
(nv) b 1 0 0
(nv) c 1 1 0
(nv) d 0 1 0
(nt) lower a b c
(nt) upper a c d
(nm) square 2 lower upper
`

func parseString(t *testing.T, src string) (*Workspace, error) {
	t.Helper()
	return NewParser(Options{FS: fstest.MapFS{}}).Parse("main.smdl", []byte(src))
}

func mustParse(t *testing.T, src string) *Workspace {
	t.Helper()
	ws, err := parseString(t, src)
	require.NoError(t, err)
	return ws
}

func TestParse_NamedVertex(t *testing.T) {
	// --- Arrange ---
	// Vertices are scratch state, so observe one through a triangle and model.
	src := `
(nv) a 1.5 -2.25 3e2
(nv) b 0 0 0
(nt) t a b a
(nm) m 1 t
`
	// --- Act ---
	ws := mustParse(t, src)

	// --- Assert ---
	m, err := ws.Model("m")
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, Vertex{1.5, -2.25, 300}, m[0][0])
	assert.Equal(t, Vertex{1.5, -2.25, 300}, m[0][2])
}

func TestParse_DuplicateNames(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"vertex", "(nv) a 0 0 0 (nv) a 1 1 1"},
		{"triangle", "(nv) a 0 0 0 (nt) t a a a (nt) t a a a"},
		{"model", "(nv) a 0 0 0 (nt) t a a a (nm) m 1 t (nm) m 1 t"},
		{"generated model", "(gcirc) m 3 1 (gcyl) m 3 1 1"},
		{"namespace", "(ns) n (ns) n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseString(t, tt.src)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		token string
		line  int
	}{
		{"unknown token", "(ns) n\n(bogus) x", "(bogus)", 2},
		{"malformed float", "(nv) a 1 two 3", "two", 1},
		{"undefined vertex", "(nv) a 0 0 0\n(nt) t a a b", "b", 2},
		{"undefined model ref", "(nm) m 1 nothing", "nothing", 1},
		{"bad count", "(nm) m -1", "-1", 1},
		{"missing operands", "(nv) a 1 2", "(nv)", 1},
		{"keyword at end", "(ns) n (ns)", "(ns)", 1},
		{"export to undeclared namespace", square + "(exm) nope square", "nope", 0},
		{"export unknown model", "(ns) n (exm) n nope", "nope", 1},
		{"rename unknown model", "(ns) n (exrn) n nope x", "nope", 1},
		{"transform unknown model", "(tfxlat) nope x 0 0 0", "nope", 1},
		{"zero circle points", "(gcirc) c 0 1", "0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseString(t, tt.src)
			require.ErrorIs(t, err, ErrParse)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.token, pe.Token)
			assert.Equal(t, "main.smdl", pe.File)
			if tt.line > 0 {
				assert.Equal(t, tt.line, pe.Line)
			}
		})
	}
}

func TestParse_NamedModelComposition(t *testing.T) {
	// --- Arrange ---
	src := square + `
(nv) e 5 5 5
(nt) far a b e
(nm) combo 3 far square far
`
	// --- Act ---
	ws := mustParse(t, src)

	// --- Assert ---
	sq, err := ws.Model("square")
	require.NoError(t, err)
	combo, err := ws.Model("combo")
	require.NoError(t, err)

	require.Len(t, combo, 1+len(sq)+1)
	assert.Equal(t, Vertex{5, 5, 5}, combo[0][2])
	assert.Equal(t, sq[0], combo[1])
	assert.Equal(t, sq[1], combo[2])
	assert.Equal(t, combo[0], combo[3])
}

func TestParse_EmptyModel(t *testing.T) {
	ws := mustParse(t, "(nm) empty 0 (ns) n (exm) n empty")

	floats, count, err := ws.ExportedModelData("n.empty")
	require.NoError(t, err)
	assert.Empty(t, floats)
	assert.Zero(t, count)
}

func TestParse_ExportUsesValueAtFinalization(t *testing.T) {
	// --- Arrange ---
	// The export is queued while "square" is the original, then the name is rebound.
	src := square + `
(ns) shapes
(exm) shapes square
(tfxlat) square square 10 0 0
`
	// --- Act ---
	ws := mustParse(t, src)

	// --- Assert ---
	m, err := ws.ExportedModel("shapes.square")
	require.NoError(t, err)
	assert.Equal(t, Vertex{10, 0, 0}, m[0][0])
}

func TestParse_ExportNotVisibleBeforeFinalization(t *testing.T) {
	// --- Arrange ---
	ws := newWorkspace("main.smdl")
	in := &interpreter{
		p:     NewParser(Options{FS: fstest.MapFS{}}),
		ws:    ws,
		guard: importGuard{},
		toks:  Tokenize([]byte(square + "(ns) shapes (exm) shapes square")),
	}

	// --- Act ---
	require.NoError(t, in.run())

	// --- Assert ---
	_, _, err := ws.ExportedModelData("shapes.square")
	require.ErrorIs(t, err, ErrLookup)

	ws.finalize()
	_, count, err := ws.ExportedModelData("shapes.square")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestParse_ExportRenameCopiesImmediately(t *testing.T) {
	// --- Arrange ---
	src := square + `
(ns) shapes
(exrn) shapes square box
(tfsc) square square 2 2 2
`
	// --- Act ---
	ws := mustParse(t, src)

	// --- Assert ---
	box, err := ws.ExportedModel("shapes.box")
	require.NoError(t, err)
	assert.Equal(t, Vertex{1, 1, 0}, box[0][2], "renamed export must not follow the rebound name")

	sq, err := ws.Model("square")
	require.NoError(t, err)
	assert.Equal(t, Vertex{2, 2, 0}, sq[0][2])
}

func TestParse_FirstExportBindingWins(t *testing.T) {
	src := square + `
(gcirc) circle 4 1
(ns) s
(exrn) s circle square
(exm) s square
`
	ws := mustParse(t, src)

	m, err := ws.ExportedModel("s.square")
	require.NoError(t, err)
	assert.Len(t, m, 4, "the (exrn) binding of s.square is kept")
}

func TestParse_ZeroTranslateIsIdentity(t *testing.T) {
	ws := mustParse(t, square+"(tfxlat) square moved 0 0 0")

	src, err := ws.Model("square")
	require.NoError(t, err)
	moved, err := ws.Model("moved")
	require.NoError(t, err)
	if diff := cmp.Diff(src, moved); diff != "" {
		t.Errorf("translated model mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_TransformDoesNotMutateSource(t *testing.T) {
	ws := mustParse(t, square+"(tfxlat) square moved 1 2 3 (tfsc) square big 3 3 3")

	src, err := ws.Model("square")
	require.NoError(t, err)
	assert.Equal(t, Vertex{1, 1, 0}, src[0][2])

	moved, err := ws.Model("moved")
	require.NoError(t, err)
	assert.Equal(t, Vertex{2, 3, 3}, moved[0][2])

	big, err := ws.Model("big")
	require.NoError(t, err)
	assert.Equal(t, Vertex{3, 3, 0}, big[0][2])
}

func TestParse_Rotations(t *testing.T) {
	tests := []struct {
		directive string
		angle     string
		want      Vertex
	}{
		{"(tfrotz)", "1.5707963", Vertex{0, 1, 0}},
		{"(tfrotdz)", "90", Vertex{0, 1, 0}},
		{"(tfroty)", "1.5707963", Vertex{0, 0, -1}},
		{"(tfrotdy)", "90", Vertex{0, 0, -1}},
		{"(tfrotdx)", "180", Vertex{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.directive, func(t *testing.T) {
			src := square + tt.directive + " square r " + tt.angle
			ws := mustParse(t, src)

			r, err := ws.Model("r")
			require.NoError(t, err)
			// Vertex b of the lower triangle is (1,0,0).
			got := r[0][1]
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-5, "component %d", i)
			}
		})
	}
}

func TestParse_Circle(t *testing.T) {
	ws := mustParse(t, "(gcirc) c 6 2.0")

	c, err := ws.Model("c")
	require.NoError(t, err)
	require.Len(t, c, 6)
	for i, tri := range c {
		assert.Equal(t, Vertex{0, 0, 0}, tri[2], "triangle %d apex", i)
		assert.Equal(t, c[(i+1)%6][0], tri[1], "fan is closed")
		for _, v := range tri[:2] {
			assert.InDelta(t, 2.0, v.Len(), 1e-5)
			assert.Equal(t, float32(0), v[1])
		}
	}
	assert.Equal(t, Vertex{2, 0, 0}, c[0][0])
}

func TestParse_Cylinder(t *testing.T) {
	ws := mustParse(t, "(gcyl) cy 4 1.0 3.0")

	cy, err := ws.Model("cy")
	require.NoError(t, err)
	require.Len(t, cy, 16)
	for i := 0; i < 4; i++ {
		for _, v := range cy[i] {
			assert.Equal(t, float32(0), v[1], "bottom cap triangle %d", i)
		}
	}
	for i := 4; i < 8; i++ {
		for _, v := range cy[i] {
			assert.Equal(t, float32(3), v[1], "top cap triangle %d", i)
		}
	}
	for i := 8; i < 16; i++ {
		assert.Equal(t, float32(0), cy[i][0][1], "side triangle %d starts at the bottom", i)
		assert.Equal(t, float32(3), cy[i][2][1], "side triangle %d ends at the top", i)
	}
}

func TestParse_ReleasesScratchState(t *testing.T) {
	ws := mustParse(t, square+"(ns) n (exm) n square")

	assert.Nil(t, ws.vertices)
	assert.Nil(t, ws.triangles)
	assert.Nil(t, ws.namespaces)
	assert.Equal(t, []string{"square"}, ws.ModelNames())
	assert.Equal(t, []string{"n.square"}, ws.ExportedKeys())
}

func TestWorkspace_Lookup(t *testing.T) {
	ws := mustParse(t, square+"(ns) n (exm) n square")

	floats, count, err := ws.ExportedModelData("n.square")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	assert.Len(t, floats, 18)

	_, _, err = ws.ExportedModelData("n.missing")
	require.ErrorIs(t, err, ErrLookup)
	_, _, err = ws.ModelData("missing")
	require.ErrorIs(t, err, ErrLookup)
	_, err = ws.Model("missing")
	require.ErrorIs(t, err, ErrLookup)

	named, _, err := ws.ModelData("square")
	require.NoError(t, err)
	assert.Equal(t, floats, named)

	assert.Contains(t, ws.String(), "n.square (2 triangles)")
}

func TestParseFile_MissingFile(t *testing.T) {
	p := NewParser(Options{FS: fstest.MapFS{}})

	_, err := p.ParseFile("nope.smdl")
	require.ErrorIs(t, err, ErrIO)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "nope.smdl", ioErr.Path)
}

func importFS() fstest.MapFS {
	return fstest.MapFS{
		"shapes.smdl": {Data: []byte(square + `
(gcirc) disc 8 1
(ns) shapes
(exm) shapes square
(exrn) shapes disc round
`)},
		"main.smdl": {Data: []byte(`
(imp) shapes.smdl
(tfxlat) shapes.square moved 0 0 1
(nm) both 2 shapes.square shapes.round
(ns) out
(exm) out both
`)},
		"self.smdl":         {Data: []byte("(imp) self.smdl")},
		"loop_a.smdl":       {Data: []byte("(imp) loop_b.smdl")},
		"loop_b.smdl":       {Data: []byte("(imp) loop_a.smdl")},
		"twice.smdl":        {Data: []byte("(imp) shapes.smdl (imp) ./shapes.smdl")},
		"broken.smdl":       {Data: []byte("(ns) n (whatever)")},
		"uses_broken.smdl":  {Data: []byte("(imp) broken.smdl")},
		"uses_missing.smdl": {Data: []byte("(imp) missing.smdl")},
		"collide.smdl": {Data: []byte(square + `
(nm) shapes.square 1 square
(imp) shapes.smdl
`)},
	}
}

func TestParseFile_Import(t *testing.T) {
	// --- Arrange ---
	p := NewParser(Options{FS: importFS()})

	// --- Act ---
	ws, err := p.ParseFile("main.smdl")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"both", "moved", "shapes.round", "shapes.square"}, ws.ModelNames())
	assert.Equal(t, []string{"out.both"}, ws.ExportedKeys())
	assert.Equal(t, []string{"main.smdl", "shapes.smdl"}, ws.Files())

	both, err := ws.ExportedModel("out.both")
	require.NoError(t, err)
	assert.Len(t, both, 2+8)

	imports := ws.Imports()
	require.Len(t, imports, 1)
	assert.NoError(t, imports[0].Err)
	assert.Equal(t, []string{"shapes.round", "shapes.square"}, imports[0].Models)

	// Imported workspaces keep only their exports.
	child := ws.files["shapes.smdl"]
	require.NotNil(t, child)
	assert.Empty(t, child.ModelNames())
	assert.Equal(t, []string{"shapes.round", "shapes.square"}, child.ExportedKeys())
}

func TestParseFile_ImportGuard(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"self import", "self.smdl"},
		{"transitive cycle", "loop_a.smdl"},
		{"same file twice", "twice.smdl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(Options{FS: importFS()})

			_, err := p.ParseFile(tt.file)
			require.ErrorIs(t, err, ErrImportCycle)
			assert.NotErrorIs(t, err, ErrParse)
		})
	}
}

func TestParseFile_ImportFailureKinds(t *testing.T) {
	tests := []struct {
		file string
		kind error
	}{
		{"uses_broken.smdl", ErrParse},
		{"uses_missing.smdl", ErrIO},
		{"collide.smdl", ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p := NewParser(Options{FS: importFS()})

			_, err := p.ParseFile(tt.file)
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestParseFile_LenientImports(t *testing.T) {
	// --- Arrange ---
	var logs bytes.Buffer
	p := NewParser(Options{
		FS:             importFS(),
		Logger:         slog.New(slog.NewTextHandler(&logs, nil)),
		LenientImports: true,
	})

	// --- Act ---
	ws, err := p.ParseFile("collide.smdl")

	// --- Assert ---
	require.NoError(t, err)
	imports := ws.Imports()
	require.Len(t, imports, 1)
	require.ErrorIs(t, imports[0].Err, ErrParse)
	assert.Empty(t, imports[0].Models)
	// Nothing from shapes.smdl was copied in.
	assert.Equal(t, []string{"shapes.square", "square"}, ws.ModelNames())
	sq, err := ws.Model("shapes.square")
	require.NoError(t, err)
	assert.Len(t, sq, 2)

	assert.Contains(t, logs.String(), "import failed")
	assert.Contains(t, logs.String(), "kind=parse")
}

func TestParseFile_LenientSelfImport(t *testing.T) {
	p := NewParser(Options{FS: importFS(), LenientImports: true})

	ws, err := p.ParseFile("self.smdl")

	require.NoError(t, err)
	imports := ws.Imports()
	require.Len(t, imports, 1)
	assert.ErrorIs(t, imports[0].Err, ErrImportCycle)
	assert.Empty(t, ws.ExportedKeys())
}

func TestParser_Reusable(t *testing.T) {
	p := NewParser(Options{FS: importFS()})

	first, err := p.ParseFile("main.smdl")
	require.NoError(t, err)
	second, err := p.ParseFile("main.smdl")
	require.NoError(t, err, "the import guard is per top-level parse")

	assert.Equal(t, first.ExportedKeys(), second.ExportedKeys())
}

func TestParse_LeavesSourceBackingArrayIntact(t *testing.T) {
	buf := []byte("(ns) nZZ")

	_, err := NewParser(Options{FS: fstest.MapFS{}}).Parse("m.smdl", buf[:6])

	require.NoError(t, err)
	assert.Equal(t, "(ns) nZZ", string(buf))
}
