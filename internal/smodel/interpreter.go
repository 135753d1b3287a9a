package smodel

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

type state int

const (
	stateDefault state = iota
	stateNamedVertex
	stateNamedTriangle
	stateNamedModel
	stateExport
	stateImport
	stateNamespace
	stateExportRename
	stateTranslate
	stateRotate
	stateRotateDegrees
	stateScale
	stateCircle
	stateCylinder
)

// degreesPerRadian converts (tfrotd*) angles.
const degreesPerRadian = 57.295779513

var keywords = map[string]state{
	"(nv)":      stateNamedVertex,
	"(nt)":      stateNamedTriangle,
	"(nm)":      stateNamedModel,
	"(exm)":     stateExport,
	"(imp)":     stateImport,
	"(ns)":      stateNamespace,
	"(exrn)":    stateExportRename,
	"(tfxlat)":  stateTranslate,
	"(tfrotx)":  stateRotate,
	"(tfroty)":  stateRotate,
	"(tfrotz)":  stateRotate,
	"(tfrotdx)": stateRotateDegrees,
	"(tfrotdy)": stateRotateDegrees,
	"(tfrotdz)": stateRotateDegrees,
	"(tfsc)":    stateScale,
	"(gcirc)":   stateCircle,
	"(gcyl)":    stateCylinder,
}

// rotations selects the rotation axis by keyword.
var rotations = map[string]func(float32) mgl32.Mat4{
	"(tfrotx)":  mgl32.HomogRotate3DX,
	"(tfroty)":  mgl32.HomogRotate3DY,
	"(tfrotz)":  mgl32.HomogRotate3DZ,
	"(tfrotdx)": mgl32.HomogRotate3DX,
	"(tfrotdy)": mgl32.HomogRotate3DY,
	"(tfrotdz)": mgl32.HomogRotate3DZ,
}

// interpreter walks the token list of one file. state is reset to stateDefault after every
// directive; keyword remembers the directive token that selected the current state.
type interpreter struct {
	p     *Parser
	ws    *Workspace
	guard importGuard
	toks  []Token
	pos   int

	state   state
	keyword Token
}

func (in *interpreter) run() error {
	for in.pos < len(in.toks) {
		if in.state == stateDefault {
			tok := in.toks[in.pos]
			st, ok := keywords[tok.Text]
			if !ok {
				return in.errorf(tok, "unknown token")
			}
			in.state, in.keyword = st, tok
			in.pos++
			continue
		}
		if err := in.step(); err != nil {
			return err
		}
		in.state = stateDefault
	}
	if in.state != stateDefault {
		return in.errorf(in.keyword, "missing operands")
	}
	return nil
}

func (in *interpreter) step() error {
	switch in.state {
	case stateNamedVertex:
		return in.namedVertex()
	case stateNamedTriangle:
		return in.namedTriangle()
	case stateNamedModel:
		return in.namedModel()
	case stateExport:
		return in.export()
	case stateImport:
		return in.importFile()
	case stateNamespace:
		return in.namespace()
	case stateExportRename:
		return in.exportRename()
	case stateTranslate:
		return in.transform(func() (mgl32.Mat4, error) {
			x, y, z, err := in.vec3()
			return mgl32.Translate3D(x, y, z), err
		})
	case stateRotate, stateRotateDegrees:
		rot := rotations[in.keyword.Text]
		return in.transform(func() (mgl32.Mat4, error) {
			a, err := in.float()
			if in.state == stateRotateDegrees {
				a /= degreesPerRadian
			}
			return rot(a), err
		})
	case stateScale:
		return in.transform(func() (mgl32.Mat4, error) {
			x, y, z, err := in.vec3()
			return mgl32.Scale3D(x, y, z), err
		})
	case stateCircle:
		return in.generate(func() (Model, error) {
			n, r, err := in.pointsRadius()
			if err != nil {
				return nil, err
			}
			return GenerateCircle(n, r), nil
		})
	case stateCylinder:
		return in.generate(func() (Model, error) {
			n, r, err := in.pointsRadius()
			if err != nil {
				return nil, err
			}
			h, err := in.float()
			if err != nil {
				return nil, err
			}
			return GenerateCylinder(n, r, h), nil
		})
	}
	return fmt.Errorf("smodel: unknown state %d", in.state)
}

func (in *interpreter) namedVertex() error {
	name, err := in.next()
	if err != nil {
		return err
	}
	if _, ok := in.ws.vertices[name.Text]; ok {
		return in.errorf(name, "repeated named vertex")
	}
	x, y, z, err := in.vec3()
	if err != nil {
		return err
	}
	in.ws.vertices[name.Text] = Vertex{x, y, z}
	return nil
}

func (in *interpreter) namedTriangle() error {
	name, err := in.next()
	if err != nil {
		return err
	}
	if _, ok := in.ws.triangles[name.Text]; ok {
		return in.errorf(name, "repeated named triangle")
	}
	var t Triangle
	for i := range t {
		ref, err := in.next()
		if err != nil {
			return err
		}
		v, ok := in.ws.vertices[ref.Text]
		if !ok {
			return in.errorf(ref, "undefined vertex")
		}
		t[i] = v
	}
	in.ws.triangles[name.Text] = t
	return nil
}

func (in *interpreter) namedModel() error {
	name, err := in.next()
	if err != nil {
		return err
	}
	if _, ok := in.ws.models[name.Text]; ok {
		return in.errorf(name, "repeated named model")
	}
	countTok, err := in.next()
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(countTok.Text)
	if err != nil || count < 0 {
		return in.wrapf(countTok, err, "invalid reference count")
	}
	m := make(Model, 0, count)
	for i := 0; i < count; i++ {
		ref, err := in.next()
		if err != nil {
			return err
		}
		if t, ok := in.ws.triangles[ref.Text]; ok {
			m = append(m, t)
			continue
		}
		sub, ok := in.ws.models[ref.Text]
		if !ok {
			return in.errorf(ref, "undefined triangle or model")
		}
		m = append(m, sub...)
	}
	in.ws.models[name.Text] = m
	return nil
}

// exportTarget reads and checks the namespace and model operands shared by (exm) and (exrn).
func (in *interpreter) exportTarget() (ns, model Token, err error) {
	if ns, err = in.next(); err != nil {
		return
	}
	if _, ok := in.ws.namespaces[ns.Text]; !ok {
		return ns, model, in.errorf(ns, "attempting to export to undeclared namespace")
	}
	if model, err = in.next(); err != nil {
		return
	}
	if _, ok := in.ws.models[model.Text]; !ok {
		return ns, model, in.errorf(model, "attempt to export non-existent model")
	}
	return ns, model, nil
}

func (in *interpreter) export() error {
	ns, model, err := in.exportTarget()
	if err != nil {
		return err
	}
	in.ws.namespaces[ns.Text] = append(in.ws.namespaces[ns.Text], model.Text)
	return nil
}

func (in *interpreter) exportRename() error {
	ns, model, err := in.exportTarget()
	if err != nil {
		return err
	}
	newName, err := in.next()
	if err != nil {
		return err
	}
	key := exportKey(ns.Text, newName.Text)
	if _, ok := in.ws.exported[key]; ok {
		return nil
	}
	in.ws.exported[key] = in.ws.models[model.Text].Clone()
	return nil
}

func (in *interpreter) namespace() error {
	ns, err := in.next()
	if err != nil {
		return err
	}
	if _, ok := in.ws.namespaces[ns.Text]; ok {
		return in.errorf(ns, "duplicate namespace")
	}
	in.ws.namespaces[ns.Text] = []string{}
	return nil
}

func (in *interpreter) importFile() error {
	file, err := in.next()
	if err != nil {
		return err
	}
	res := in.p.importInto(in.ws, file, in.guard)
	in.ws.imports = append(in.ws.imports, res)
	if res.Err == nil {
		in.p.log.Debug("imported model file", "file", in.ws.file, "import", res.File, "models", len(res.Models))
		return nil
	}
	if in.p.lenient {
		in.p.log.Warn("import failed, continuing",
			"file", in.ws.file,
			"line", file.Line,
			"import", res.File,
			"kind", errorKind(res.Err),
			"err", res.Err)
		return nil
	}
	return fmt.Errorf("smodel: %s:%d: import %s: %w", in.ws.file, file.Line, res.File, res.Err)
}

// transform copies the source model, applies the matrix read by mat and stores the result under
// the new name, replacing any model already bound to it.
func (in *interpreter) transform(mat func() (mgl32.Mat4, error)) error {
	src, err := in.next()
	if err != nil {
		return err
	}
	m, ok := in.ws.models[src.Text]
	if !ok {
		return in.errorf(src, fmt.Sprintf("undefined model for %s transform", in.keyword.Text))
	}
	dst, err := in.next()
	if err != nil {
		return err
	}
	tf, err := mat()
	if err != nil {
		return err
	}
	in.ws.models[dst.Text] = m.apply(tf)
	return nil
}

func (in *interpreter) generate(build func() (Model, error)) error {
	name, err := in.next()
	if err != nil {
		return err
	}
	if _, ok := in.ws.models[name.Text]; ok {
		return in.errorf(name, "repeated named model")
	}
	m, err := build()
	if err != nil {
		return err
	}
	in.ws.models[name.Text] = m
	return nil
}

func (in *interpreter) pointsRadius() (int, float32, error) {
	tok, err := in.next()
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil || n < 1 {
		return 0, 0, in.wrapf(tok, err, "invalid point count")
	}
	r, err := in.float()
	return n, r, err
}

func (in *interpreter) next() (Token, error) {
	if in.pos >= len(in.toks) {
		return Token{}, in.errorf(in.keyword, "missing operands")
	}
	tok := in.toks[in.pos]
	in.pos++
	return tok, nil
}

func (in *interpreter) float() (float32, error) {
	tok, err := in.next()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(tok.Text, 32)
	if err != nil {
		return 0, in.wrapf(tok, err, "malformed number")
	}
	return float32(f), nil
}

func (in *interpreter) vec3() (x, y, z float32, err error) {
	if x, err = in.float(); err != nil {
		return
	}
	if y, err = in.float(); err != nil {
		return
	}
	z, err = in.float()
	return
}

func (in *interpreter) errorf(tok Token, msg string) error {
	return in.wrapf(tok, nil, msg)
}

func (in *interpreter) wrapf(tok Token, err error, msg string) error {
	return &ParseError{File: in.ws.file, Line: tok.Line, Token: tok.Text, Msg: msg, Err: err}
}

// errorKind names the failure class of an import error for logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrImportCycle):
		return "import_cycle"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}
