package scene

import (
	"model-engine/internal/meshcache"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	gridExtent     = 50
	gridMinorStep  = 1
	gridMajorStep  = 10
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220
)

// Entity is one placed model. A zero Scale component means 1.
type Entity struct {
	Key      string
	Position [3]float32
	Scale    [3]float32
}

// Segment is a line from A to B.
type Segment [2]rl.Vector3

// Scene holds a 3D camera and the placed models. Update runs camera logic (free camera);
// Draw renders between BeginMode3D and EndMode3D.
type Scene struct {
	Camera      rl.Camera3D
	GridVisible bool
	LightDir    [3]float32

	models     *meshcache.Cache
	entities   []Entity
	pending    func(*meshcache.Cache) error
	err        error
	cursorDone bool
	minor      []Segment
	major      []Segment
}

// New returns a scene drawing through models, with a perspective camera at (10,10,10)
// looking at the origin. The grid is visible by default.
func New(models *meshcache.Cache) *Scene {
	s := &Scene{models: models, GridVisible: true, LightDir: [3]float32{0.5, 1, 0.3}}
	s.Camera.Position = rl.NewVector3(10, 10, 10)
	s.Camera.Target = rl.NewVector3(0, 0, 0)
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = 45
	s.Camera.Projection = rl.CameraPerspective
	s.minor, s.major = gridSegments(gridExtent, gridMinorStep, gridMajorStep)
	return s
}

// Defer registers load to run on the first Draw, after the window and OpenGL context exist.
// A load error is returned by the next Update.
func (s *Scene) Defer(load func(*meshcache.Cache) error) {
	s.pending = load
}

// Place adds entities to the scene.
func (s *Scene) Place(entities ...Entity) {
	s.entities = append(s.entities, entities...)
}

// Layout places one entity per key along the X axis, spacing units apart and centred on
// the origin.
func Layout(keys []string, spacing float32) []Entity {
	out := make([]Entity, len(keys))
	offset := float32(len(keys)-1) / 2
	for i, key := range keys {
		out[i] = Entity{Key: key, Position: [3]float32{(float32(i) - offset) * spacing, 0, 0}}
	}
	return out
}

// Stats is a summary of what the scene draws.
type Stats struct {
	Entities int
	Vertices int
	Grid     bool
}

// Stats counts placed entities and the vertices of their loaded models.
func (s *Scene) Stats() Stats {
	st := Stats{Entities: len(s.entities), Grid: s.GridVisible}
	for _, e := range s.entities {
		if info, ok := s.models.Info(e.Key); ok {
			st.Vertices += info.VertexCount
		}
	}
	return st
}

// Update runs once per frame. G toggles the grid; the camera uses raylib CameraFree with the
// cursor captured.
func (s *Scene) Update() error {
	if s.err != nil {
		return s.err
	}
	if !s.cursorDone {
		rl.DisableCursor()
		s.cursorDone = true
	}
	if rl.IsKeyPressed(rl.KeyG) {
		s.GridVisible = !s.GridVisible
	}
	rl.UpdateCamera(&s.Camera, rl.CameraFree)
	return nil
}

// Draw renders the grid and every placed entity. Call after ClearBackground and before any
// 2D overlay.
func (s *Scene) Draw() {
	s.runPending()
	p := s.Camera.Position
	s.models.SetView([3]float32{p.X, p.Y, p.Z}, s.LightDir)

	rl.BeginMode3D(s.Camera)
	if s.GridVisible {
		s.drawGrid()
	}
	for _, e := range s.entities {
		s.models.Draw(e.Key, e.Position, e.Scale)
	}
	rl.EndMode3D()
}

func (s *Scene) runPending() {
	if s.pending == nil {
		return
	}
	load := s.pending
	s.pending = nil
	s.err = load(s.models)
}

// gridSegments returns the XZ-plane grid lines, split into minor and major lines. Lines on
// multiples of majorStep are major.
func gridSegments(extent, step, majorStep int) (minor, major []Segment) {
	e := float32(extent)
	for i := -extent; i <= extent; i += step {
		f := float32(i)
		along := Segment{rl.NewVector3(f, 0, -e), rl.NewVector3(f, 0, e)}
		across := Segment{rl.NewVector3(-e, 0, f), rl.NewVector3(e, 0, f)}
		if i%majorStep == 0 {
			major = append(major, along, across)
		} else {
			minor = append(minor, along, across)
		}
	}
	return minor, major
}

func (s *Scene) drawGrid() {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(160, 160, 160, gridMajorAlpha)
	for _, seg := range s.minor {
		rl.DrawLine3D(seg[0], seg[1], minor)
	}
	for _, seg := range s.major {
		rl.DrawLine3D(seg[0], seg[1], major)
	}

	// X red, Y green, Z blue
	e := float32(gridExtent)
	rl.DrawLine3D(rl.NewVector3(-e, 0, 0), rl.NewVector3(e, 0, 0), rl.NewColor(220, 80, 80, axisLineAlpha))
	rl.DrawLine3D(rl.NewVector3(0, -e, 0), rl.NewVector3(0, e, 0), rl.NewColor(80, 220, 80, axisLineAlpha))
	rl.DrawLine3D(rl.NewVector3(0, 0, -e), rl.NewVector3(0, 0, e), rl.NewColor(80, 80, 220, axisLineAlpha))
}
