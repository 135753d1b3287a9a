package meshcache

import (
	"fmt"
	"runtime"

	"model-engine/internal/smodel"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Mode is how a flat buffer is drawn.
type Mode int

const (
	Triangles Mode = iota
	Lines
)

func (m Mode) String() string {
	if m == Lines {
		return "lines"
	}
	return "triangles"
}

// ModelInfo describes an uploaded buffer.
type ModelInfo struct {
	Key         string
	VertexCount int
	Mode        Mode
}

// cached holds one uploaded model. The mesh points into verts and normals, which stay pinned
// for as long as the entry lives.
type cached struct {
	info    ModelInfo
	mesh    rl.Mesh
	verts   []float32
	normals []float32
	lines   []rl.Vector3
	pinner  runtime.Pinner
}

// Cache maps model keys to uploaded meshes. Uploads need a live window/OpenGL context.
type Cache struct {
	cache    map[string]*cached
	mtl      rl.Material
	mtlReady bool
	viewPos  [3]float32
	lightDir [3]float32
}

// New returns an empty cache. The lit material is created on first upload.
func New() *Cache {
	return &Cache{
		cache:    make(map[string]*cached),
		lightDir: [3]float32{0.5, 1, 0.5},
	}
}

// SetView sets the camera position and direction to the light. Call once per frame before
// drawing.
func (c *Cache) SetView(viewPos, lightDir [3]float32) {
	c.viewPos = viewPos
	c.lightDir = lightDir
}

// VertexCount returns the number of vertices in a flat buffer of the given mode.
func VertexCount(floats []float32, mode Mode) (int, error) {
	if len(floats)%3 != 0 {
		return 0, fmt.Errorf("meshcache: %d floats is not a whole number of vertices", len(floats))
	}
	n := len(floats) / 3
	switch mode {
	case Triangles:
		if n%3 != 0 {
			return 0, fmt.Errorf("meshcache: %d vertices is not a whole number of triangles", n)
		}
	case Lines:
		if n%2 != 0 {
			return 0, fmt.Errorf("meshcache: %d vertices is not a whole number of segments", n)
		}
	default:
		return 0, fmt.Errorf("meshcache: invalid render mode %d", mode)
	}
	return n, nil
}

// LoadExported uploads the model exported under key by ws. The cache key is the export key.
func (c *Cache) LoadExported(ws *smodel.Workspace, key string) (ModelInfo, error) {
	floats, _, err := ws.ExportedModelData(key)
	if err != nil {
		return ModelInfo{}, err
	}
	return c.LoadForeign(key, floats, Triangles)
}

// RefKey is the cache key LoadList uses for ref. It includes the file so the same export key
// from two files does not collide.
func RefKey(ref smodel.Ref) string {
	return ref.File + ":" + ref.Key
}

// LoadList parses and uploads every referenced model under RefKey. A ref listed twice is
// uploaded once.
func (c *Cache) LoadList(p *smodel.Parser, refs []smodel.Ref) ([]ModelInfo, error) {
	data, err := p.LoadList(refs)
	if err != nil {
		return nil, err
	}
	infos := make([]ModelInfo, 0, len(data))
	seen := make(map[string]bool, len(data))
	for _, d := range data {
		key := RefKey(d.Ref)
		if seen[key] {
			continue
		}
		seen[key] = true
		info, err := c.LoadForeign(key, d.Floats, Triangles)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// LoadForeign uploads a flat buffer that did not necessarily come from a model file, replacing
// any entry under the same key.
func (c *Cache) LoadForeign(key string, floats []float32, mode Mode) (ModelInfo, error) {
	n, err := VertexCount(floats, mode)
	if err != nil {
		return ModelInfo{}, err
	}
	info := ModelInfo{Key: key, VertexCount: n, Mode: mode}
	if old, ok := c.cache[key]; ok {
		old.release()
	}
	e := &cached{info: info}
	c.cache[key] = e
	if n == 0 {
		return info, nil
	}

	if mode == Lines {
		e.lines = make([]rl.Vector3, n)
		for i := range e.lines {
			e.lines[i] = rl.NewVector3(floats[i*3], floats[i*3+1], floats[i*3+2])
		}
		return info, nil
	}

	c.ensureMaterial()
	e.verts = append([]float32(nil), floats...)
	e.normals = smodel.CalculateNormals(e.verts)
	e.pinner.Pin(&e.verts[0])
	e.pinner.Pin(&e.normals[0])
	e.mesh = rl.Mesh{VertexCount: int32(n), TriangleCount: int32(n / 3)}
	e.mesh.Vertices = &e.verts[0]
	e.mesh.Normals = &e.normals[0]
	rl.UploadMesh(&e.mesh, false)
	return info, nil
}

// release frees the entry's GPU buffers and unpins its vertex data. raylib-go's UnloadMesh
// only frees the VAO and VBOs of meshes uploaded from Go memory.
func (e *cached) release() {
	if e.mesh.VaoID != 0 {
		rl.UnloadMesh(&e.mesh)
		e.mesh = rl.Mesh{}
	}
	e.pinner.Unpin()
}

// Info returns the ModelInfo for key.
func (c *Cache) Info(key string) (ModelInfo, bool) {
	e, ok := c.cache[key]
	if !ok {
		return ModelInfo{}, false
	}
	return e.info, true
}

// ensureMaterial creates the shared lit material.
func (c *Cache) ensureMaterial() {
	if c.mtlReady {
		return
	}
	c.mtl = rl.LoadMaterialDefault()
	if albedo := c.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = modelColor
	}
	if shader := rl.LoadShaderFromMemory(litVS, litFS); rl.IsShaderValid(shader) {
		c.mtl.Shader = shader
	}
	c.mtlReady = true
}

var (
	modelColor = rl.NewColor(170, 170, 180, 255)
	lineColor  = rl.NewColor(230, 200, 60, 255)
)

// Draw draws the model under key at position with scale (a zero component means 1).
// Must be called between BeginMode3D and EndMode3D. Unknown keys are skipped.
func (c *Cache) Draw(key string, position, scale [3]float32) {
	e, ok := c.cache[key]
	if !ok || e.info.VertexCount == 0 {
		return
	}
	for i := range scale {
		if scale[i] == 0 {
			scale[i] = 1
		}
	}
	transform := rl.MatrixMultiply(
		rl.MatrixScale(scale[0], scale[1], scale[2]),
		rl.MatrixTranslate(position[0], position[1], position[2]),
	)
	if e.info.Mode == Lines {
		for i := 0; i+1 < len(e.lines); i += 2 {
			a := rl.Vector3Transform(e.lines[i], transform)
			b := rl.Vector3Transform(e.lines[i+1], transform)
			rl.DrawLine3D(a, b, lineColor)
		}
		return
	}
	c.setUniforms()
	rl.DrawMesh(e.mesh, c.mtl, transform)
}

func (c *Cache) setUniforms() {
	shader := c.mtl.Shader
	if !rl.IsShaderValid(shader) {
		return
	}
	viewPos := c.viewPos
	lightDir := c.lightDir
	if loc := rl.GetShaderLocation(shader, "viewPos"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, viewPos[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightDir"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, lightDir[:], rl.ShaderUniformVec3, 1)
	}
}

// Flat-normal lighting: one directional light with ambient and specular terms. Normals are
// unnormalized face normals, so they are normalized per fragment.
const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec3 fragNormal;
void main() {
  vec4 world = matModel * vec4(vertexPosition, 1.0);
  fragPosition = world.xyz;
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = matProjection * matView * world;
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 lightDir;
uniform vec3 viewPos;
out vec4 finalColor;
void main() {
  vec3 n = normalize(fragNormal);
  vec3 l = normalize(lightDir);
  vec3 v = normalize(viewPos - fragPosition);
  if (dot(n, v) < 0.0) n = -n;
  float diffuse = max(dot(n, l), 0.0);
  float specular = pow(max(dot(reflect(-l, n), v), 0.0), 24.0);
  vec3 ambient = vec3(0.2, 0.22, 0.26);
  vec3 rgb = colDiffuse.rgb * (ambient + 0.75 * diffuse) + vec3(0.25 * specular);
  finalColor = vec4(rgb, colDiffuse.a);
}
`
)
