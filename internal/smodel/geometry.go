package smodel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a point in model space.
type Vertex = mgl32.Vec3

// Triangle is three vertices in declaration order. Winding is kept as written.
type Triangle [3]Vertex

// Model is an ordered list of triangles. Models are values: every operation that derives one
// model from another copies the triangles first.
type Model []Triangle

// Clone returns a copy that shares no storage with m.
func (m Model) Clone() Model {
	if m == nil {
		return nil
	}
	out := make(Model, len(m))
	copy(out, m)
	return out
}

// apply returns a transformed copy of m.
func (m Model) apply(mat mgl32.Mat4) Model {
	out := m.Clone()
	for i := range out {
		for j := range out[i] {
			out[i][j] = mat.Mul4x1(out[i][j].Vec4(1)).Vec3()
		}
	}
	return out
}

// Flatten lays the model out as x, y, z per vertex, three vertices per triangle.
func Flatten(m Model) []float32 {
	out := make([]float32, 0, len(m)*9)
	for _, t := range m {
		for _, v := range t {
			out = append(out, v[0], v[1], v[2])
		}
	}
	return out
}

// Regroup is the inverse of Flatten. The buffer length must be a multiple of 9.
func Regroup(floats []float32) (Model, error) {
	if len(floats)%9 != 0 {
		return nil, fmt.Errorf("smodel: regroup: %d floats is not a whole number of triangles", len(floats))
	}
	m := make(Model, 0, len(floats)/9)
	for i := 0; i < len(floats); i += 9 {
		f := floats[i : i+9]
		m = append(m, Triangle{
			{f[0], f[1], f[2]},
			{f[3], f[4], f[5]},
			{f[6], f[7], f[8]},
		})
	}
	return m, nil
}

// CalculateNormals returns one unnormalized face normal per vertex of a flat triangle buffer:
// the cross product of (v2-v1) and (v3-v2), repeated for each of the three vertices.
// A trailing partial triangle is ignored.
func CalculateNormals(floats []float32) []float32 {
	n := make([]float32, 0, len(floats))
	for i := 0; i+9 <= len(floats); i += 9 {
		v1 := Vertex{floats[i], floats[i+1], floats[i+2]}
		v2 := Vertex{floats[i+3], floats[i+4], floats[i+5]}
		v3 := Vertex{floats[i+6], floats[i+7], floats[i+8]}
		c := v2.Sub(v1).Cross(v3.Sub(v2))
		for j := 0; j < 3; j++ {
			n = append(n, c[0], c[1], c[2])
		}
	}
	return n
}

// Tessellate splits every triangle into three that meet at its centroid. Winding is preserved.
func Tessellate(m Model) Model {
	out := make(Model, 0, len(m)*3)
	for _, t := range m {
		c := t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3.0)
		out = append(out,
			Triangle{t[0], t[1], c},
			Triangle{t[1], t[2], c},
			Triangle{t[2], t[0], c},
		)
	}
	return out
}

// Indexed is a flat buffer with identical vertices merged. Indices has one entry per
// original vertex and points into Vertices (three floats per entry).
type Indexed struct {
	Vertices []float32
	Indices  []uint32
}

// NewIndexed deduplicates the vertices of a flat buffer in first-seen order. Trailing floats
// that do not form a whole vertex are dropped.
func NewIndexed(floats []float32) Indexed {
	seen := make(map[Vertex]uint32)
	var ix Indexed
	for i := 0; i+3 <= len(floats); i += 3 {
		v := Vertex{floats[i], floats[i+1], floats[i+2]}
		idx, ok := seen[v]
		if !ok {
			idx = uint32(len(ix.Vertices) / 3)
			seen[v] = idx
			ix.Vertices = append(ix.Vertices, v[0], v[1], v[2])
		}
		ix.Indices = append(ix.Indices, idx)
	}
	return ix
}

// Expand rebuilds the flat buffer the index was made from.
func (ix Indexed) Expand() []float32 {
	out := make([]float32, 0, len(ix.Indices)*3)
	for _, i := range ix.Indices {
		out = append(out, ix.Vertices[i*3], ix.Vertices[i*3+1], ix.Vertices[i*3+2])
	}
	return out
}
