package smodel

import (
	"github.com/chewxy/math32"
)

// circlePoints returns n points of a circle of the given radius in the XZ plane, starting on +X.
func circlePoints(n int, radius float32) [][2]float32 {
	pts := make([][2]float32, n)
	for i := range pts {
		theta := float32(i) * 2 * math32.Pi / float32(n)
		pts[i] = [2]float32{radius * math32.Cos(theta), radius * math32.Sin(theta)}
	}
	return pts
}

// GenerateCircle builds a fan of n triangles approximating a circle in the XZ plane.
// Each triangle runs from point i to point i+1 and closes at the origin.
func GenerateCircle(n int, radius float32) Model {
	pts := circlePoints(n, radius)
	m := make(Model, 0, n)
	for i := range pts {
		a, b := pts[i], pts[(i+1)%n]
		m = append(m, Triangle{
			{a[0], 0, a[1]},
			{b[0], 0, b[1]},
			{0, 0, 0},
		})
	}
	return m
}

// GenerateCylinder builds a capped cylinder standing on the XZ plane: the bottom cap at y=0,
// the top cap at y=height, then two side triangles per segment.
func GenerateCylinder(n int, radius, height float32) Model {
	bottom := GenerateCircle(n, radius)
	top := bottom.Clone()
	for i := range top {
		for j := range top[i] {
			top[i][j][1] = height
		}
	}

	pts := circlePoints(n, radius)
	m := make(Model, 0, 4*n)
	m = append(m, bottom...)
	m = append(m, top...)
	for i := range pts {
		a, b := pts[i], pts[(i+1)%n]
		m = append(m,
			Triangle{{a[0], 0, a[1]}, {b[0], 0, b[1]}, {b[0], height, b[1]}},
			Triangle{{a[0], 0, a[1]}, {b[0], height, b[1]}, {a[0], height, a[1]}},
		)
	}
	return m
}
