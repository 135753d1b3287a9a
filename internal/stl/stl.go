// Package stl reads and writes binary STL files as flat triangle buffers (x, y, z per vertex,
// three vertices per facet), the layout used by smodel.Flatten.
package stl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"model-engine/internal/smodel"
)

const (
	headerSize = 80
	facetSize  = 12*4 + 2
)

var ErrTruncated = errors.New("stl: truncated file")

// Read decodes a binary STL stream. Stored facet normals are ignored; recompute them with
// smodel.CalculateNormals if needed.
func Read(r io.Reader) ([]float32, error) {
	br := bufio.NewReader(r)
	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("stl: header: %w", truncated(err))
	}
	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("stl: facet count: %w", truncated(err))
	}

	out := make([]float32, 0, int(min(count, 1<<20))*9)
	var facet [facetSize]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(br, facet[:]); err != nil {
			return nil, fmt.Errorf("stl: facet %d: %w", i, truncated(err))
		}
		// Skip the 3 normal floats, keep the 9 vertex floats, ignore the attribute count.
		for j := 3; j < 12; j++ {
			bits := binary.LittleEndian.Uint32(facet[j*4:])
			out = append(out, math.Float32frombits(bits))
		}
	}
	return out, nil
}

// Write encodes a flat triangle buffer as binary STL. name is written into the header and
// truncated to fit. Facet normals are the normalized face normals.
func Write(w io.Writer, name string, floats []float32) error {
	if len(floats)%9 != 0 {
		return fmt.Errorf("stl: %d floats is not a whole number of triangles", len(floats))
	}
	bw := bufio.NewWriter(w)
	var header [headerSize]byte
	copy(header[:], name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(floats)/9)); err != nil {
		return fmt.Errorf("stl: %w", err)
	}

	normals := smodel.CalculateNormals(floats)
	var facet [facetSize]byte
	for i := 0; i < len(floats); i += 9 {
		n := smodel.Vertex{normals[i], normals[i+1], normals[i+2]}
		if n.Len() > 0 {
			n = n.Normalize()
		}
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(facet[j*4:], math.Float32bits(n[j]))
		}
		for j := 0; j < 9; j++ {
			binary.LittleEndian.PutUint32(facet[(3+j)*4:], math.Float32bits(floats[i+j]))
		}
		if _, err := bw.Write(facet[:]); err != nil {
			return fmt.Errorf("stl: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
