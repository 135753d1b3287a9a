package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"model-engine/internal/smodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	// --- Arrange ---
	floats := smodel.Flatten(smodel.GenerateCylinder(5, 1.5, 2))
	var buf bytes.Buffer

	// --- Act ---
	require.NoError(t, Write(&buf, "cylinder", floats))
	got, err := Read(bytes.NewReader(buf.Bytes()))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, floats, got)
	assert.Equal(t, headerSize+4+20*facetSize, buf.Len())
	assert.Equal(t, "cylinder", string(bytes.TrimRight(buf.Bytes()[:headerSize], "\x00")))
}

func TestWrite_NormalIsUnitLength(t *testing.T) {
	floats := []float32{0, 0, 0, 2, 0, 0, 0, 2, 0}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", floats))

	facet := buf.Bytes()[headerSize+4:]
	var n [3]float32
	for i := range n {
		n[i] = math.Float32frombits(binary.LittleEndian.Uint32(facet[i*4:]))
	}
	assert.Equal(t, [3]float32{0, 0, 1}, n)
}

func TestWrite_RejectsPartialTriangle(t *testing.T) {
	require.Error(t, Write(&bytes.Buffer{}, "", make([]float32, 8)))
}

func TestRead_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", smodel.Flatten(smodel.GenerateCircle(3, 1))))
	data := buf.Bytes()

	for _, n := range []int{10, headerSize + 2, len(data) - 1} {
		_, err := Read(bytes.NewReader(data[:n]))
		assert.ErrorIs(t, err, ErrTruncated, "length %d", n)
	}
}
