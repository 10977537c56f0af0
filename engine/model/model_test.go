package model

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(t *testing.T, stride int) Mesh {
	t.Helper()
	floats := make([]float32, 3*stride/4)
	m, err := NewMesh(WithVertexFloats(floats, stride), WithIndices32([]uint32{0, 1, 2}))
	require.NoError(t, err)
	return m
}

func TestNewMeshCounts(t *testing.T) {
	m := triangle(t, 24)
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 24, m.Stride())
	assert.Equal(t, 3, m.IndexCount())
	assert.Equal(t, 12, m.IndexBytes())
	assert.True(t, m.LocalDataActive())
	assert.False(t, m.Uploaded())
	assert.Equal(t, device.BufferHandle(device.InvalidHandle), m.VertexBuffer())
}

func TestNewMeshValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []MeshBuilderOption
	}{
		{"no stride", []MeshBuilderOption{WithVertices([]byte{1, 2, 3, 4}, 0), WithIndices32([]uint32{0})}},
		{"no vertices", []MeshBuilderOption{WithVertices(nil, 4), WithIndices32([]uint32{0})}},
		{"misaligned vertices", []MeshBuilderOption{WithVertices([]byte{1, 2, 3}, 2), WithIndices32([]uint32{0})}},
		{"no indices", []MeshBuilderOption{WithVertices([]byte{1, 2, 3, 4}, 4)}},
		{"misaligned indices", []MeshBuilderOption{WithVertices([]byte{1, 2, 3, 4}, 4), WithIndices([]byte{0, 0})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMesh(tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidMesh)
		})
	}
}

func TestMeshLifecycle(t *testing.T) {
	dev := device.NewRecordingDevice()
	m := triangle(t, 12)
	vertices := m.Vertices()

	require.NoError(t, m.InitializeGFX(dev, "tri"))
	assert.True(t, m.Uploaded())
	data, ok := dev.BufferData(m.VertexBuffer())
	require.True(t, ok)
	assert.Equal(t, vertices, data)

	// Second upload is a no-op.
	require.NoError(t, m.InitializeGFX(dev, "tri"))
	assert.Equal(t, 2, dev.Counts().Buffers)

	m.ReleaseLocalData()
	assert.False(t, m.LocalDataActive())
	assert.Nil(t, m.Vertices())
	assert.Equal(t, 3, m.IndexCount())

	m.ReleaseData(dev)
	assert.False(t, m.Uploaded())
	assert.Equal(t, 0, dev.Live())

	assert.ErrorIs(t, m.InitializeGFX(dev, "tri"), ErrNoLocalData)
}

func TestNewModelValidation(t *testing.T) {
	_, err := NewModel(WithMeshes(triangle(t, 12)))
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewModel(WithName("empty"))
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewModel(WithName("mixed"), WithMeshes(triangle(t, 12), triangle(t, 24)))
	assert.ErrorIs(t, err, ErrInvalidModel)

	m, err := NewModel(WithName("ok"), WithMeshes(triangle(t, 12), triangle(t, 12)))
	require.NoError(t, err)
	assert.Equal(t, 12, m.Stride())
	assert.Len(t, m.Meshes(), 2)
}

type failingDevice struct {
	device.RecordingDevice
	failAfter int
	created   int
}

func (f *failingDevice) CreateBuffer(label string, data []byte, usage device.BufferUsage) (device.BufferHandle, error) {
	if f.created >= f.failAfter {
		return device.InvalidHandle, errors.New("out of memory")
	}
	f.created++
	return f.RecordingDevice.CreateBuffer(label, data, usage)
}

func TestModelInitializeGFXRollsBack(t *testing.T) {
	dev := &failingDevice{RecordingDevice: device.NewRecordingDevice(), failAfter: 3}
	m, err := NewModel(WithName("pair"), WithMeshes(triangle(t, 12), triangle(t, 12)))
	require.NoError(t, err)

	err = m.InitializeGFX(dev)
	require.Error(t, err)
	assert.False(t, m.Uploaded())
	assert.False(t, m.Meshes()[0].Uploaded())
	assert.Equal(t, 0, dev.Live())

	dev.failAfter = 100
	require.NoError(t, m.InitializeGFX(dev))
	assert.True(t, m.Uploaded())

	m.ReleaseData(dev)
	assert.Equal(t, 0, dev.Live())
}
