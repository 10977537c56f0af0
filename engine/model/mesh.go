package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
)

// IndexSize is the byte size of one index. Meshes always use 32-bit indices.
const IndexSize = 4

var (
	// ErrInvalidMesh is wrapped by NewMesh when the geometry blocks are inconsistent.
	ErrInvalidMesh = errors.New("model: invalid mesh")

	// ErrNoLocalData is returned by InitializeGFX when the CPU copy was already released
	// before the mesh was ever uploaded.
	ErrNoLocalData = errors.New("model: mesh local data was released before upload")
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	numVertices     int
	stride          int
	numIndices      int
	numIndicesBytes int

	vertices []byte
	indices  []byte

	vertexBuffer device.BufferHandle
	indexBuffer  device.BufferHandle

	localDataActive bool
	uploaded        bool
}

// Mesh is one drawable piece of geometry: an opaque vertex block with a fixed stride and a
// block of 32-bit indices. The CPU copy can be dropped once the data lives on the device.
type Mesh interface {
	// VertexCount returns the number of vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Stride returns the byte size of one vertex.
	//
	// Returns:
	//   - int: the vertex stride in bytes
	Stride() int

	// IndexCount returns the number of indices.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// IndexBytes returns the byte size of the index block.
	//
	// Returns:
	//   - int: the index block size
	IndexBytes() int

	// Vertices returns the CPU copy of the vertex block, nil once released.
	//
	// Returns:
	//   - []byte: the vertex bytes
	Vertices() []byte

	// Indices returns the CPU copy of the index block, nil once released.
	//
	// Returns:
	//   - []byte: the index bytes
	Indices() []byte

	// VertexBuffer returns the device vertex buffer, device.InvalidHandle before upload.
	//
	// Returns:
	//   - device.BufferHandle: the vertex buffer handle
	VertexBuffer() device.BufferHandle

	// IndexBuffer returns the device index buffer, device.InvalidHandle before upload.
	//
	// Returns:
	//   - device.BufferHandle: the index buffer handle
	IndexBuffer() device.BufferHandle

	// LocalDataActive reports whether the CPU copy is still held.
	//
	// Returns:
	//   - bool: true while Vertices and Indices are available
	LocalDataActive() bool

	// Uploaded reports whether the mesh currently owns device buffers.
	//
	// Returns:
	//   - bool: true after a successful InitializeGFX and before ReleaseData
	Uploaded() bool

	// InitializeGFX uploads the vertex and index blocks to the device. It is a no-op if the
	// mesh is already uploaded.
	//
	// Parameters:
	//   - dev: the device to create the buffers on
	//   - label: a debug label prefix for the buffers
	//
	// Returns:
	//   - error: ErrNoLocalData if the CPU copy is gone, or a device error
	InitializeGFX(dev device.Device, label string) error

	// ReleaseLocalData drops the CPU copy of the geometry. Counts and device buffers are kept.
	ReleaseLocalData()

	// ReleaseData destroys the device buffers. The CPU copy, if still held, is kept so the
	// mesh can be uploaded again.
	//
	// Parameters:
	//   - dev: the device the buffers were created on
	ReleaseData(dev device.Device)
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh from raw geometry blocks.
//
// Parameters:
//   - options: functional options supplying the vertex and index blocks
//
// Returns:
//   - Mesh: the mesh
//   - error: an error wrapping ErrInvalidMesh if the blocks are empty or misaligned
func NewMesh(options ...MeshBuilderOption) (Mesh, error) {
	m := &mesh{localDataActive: true}
	for _, opt := range options {
		opt(m)
	}

	switch {
	case m.stride <= 0:
		return nil, fmt.Errorf("%w: stride must be positive, got %d", ErrInvalidMesh, m.stride)
	case len(m.vertices) == 0:
		return nil, fmt.Errorf("%w: no vertex data", ErrInvalidMesh)
	case len(m.vertices)%m.stride != 0:
		return nil, fmt.Errorf("%w: %d vertex bytes is not a multiple of stride %d", ErrInvalidMesh, len(m.vertices), m.stride)
	case len(m.indices) == 0:
		return nil, fmt.Errorf("%w: no index data", ErrInvalidMesh)
	case len(m.indices)%IndexSize != 0:
		return nil, fmt.Errorf("%w: %d index bytes is not a multiple of %d", ErrInvalidMesh, len(m.indices), IndexSize)
	}

	m.numVertices = len(m.vertices) / m.stride
	m.numIndicesBytes = len(m.indices)
	m.numIndices = m.numIndicesBytes / IndexSize
	return m, nil
}

func (m *mesh) VertexCount() int {
	return m.numVertices
}

func (m *mesh) Stride() int {
	return m.stride
}

func (m *mesh) IndexCount() int {
	return m.numIndices
}

func (m *mesh) IndexBytes() int {
	return m.numIndicesBytes
}

func (m *mesh) Vertices() []byte {
	return m.vertices
}

func (m *mesh) Indices() []byte {
	return m.indices
}

func (m *mesh) VertexBuffer() device.BufferHandle {
	return m.vertexBuffer
}

func (m *mesh) IndexBuffer() device.BufferHandle {
	return m.indexBuffer
}

func (m *mesh) LocalDataActive() bool {
	return m.localDataActive
}

func (m *mesh) Uploaded() bool {
	return m.uploaded
}

func (m *mesh) InitializeGFX(dev device.Device, label string) error {
	if m.uploaded {
		return nil
	}
	if !m.localDataActive {
		return ErrNoLocalData
	}

	vb, err := dev.CreateBuffer(label+" Vertex Buffer", m.vertices, device.BufferUsageVertex)
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer: %w", err)
	}
	ib, err := dev.CreateBuffer(label+" Index Buffer", m.indices, device.BufferUsageIndex)
	if err != nil {
		dev.ReleaseBuffer(vb)
		return fmt.Errorf("failed to create index buffer: %w", err)
	}

	m.vertexBuffer = vb
	m.indexBuffer = ib
	m.uploaded = true
	return nil
}

func (m *mesh) ReleaseLocalData() {
	m.vertices = nil
	m.indices = nil
	m.localDataActive = false
}

func (m *mesh) ReleaseData(dev device.Device) {
	if !m.uploaded {
		return
	}
	dev.ReleaseBuffer(m.vertexBuffer)
	dev.ReleaseBuffer(m.indexBuffer)
	m.vertexBuffer = device.InvalidHandle
	m.indexBuffer = device.InvalidHandle
	m.uploaded = false
}
