package model

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshes is an option builder that appends meshes to the Model in draw order.
//
// Parameters:
//   - meshes: the meshes to append
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = append(m.meshes, meshes...)
	}
}

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithVertices sets the raw vertex block and its stride. The data is copied.
//
// Parameters:
//   - data: the vertex bytes
//   - stride: the byte size of one vertex
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertex block to a mesh
func WithVertices(data []byte, stride int) MeshBuilderOption {
	return func(m *mesh) {
		m.vertices = slices.Clone(data)
		m.stride = stride
	}
}

// WithVertexFloats sets the vertex block from float32 components. The data is copied.
//
// Parameters:
//   - data: the vertex components, stride/4 floats per vertex
//   - stride: the byte size of one vertex
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertex block to a mesh
func WithVertexFloats(data []float32, stride int) MeshBuilderOption {
	return WithVertices(common.SliceToBytes(data), stride)
}

// WithIndices sets the raw 32-bit index block. The data is copied.
//
// Parameters:
//   - data: the index bytes
//
// Returns:
//   - MeshBuilderOption: a function that applies the index block to a mesh
func WithIndices(data []byte) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = slices.Clone(data)
	}
}

// WithIndices32 sets the index block from uint32 indices. The data is copied.
//
// Parameters:
//   - indices: the indices
//
// Returns:
//   - MeshBuilderOption: a function that applies the index block to a mesh
func WithIndices32(indices []uint32) MeshBuilderOption {
	return WithIndices(common.SliceToBytes(indices))
}
