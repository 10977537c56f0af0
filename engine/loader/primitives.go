package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

// PrimitiveStride is the vertex stride of the procedural primitives: a vec3f position
// followed by a vec3f colour, matching the built-in default shader.
const PrimitiveStride = 24

// ErrUnknownPrimitive is returned by Primitive for names other than "cube" and "quad".
var ErrUnknownPrimitive = errors.New("loader: unknown primitive")

// Primitive builds a procedural model by primitive name. A zero size defaults to 1.
//
// Parameters:
//   - kind: "cube" or "quad"
//   - name: the model name
//   - size: the edge length (cube uses size[0]) or width and height (quad); may be empty
//   - colour: the vertex colour
//
// Returns:
//   - model.Model: the model
//   - error: ErrUnknownPrimitive or a model construction error
func Primitive(kind, name string, size []float32, colour [3]float32) (model.Model, error) {
	var w, h float32
	if len(size) > 0 {
		w = size[0]
	}
	if len(size) > 1 {
		h = size[1]
	}
	w = common.Coalesce(w, 1)
	h = common.Coalesce(h, w)
	switch kind {
	case "cube":
		return Cube(name, w, colour)
	case "quad":
		return Quad(name, w, h, colour)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrimitive, kind)
	}
}

// Cube builds an axis-aligned cube centred on the origin with 24 vertices and 36 indices.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//   - colour: the vertex colour
//
// Returns:
//   - model.Model: the model
//   - error: a model construction error
func Cube(name string, size float32, colour [3]float32) (model.Model, error) {
	s := size / 2
	// Four corners per face, counter-clockwise seen from outside.
	faces := [6][4][3]float32{
		{{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s}},     // +z
		{{s, -s, -s}, {-s, -s, -s}, {-s, s, -s}, {s, s, -s}}, // -z
		{{s, -s, s}, {s, -s, -s}, {s, s, -s}, {s, s, s}},     // +x
		{{-s, -s, -s}, {-s, -s, s}, {-s, s, s}, {-s, s, -s}}, // -x
		{{-s, s, s}, {s, s, s}, {s, s, -s}, {-s, s, -s}},     // +y
		{{-s, -s, -s}, {s, -s, -s}, {s, -s, s}, {-s, -s, s}}, // -y
	}

	vertices := make([]float32, 0, 6*4*6)
	indices := make([]uint32, 0, 6*6)
	for f, face := range faces {
		for _, p := range face {
			vertices = append(vertices, p[0], p[1], p[2], colour[0], colour[1], colour[2])
		}
		base := uint32(f * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return buildPrimitive(name, vertices, indices)
}

// Quad builds a quad in the XY plane centred on the origin, facing +z.
//
// Parameters:
//   - name: the model name
//   - width: the extent along x
//   - height: the extent along y
//   - colour: the vertex colour
//
// Returns:
//   - model.Model: the model
//   - error: a model construction error
func Quad(name string, width, height float32, colour [3]float32) (model.Model, error) {
	w, h := width/2, height/2
	vertices := []float32{
		-w, -h, 0, colour[0], colour[1], colour[2],
		w, -h, 0, colour[0], colour[1], colour[2],
		w, h, 0, colour[0], colour[1], colour[2],
		-w, h, 0, colour[0], colour[1], colour[2],
	}
	return buildPrimitive(name, vertices, []uint32{0, 1, 2, 0, 2, 3})
}

func buildPrimitive(name string, vertices []float32, indices []uint32) (model.Model, error) {
	mesh, err := model.NewMesh(
		model.WithVertexFloats(vertices, PrimitiveStride),
		model.WithIndices32(indices),
	)
	if err != nil {
		return nil, err
	}
	return model.NewModel(model.WithName(name), model.WithMeshes(mesh))
}
