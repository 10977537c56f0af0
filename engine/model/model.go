package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
)

// ErrInvalidModel is wrapped by NewModel when the model has no name, no meshes, or meshes
// with different vertex strides.
var ErrInvalidModel = errors.New("model: invalid model")

// model is the implementation of the Model interface.
type model struct {
	name   string
	meshes []Mesh
}

// Model is a named, ordered collection of meshes drawn together with one effect.
// It is produced by the loader and consumed by the scene manager.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Meshes retrieves the meshes in draw order.
	//
	// Returns:
	//   - []Mesh: the meshes
	Meshes() []Mesh

	// Stride returns the vertex stride shared by every mesh of the model.
	//
	// Returns:
	//   - int: the vertex stride in bytes
	Stride() int

	// Uploaded reports whether every mesh owns device buffers.
	//
	// Returns:
	//   - bool: true if all meshes are uploaded
	Uploaded() bool

	// InitializeGFX uploads every mesh. If any mesh fails, the meshes uploaded by this call
	// are released again so the model is never left partially uploaded.
	//
	// Parameters:
	//   - dev: the device to upload to
	//
	// Returns:
	//   - error: the first upload error
	InitializeGFX(dev device.Device) error

	// ReleaseLocalData drops the CPU copy of every mesh.
	ReleaseLocalData()

	// ReleaseData destroys the device buffers of every mesh.
	//
	// Parameters:
	//   - dev: the device the buffers were created on
	ReleaseData(dev device.Device)
}

var _ Model = &model{}

// NewModel creates a Model.
//
// Parameters:
//   - options: functional options configuring the model
//
// Returns:
//   - Model: the model
//   - error: an error wrapping ErrInvalidModel if the configuration is inconsistent
func NewModel(options ...ModelBuilderOption) (Model, error) {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}

	if m.name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidModel)
	}
	if len(m.meshes) == 0 {
		return nil, fmt.Errorf("%w: %s has no meshes", ErrInvalidModel, m.name)
	}
	stride := m.meshes[0].Stride()
	for i, mesh := range m.meshes[1:] {
		if mesh.Stride() != stride {
			return nil, fmt.Errorf("%w: %s mesh %d stride %d differs from %d", ErrInvalidModel, m.name, i+1, mesh.Stride(), stride)
		}
	}
	return m, nil
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Meshes() []Mesh {
	return m.meshes
}

func (m *model) Stride() int {
	return m.meshes[0].Stride()
}

func (m *model) Uploaded() bool {
	for _, mesh := range m.meshes {
		if !mesh.Uploaded() {
			return false
		}
	}
	return true
}

func (m *model) InitializeGFX(dev device.Device) error {
	var done []Mesh
	for i, mesh := range m.meshes {
		if mesh.Uploaded() {
			continue
		}
		if err := mesh.InitializeGFX(dev, fmt.Sprintf("%s/%d", m.name, i)); err != nil {
			for _, d := range done {
				d.ReleaseData(dev)
			}
			return fmt.Errorf("model %s mesh %d: %w", m.name, i, err)
		}
		done = append(done, mesh)
	}
	return nil
}

func (m *model) ReleaseLocalData() {
	for _, mesh := range m.meshes {
		mesh.ReleaseLocalData()
	}
}

func (m *model) ReleaseData(dev device.Device) {
	for _, mesh := range m.meshes {
		mesh.ReleaseData(dev)
	}
}
