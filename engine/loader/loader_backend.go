package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// loaderBackend loads every model a manifest file declares.
type loaderBackend interface {
	// Load reads the manifest at path and builds its models.
	//
	// Parameters:
	//   - path: the manifest path
	//
	// Returns:
	//   - []model.Model: the models in manifest order
	//   - error: error if loading fails
	Load(path string) ([]model.Model, error)
}

// Manifest is the on-disk geometry manifest.
type Manifest struct {
	Models []ManifestModel `yaml:"models" toml:"models"`
}

// ManifestModel declares one model, either from raw mesh files or as a procedural primitive.
type ManifestModel struct {
	Name string `yaml:"name" toml:"name"`

	// Meshes reference raw geometry files.
	Meshes []ManifestMesh `yaml:"meshes,omitempty" toml:"meshes,omitempty"`

	// Primitive is "cube" or "quad"; Size ([edge] or [width, height]) and Colour configure it.
	Primitive string     `yaml:"primitive,omitempty" toml:"primitive,omitempty"`
	Size      []float32  `yaml:"size,omitempty" toml:"size,omitempty"`
	Colour    [3]float32 `yaml:"colour,omitempty" toml:"colour,omitempty"`
}

// ManifestMesh points at a raw vertex block and a raw uint32 index block.
type ManifestMesh struct {
	Vertices string `yaml:"vertices" toml:"vertices"`
	Indices  string `yaml:"indices" toml:"indices"`
	Stride   int    `yaml:"stride" toml:"stride"`
}

type manifestBackend struct {
	format LoaderBackendType
}

var _ loaderBackend = &manifestBackend{}

func newManifestBackend(format LoaderBackendType) loaderBackend {
	return &manifestBackend{format: format}
}

func (b *manifestBackend) decode(data []byte) (Manifest, error) {
	var m Manifest
	switch b.format {
	case BackendTypeYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return m, err
		}
	case BackendTypeTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return m, err
		}
	default:
		return m, ErrUnsupportedFormat
	}
	return m, nil
}

func (b *manifestBackend) Load(path string) ([]model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	manifest, err := b.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	models := make([]model.Model, 0, len(manifest.Models))
	for i, mm := range manifest.Models {
		m, err := buildManifestModel(dir, mm)
		if err != nil {
			return nil, fmt.Errorf("manifest %s model %d (%q): %w", path, i, mm.Name, err)
		}
		models = append(models, m)
	}
	return models, nil
}

func buildManifestModel(dir string, mm ManifestModel) (model.Model, error) {
	if mm.Primitive != "" {
		if len(mm.Meshes) > 0 {
			return nil, fmt.Errorf("a model cannot declare both a primitive and meshes")
		}
		return Primitive(mm.Primitive, mm.Name, mm.Size, mm.Colour)
	}

	meshes := make([]model.Mesh, 0, len(mm.Meshes))
	for j, ms := range mm.Meshes {
		vertices, err := os.ReadFile(filepath.Join(dir, ms.Vertices))
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", j, err)
		}
		indices, err := os.ReadFile(filepath.Join(dir, ms.Indices))
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", j, err)
		}
		mesh, err := model.NewMesh(model.WithVertices(vertices, ms.Stride), model.WithIndices(indices))
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", j, err)
		}
		meshes = append(meshes, mesh)
	}
	return model.NewModel(model.WithName(mm.Name), model.WithMeshes(meshes...))
}
