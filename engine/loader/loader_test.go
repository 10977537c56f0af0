package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLoadYAMLManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.vtx", common.SliceToBytes(make([]float32, 9)))
	writeFile(t, dir, "tri.idx", common.SliceToBytes([]uint32{0, 1, 2}))
	manifest := writeFile(t, dir, "models.yaml", []byte(`
models:
  - name: tri
    meshes:
      - vertices: tri.vtx
        indices: tri.idx
        stride: 12
  - name: box
    primitive: cube
    size: [2]
    colour: [1, 0, 0]
`))

	l := NewLoader(WithLogger(logger.Discard()))
	models, err := l.LoadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, models, 2)

	tri := l.Get("tri")
	require.NotNil(t, tri)
	assert.Equal(t, 12, tri.Stride())
	assert.Equal(t, 3, tri.Meshes()[0].IndexCount())

	box := l.Get("box")
	require.NotNil(t, box)
	assert.Equal(t, 24, box.Meshes()[0].VertexCount())
	assert.Equal(t, 36, box.Meshes()[0].IndexCount())

	assert.Len(t, l.Models(), 2)

	// Loading the same manifest again collides on every name and caches nothing new.
	_, err = l.LoadManifest(manifest)
	assert.ErrorIs(t, err, ErrDuplicateModel)
	assert.Len(t, l.Models(), 2)

	l.Clear()
	assert.Empty(t, l.Models())
}

func TestLoadTOMLManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "models.toml", []byte(`
[[models]]
name = "floor"
primitive = "quad"
size = [4.0, 2.0]
colour = [0.5, 0.5, 0.5]
`))

	l := NewLoader(WithLogger(logger.Discard()))
	models, err := l.LoadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "floor", models[0].Name())
	assert.Equal(t, 6, models[0].Meshes()[0].IndexCount())
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(WithLogger(logger.Discard()))

	_, err := l.LoadManifest(filepath.Join(dir, "models.obj"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.LoadManifest(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	unknownField := writeFile(t, dir, "bad.yaml", []byte("models:\n  - name: x\n    shape: cube\n"))
	_, err = l.LoadManifest(unknownField)
	assert.Error(t, err)

	badPrimitive := writeFile(t, dir, "prim.yaml", []byte("models:\n  - name: x\n    primitive: sphere\n"))
	_, err = l.LoadManifest(badPrimitive)
	assert.ErrorIs(t, err, ErrUnknownPrimitive)

	missingMesh := writeFile(t, dir, "mesh.yaml", []byte("models:\n  - name: x\n    meshes:\n      - vertices: nope.vtx\n        indices: nope.idx\n        stride: 12\n"))
	_, err = l.LoadManifest(missingMesh)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Empty(t, l.Models())
}

func TestAddAndWithModel(t *testing.T) {
	quad, err := Quad("quad", 1, 1, [3]float32{1, 1, 1})
	require.NoError(t, err)

	l := NewLoader(WithModel(quad))
	assert.Same(t, quad, l.Get("quad"))
	assert.ErrorIs(t, l.Add(quad), ErrDuplicateModel)

	cube, err := Cube("cube", 1, [3]float32{})
	require.NoError(t, err)
	require.NoError(t, l.Add(cube))
	assert.Nil(t, l.Get("missing"))
}

func TestPrimitiveDefaults(t *testing.T) {
	m, err := Primitive("quad", "q", nil, [3]float32{})
	require.NoError(t, err)
	assert.Equal(t, PrimitiveStride, m.Stride())

	floats := m.Meshes()[0].Vertices()
	require.Len(t, floats, 4*PrimitiveStride)
}
