package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const examplesDir = "../../examples"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateExample(t *testing.T) {
	out, err := execute(t, "validate",
		filepath.Join(examplesDir, "arena.yaml"),
		"--models", filepath.Join(examplesDir, "models.yaml"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 effects, 3 models, 4 actors, 2 render passes")
	assert.Contains(t, out, "ok")
}

func TestValidateReportsEveryError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
effects:
  - name: lit
    vertex_shader: default.vert
    fragment_shader: default.frag
  - name: lit
    vertex_shader: default.vert
    fragment_shader: default.frag
actors:
  - name: ghost
    effect: missing
    model: cube
    position: [0, 0, 0, 1]
    velocity: [0, 0, 0, 0]
render_passes:
  - name: main
    actors: "*"
    colour_formats: [surface]
`), 0o644))

	out, err := execute(t, "validate", path, "--placeholders")
	require.Error(t, err)
	assert.Contains(t, out, `duplicate effect name "lit"`)
	assert.Contains(t, out, `actor "ghost" references unknown effect "missing"`)
}

func TestBakeExampleWithFrames(t *testing.T) {
	out, err := execute(t, "bake",
		filepath.Join(examplesDir, "arena.json"),
		"--models", filepath.Join(examplesDir, "models.toml"),
		"--frames", "2", "--dt", "0.5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "1 pipelines, 1 command buffers, 3 draws")
	assert.Contains(t, out, "simulated 2 frames: 2 submissions")
	assert.Contains(t, out, "player at (-4.5, 0, 0)")
}

func TestBakeMissingModelFails(t *testing.T) {
	out, err := execute(t, "bake", filepath.Join(examplesDir, "arena.toml"))
	require.Error(t, err)
	assert.Contains(t, out, `references unknown model "cube"`)
}

func TestReadInputsPlaceholders(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(examplesDir, "arena.toml"), "--placeholders")
	require.NoError(t, err)

	opts := &rootOptions{placeholders: true, log: logger.Discard()}
	in, err := opts.readInputs(filepath.Join(examplesDir, "arena.toml"))
	require.NoError(t, err)
	assert.Len(t, in.desc.Actors, 2)
	assert.Len(t, in.models, 2)
	assert.Contains(t, in.models, "cube")
	assert.Contains(t, in.models, "spike")
}

func TestUnknownFormat(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(examplesDir, "README.md"))
	assert.Error(t, err)
}
