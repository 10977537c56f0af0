package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies which programmable stage a shader feeds.
type Stage int

const (
	// StageVertex is the vertex stage, which also owns the vertex buffer layout.
	StageVertex Stage = iota

	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ErrNoEntryPoint is returned by NewShader when the source has no entry point for the requested stage.
var ErrNoEntryPoint = errors.New("shader: no entry point for stage")

// shader is the implementation of the Shader interface.
type shader struct {
	name          string
	stage         Stage
	source        string
	entryPoint    string
	vertexLayout  wgpu.VertexBufferLayout
	hasLayout     bool
	uniformBlocks []string
}

// Shader is a parsed WGSL shader registered under a name in a Library.
type Shader interface {
	// Name retrieves the name the shader is registered under.
	//
	// Returns:
	//   - string: the shader name
	Name() string

	// Stage retrieves the programmable stage of the shader.
	//
	// Returns:
	//   - Stage: StageVertex or StageFragment
	Stage() Stage

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// EntryPoint returns the entry point function name for the shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// VertexLayout returns the vertex buffer layout parsed from the first pure vertex input struct.
	// Only vertex shaders carry a layout.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the parsed layout
	//   - bool: false if no vertex input struct was found
	VertexLayout() (wgpu.VertexBufferLayout, bool)

	// UniformBlocks returns the names of every var<uniform> declaration, in source order.
	//
	// Returns:
	//   - []string: the uniform variable names
	UniformBlocks() []string
}

var _ Shader = &shader{}

// NewShader parses WGSL source into a Shader.
//
// Parameters:
//   - name: the name the shader is registered under
//   - stage: the programmable stage the shader feeds
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error wrapping ErrNoEntryPoint if no entry point for the stage exists
func NewShader(name string, stage Stage, source string) (Shader, error) {
	s := &shader{
		name:   name,
		stage:  stage,
		source: source,
	}
	s.entryPoint = parseEntryPoint(source, stage)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w: %s shader %q", ErrNoEntryPoint, stage, name)
	}
	if stage == StageVertex {
		s.vertexLayout, s.hasLayout = parseVertexLayout(source)
	}
	s.uniformBlocks = parseUniformBlocks(source)
	return s, nil
}

func (s *shader) Name() string {
	return s.name
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayout() (wgpu.VertexBufferLayout, bool) {
	return s.vertexLayout, s.hasLayout
}

func (s *shader) UniformBlocks() []string {
	return s.uniformBlocks
}
