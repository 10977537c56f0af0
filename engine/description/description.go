// Package description defines the declarative scene description consumed by the scene
// manager and decodes it from JSON, YAML or TOML.
package description

// Description is a parsed scene description: the effects, actors and render passes
// of one scene, in declaration order.
type Description struct {
	Effects      []Effect     `json:"effects" yaml:"effects" toml:"effects"`
	Actors       []Actor      `json:"actors" yaml:"actors" toml:"actors"`
	RenderPasses []RenderPass `json:"render_passes" yaml:"render_passes" toml:"render_passes"`
}

// Effect pairs a vertex and a fragment shader by name.
type Effect struct {
	Name           string   `json:"name" yaml:"name" toml:"name"`
	VertexShader   string   `json:"vertex_shader" yaml:"vertex_shader" toml:"vertex_shader"`
	FragmentShader string   `json:"fragment_shader" yaml:"fragment_shader" toml:"fragment_shader"`
	UniformBlocks  []string `json:"uniform_blocks,omitempty" yaml:"uniform_blocks,omitempty" toml:"uniform_blocks,omitempty"`

	// Long-form keys, folded into VertexShader and FragmentShader by Parse.
	VertexShaderName   string `json:"vertex_shader_name,omitempty" yaml:"vertex_shader_name,omitempty" toml:"vertex_shader_name,omitempty"`
	FragmentShaderName string `json:"fragment_shader_name,omitempty" yaml:"fragment_shader_name,omitempty" toml:"fragment_shader_name,omitempty"`
}

// Actor is a placed instance of a model drawn with an effect.
type Actor struct {
	Name            string     `json:"name" yaml:"name" toml:"name"`
	Effect          string     `json:"effect" yaml:"effect" toml:"effect"`
	Model           string     `json:"model" yaml:"model" toml:"model"`
	Position        [4]float32 `json:"position" yaml:"position" toml:"position"`
	Velocity        [4]float32 `json:"velocity" yaml:"velocity" toml:"velocity"`
	AttributeBlocks []string   `json:"attribute_blocks,omitempty" yaml:"attribute_blocks,omitempty" toml:"attribute_blocks,omitempty"`

	// Long-form keys, folded into Effect, Model and Position by Parse.
	EffectName    string      `json:"effect_name,omitempty" yaml:"effect_name,omitempty" toml:"effect_name,omitempty"`
	ModelName     string      `json:"model_name,omitempty" yaml:"model_name,omitempty" toml:"model_name,omitempty"`
	WorldPosition *[4]float32 `json:"world_position,omitempty" yaml:"world_position,omitempty" toml:"world_position,omitempty"`
}

// RenderPass selects actors by name pattern and describes the target they render into.
// A zero SampleCount means 1.
type RenderPass struct {
	Name               string   `json:"name" yaml:"name" toml:"name"`
	Actors             string   `json:"actors" yaml:"actors" toml:"actors"`
	SampleCount        uint32   `json:"sample_count,omitempty" yaml:"sample_count,omitempty" toml:"sample_count,omitempty"`
	ColourFormats      []string `json:"colour_formats" yaml:"colour_formats" toml:"colour_formats"`
	DepthStencilFormat string   `json:"depth_stencil_format,omitempty" yaml:"depth_stencil_format,omitempty" toml:"depth_stencil_format,omitempty"`

	// ActorPattern is the long-form key of Actors, folded into it by Parse.
	ActorPattern string `json:"actor_pattern,omitempty" yaml:"actor_pattern,omitempty" toml:"actor_pattern,omitempty"`
}
