package scene

import "strings"

// Stage is a bit set of build stages. Load stages and bake stages share the EFFECTS bit:
// effects are loaded into the registry and later baked into device effects.
type Stage uint32

const (
	StageEffects Stage = 1 << iota
	StageActors
	StageModels
	StageRenderPasses
	StagePipelines
	StageCommandBuffers
)

const (
	// AllLoaded is the load mask required before Bake.
	AllLoaded = StageEffects | StageActors | StageModels | StageRenderPasses
	// AllBaked is the bake mask required before Update and Draw.
	AllBaked = StageEffects | StagePipelines | StageCommandBuffers
)

var stageNames = []struct {
	stage Stage
	name  string
}{
	{StageEffects, "EFFECTS"},
	{StageActors, "ACTORS"},
	{StageModels, "MODELS"},
	{StageRenderPasses, "RENDER_PASSES"},
	{StagePipelines, "PIPELINES"},
	{StageCommandBuffers, "COMMAND_BUFFERS"},
}

// String lists the set bits joined by "|", or "NONE".
func (s Stage) String() string {
	var parts []string
	for _, n := range stageNames {
		if s&n.stage != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// LoadState is the load state of one registry category.
type LoadState int

const (
	Unloaded LoadState = iota
	Loaded
)

// BakeState is the bake state of one bake stage.
type BakeState int

const (
	Unbaked BakeState = iota
	Baked
)

// StageStates is the per-category build state of a scene.
type StageStates struct {
	Effects      LoadState
	Actors       LoadState
	Models       LoadState
	RenderPasses LoadState

	EffectsBaked   BakeState
	Pipelines      BakeState
	CommandBuffers BakeState
}

// LoadedMask returns the load states as a Stage bit set.
//
// Returns:
//   - Stage: the loaded categories
func (s StageStates) LoadedMask() Stage {
	var m Stage
	if s.Effects == Loaded {
		m |= StageEffects
	}
	if s.Actors == Loaded {
		m |= StageActors
	}
	if s.Models == Loaded {
		m |= StageModels
	}
	if s.RenderPasses == Loaded {
		m |= StageRenderPasses
	}
	return m
}

// BakedMask returns the bake states as a Stage bit set.
//
// Returns:
//   - Stage: the baked stages
func (s StageStates) BakedMask() Stage {
	var m Stage
	if s.EffectsBaked == Baked {
		m |= StageEffects
	}
	if s.Pipelines == Baked {
		m |= StagePipelines
	}
	if s.CommandBuffers == Baked {
		m |= StageCommandBuffers
	}
	return m
}

type operation string

const (
	opLoad    operation = "load"
	opBake    operation = "bake"
	opUpdate  operation = "update"
	opDraw    operation = "draw"
	opRelease operation = "release"
)

// transition describes the state an operation may start from: every bit of loaded and
// baked must be set, and no bit of forbidBaked may be.
type transition struct {
	loaded      Stage
	baked       Stage
	forbidBaked Stage
}

var transitions = map[operation]transition{
	opLoad:    {forbidBaked: AllBaked},
	opBake:    {loaded: AllLoaded},
	opUpdate:  {loaded: AllLoaded, baked: AllBaked},
	opDraw:    {loaded: AllLoaded, baked: AllBaked},
	opRelease: {},
}

// check returns nil when op may run from s, or the typed error describing why not.
func (s StageStates) check(op operation) error {
	t := transitions[op]
	loaded, baked := s.LoadedMask(), s.BakedMask()

	if baked&t.forbidBaked != 0 {
		return ErrAlreadyBaked
	}
	if missing := t.loaded &^ loaded; missing != 0 {
		if op == opBake {
			return &NotLoadedError{Missing: missing}
		}
		return &SceneNotReadyError{Op: string(op), Missing: missing}
	}
	if missing := t.baked &^ baked; missing != 0 {
		return &SceneNotReadyError{Op: string(op), Missing: missing}
	}
	return nil
}
