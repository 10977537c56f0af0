package scene

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/description"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/loader"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T, dev device.RecordingDevice, options ...SceneManBuilderOption) SceneMan {
	t.Helper()
	if dev == nil {
		dev = device.NewRecordingDevice()
	}
	options = append([]SceneManBuilderOption{WithLogger(logger.Discard())}, options...)
	return NewSceneMan("test", dev, options...)
}

func cubeModels(t *testing.T, names ...string) map[string]model.Model {
	t.Helper()
	out := make(map[string]model.Model, len(names))
	for _, name := range names {
		m, err := loader.Cube(name, 1, [3]float32{1, 1, 1})
		require.NoError(t, err)
		out[name] = m
	}
	return out
}

func litEffect() description.Effect {
	return description.Effect{Name: "lit", VertexShader: "default.vert", FragmentShader: "default.frag"}
}

func mainPass(pattern string) description.RenderPass {
	return description.RenderPass{
		Name:               "main",
		Actors:             pattern,
		ColourFormats:      []string{"surface"},
		DepthStencilFormat: "depth24plus",
	}
}

// threeActorScene has player, enemy_1 and enemy_2 drawn with "lit" in one pass.
func threeActorScene() *description.Description {
	return &description.Description{
		Effects: []description.Effect{litEffect()},
		Actors: []description.Actor{
			{Name: "player", Effect: "lit", Model: "cube", Position: [4]float32{0, 0, 0, 1}, Velocity: [4]float32{1, 0, 0, 0}},
			{Name: "enemy_1", Effect: "lit", Model: "cube", Position: [4]float32{2, 0, 0, 1}},
			{Name: "enemy_2", Effect: "lit", Model: "cube", Position: [4]float32{4, 0, 0, 1}},
		},
		RenderPasses: []description.RenderPass{mainPass("*")},
	}
}

func actorNames(actors []*Actor) []string {
	out := make([]string, len(actors))
	for i, a := range actors {
		out[i] = a.Name
	}
	return out
}

func drawActorNames(t *testing.T, sm SceneMan, cb *CommandBuffer) []string {
	t.Helper()
	var out []string
	for _, d := range cb.Draws() {
		a, ok := sm.ActorByHandle(d.Actor)
		require.True(t, ok)
		out = append(out, a.Name)
	}
	return out
}

func TestLoadBakeReachesAllBaked(t *testing.T) {
	sm := newTestScene(t, nil)

	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))
	assert.Equal(t, AllLoaded, sm.LoadedMask()&AllLoaded)
	assert.Equal(t, Stage(0), sm.BakedMask())

	require.NoError(t, sm.Bake())
	assert.Equal(t, AllBaked, sm.BakedMask())

	stats := sm.Stats()
	assert.Equal(t, 1, stats.Effects)
	assert.Equal(t, 1, stats.Models)
	assert.Equal(t, 3, stats.Actors)
	assert.Equal(t, 1, stats.RenderPasses)
	assert.Equal(t, 1, stats.Pipelines)
	assert.Equal(t, 1, stats.CommandBuffers)
	assert.Equal(t, 3, stats.Draws)
	assert.NotEmpty(t, sm.ID())
}

func TestLoadIsIdempotentPerCategory(t *testing.T) {
	sm := newTestScene(t, nil)
	models := cubeModels(t, "cube")

	require.NoError(t, sm.Load(threeActorScene(), models))
	require.NoError(t, sm.Load(threeActorScene(), models))
	assert.Len(t, sm.Actors(), 3)
}

func TestLoadReleasesLocalMeshData(t *testing.T) {
	models := cubeModels(t, "cube")
	sm := newTestScene(t, nil)
	require.NoError(t, sm.Load(threeActorScene(), models))
	assert.True(t, models["cube"].Uploaded())
	assert.False(t, models["cube"].Meshes()[0].LocalDataActive())

	kept := cubeModels(t, "cube")
	sm = newTestScene(t, nil, WithReleaseLocalMeshData(false))
	require.NoError(t, sm.Load(threeActorScene(), kept))
	assert.True(t, kept["cube"].Meshes()[0].LocalDataActive())
}

func TestDuplicateEffectKeepsFirst(t *testing.T) {
	desc := threeActorScene()
	desc.Effects = append(desc.Effects, description.Effect{Name: "lit", VertexShader: "other.vert", FragmentShader: "other.frag"})

	sm := newTestScene(t, nil)
	err := sm.Load(desc, cubeModels(t, "cube"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, KindEffect, dup.Kind)
	assert.Equal(t, "lit", dup.Name)

	e, ok := sm.Effect("lit")
	require.True(t, ok)
	assert.Equal(t, "default.vert", e.VertexShader)
	assert.Len(t, sm.Actors(), 3)
}

func TestActorWithUnknownReferencesIsNotInserted(t *testing.T) {
	desc := threeActorScene()
	desc.Actors = append(desc.Actors,
		description.Actor{Name: "ghost", Effect: "lit", Model: "missing"},
		description.Actor{Name: "lost", Effect: "nope", Model: "absent"},
	)

	sm := newTestScene(t, nil)
	err := sm.Load(desc, cubeModels(t, "cube"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Len(t, loadErr.Errs, 3)
	for _, e := range loadErr.Errs {
		var unresolved *UnresolvedReferenceError
		assert.ErrorAs(t, e, &unresolved)
	}

	var first *UnresolvedReferenceError
	require.ErrorAs(t, loadErr.Errs[0], &first)
	assert.Equal(t, "ghost", first.Actor)
	assert.Equal(t, KindModel, first.Kind)
	assert.Equal(t, "missing", first.Name)

	_, ok := sm.Actor("ghost")
	assert.False(t, ok)
	_, ok = sm.Actor("lost")
	assert.False(t, ok)
	assert.Len(t, sm.Actors(), 3)

	// The remaining actors still bake.
	require.NoError(t, sm.Bake())
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	desc := threeActorScene()
	desc.Effects = append(desc.Effects, description.Effect{Name: "half", VertexShader: "default.vert"})
	desc.RenderPasses = append(desc.RenderPasses,
		description.RenderPass{Name: "bad", Actors: "*", ColourFormats: []string{"rgb565"}},
		description.RenderPass{Name: "msaa", Actors: "*", SampleCount: 4, ColourFormats: []string{"rgba8unorm"}},
	)

	sm := newTestScene(t, nil)
	err := sm.Load(desc, cubeModels(t, "cube"))

	var invalid *InvalidDescriptionError
	require.ErrorAs(t, err, &invalid)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Len(t, loadErr.Errs, 2)
	assert.ErrorIs(t, err, device.ErrUnknownPixelFormat)

	_, ok := sm.Effect("half")
	assert.False(t, ok)
	_, ok = sm.RenderPass("bad")
	assert.False(t, ok)

	main, ok := sm.RenderPass("main")
	require.True(t, ok)
	assert.Equal(t, uint32(1), main.SampleCount)
	assert.Equal(t, []device.PixelFormat{device.PixelFormatSurface}, main.ColourFormats)
	assert.Equal(t, device.PixelFormatDepth24Plus, main.DepthStencilFormat)

	msaa, ok := sm.RenderPass("msaa")
	require.True(t, ok)
	assert.Equal(t, uint32(4), msaa.SampleCount)
}

func TestLoadModelUploadFailure(t *testing.T) {
	models := cubeModels(t, "cube")
	models["cube"].ReleaseLocalData()

	sm := newTestScene(t, nil)
	err := sm.Load(threeActorScene(), models)
	assert.ErrorIs(t, err, model.ErrNoLocalData)

	_, ok := sm.Model("cube")
	assert.False(t, ok)
	assert.Empty(t, sm.Actors())
}

func TestBakeBeforeLoad(t *testing.T) {
	sm := newTestScene(t, nil)

	var notLoaded *NotLoadedError
	require.ErrorAs(t, sm.Bake(), &notLoaded)
	assert.Equal(t, AllLoaded, notLoaded.Missing)
}

func TestLoadAfterBake(t *testing.T) {
	sm := newTestScene(t, nil)
	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	assert.ErrorIs(t, sm.Load(threeActorScene(), nil), ErrAlreadyBaked)
}

func TestBakeTwiceIsStable(t *testing.T) {
	dev := device.NewRecordingDevice()
	sm := newTestScene(t, dev)
	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	pass, ok := sm.RenderPass("main")
	require.True(t, ok)
	first := pass.CommandBuffers()
	require.Len(t, first, 1)
	live := dev.Live()

	require.NoError(t, sm.Bake())
	second := pass.CommandBuffers()
	require.Len(t, second, 1)

	assert.Equal(t, drawActorNames(t, sm, first[0]), drawActorNames(t, sm, second[0]))
	firstDraws, secondDraws := first[0].Draws(), second[0].Draws()
	for i := range firstDraws {
		assert.Same(t, firstDraws[i].Pipeline, secondDraws[i].Pipeline)
	}
	assert.NotEqual(t, first[0].DeviceHandle(), second[0].DeviceHandle())
	assert.Equal(t, live, dev.Live(), "the previous command buffer is released")
	assert.Equal(t, 1, dev.Counts().Pipelines)
	assert.Equal(t, 1, dev.Counts().Effects)
}

func TestSingleEffectScenario(t *testing.T) {
	desc := &description.Description{
		Effects: []description.Effect{litEffect()},
		Actors: []description.Actor{
			{Name: "a", Effect: "lit", Model: "cube"},
			{Name: "b", Effect: "lit", Model: "cube"},
		},
		RenderPasses: []description.RenderPass{mainPass("*")},
	}
	sm := newTestScene(t, nil)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	assert.Equal(t, 1, sm.Pipelines())
	pass, _ := sm.RenderPass("main")
	cbs := pass.CommandBuffers()
	require.Len(t, cbs, 1)
	draws := cbs[0].Draws()
	require.Len(t, draws, 2)
	assert.Same(t, draws[0].Pipeline, draws[1].Pipeline)

	effect, _ := sm.Effect("lit")
	assert.Equal(t, effect.Handle(), draws[0].Pipeline.Effect)
	assert.Equal(t, pass.Handle(), draws[0].Pipeline.Pass)
}

func TestPipelinesAreDeduplicated(t *testing.T) {
	desc := &description.Description{
		Effects: []description.Effect{
			litEffect(),
			{Name: "flat", VertexShader: "default.vert", FragmentShader: "default.frag"},
		},
		Actors: []description.Actor{
			{Name: "a1", Effect: "lit", Model: "cube"},
			{Name: "a2", Effect: "lit", Model: "cube"},
			{Name: "b1", Effect: "flat", Model: "cube"},
			{Name: "b2", Effect: "flat", Model: "cube"},
		},
		RenderPasses: []description.RenderPass{
			mainPass("*"),
			{Name: "overlay", Actors: "a*", ColourFormats: []string{"surface"}},
		},
	}
	dev := device.NewRecordingDevice()
	sm := newTestScene(t, dev)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	// lit and flat in main, only lit in overlay.
	assert.Equal(t, 3, sm.Pipelines())
	assert.LessOrEqual(t, sm.Pipelines(), 2*2)
	assert.Equal(t, 3, dev.Counts().Pipelines)

	lit, _ := sm.Effect("lit")
	main, _ := sm.RenderPass("main")
	overlay, _ := sm.RenderPass("overlay")

	p1, err := sm.FindOrBuildPipeline(lit.Handle(), main.Handle())
	require.NoError(t, err)
	p2, err := sm.FindOrBuildPipeline(lit.Handle(), main.Handle())
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	p3, err := sm.FindOrBuildPipeline(lit.Handle(), overlay.Handle())
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
	assert.Equal(t, 3, dev.Counts().Pipelines)

	desc3, ok := dev.Pipeline(p3.DeviceHandle())
	require.True(t, ok)
	assert.Equal(t, device.PixelFormatUndefined, desc3.DepthStencilFormat)
}

func TestFindOrBuildPipelineErrors(t *testing.T) {
	sm := newTestScene(t, nil)
	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))

	lit, _ := sm.Effect("lit")
	main, _ := sm.RenderPass("main")

	var notReady *SceneNotReadyError
	_, err := sm.FindOrBuildPipeline(lit.Handle(), main.Handle())
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, StageEffects, notReady.Missing)

	_, err = sm.FindOrBuildPipeline(EffectHandle{}, main.Handle())
	assert.Error(t, err)
	_, err = sm.FindOrBuildPipeline(lit.Handle(), RenderPassHandle{})
	assert.Error(t, err)
}

func TestGetActorsByPattern(t *testing.T) {
	sm := newTestScene(t, nil)

	_, err := sm.GetActorsByPattern("*")
	var notLoaded *NotLoadedError
	require.ErrorAs(t, err, &notLoaded)
	assert.Equal(t, StageActors, notLoaded.Missing)

	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))

	tests := []struct {
		pattern string
		want    []string
	}{
		{"enemy_*", []string{"enemy_1", "enemy_2"}},
		{"*", []string{"player", "enemy_1", "enemy_2"}},
		{"{player,enemy_2}", []string{"player", "enemy_2"}},
		{"enemy_?", []string{"enemy_1", "enemy_2"}},
		{"boss", nil},
		{`re:enemy_\d`, []string{"enemy_1", "enemy_2"}},
		{"re:enemy", nil},
		{"re:p.*|enemy_2", []string{"player", "enemy_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := sm.GetActorsByPattern(tt.pattern)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, actorNames(got))
		})
	}

	var patternErr *PatternCompileError
	_, err = sm.GetActorsByPattern("[")
	assert.ErrorAs(t, err, &patternErr)
	_, err = sm.GetActorsByPattern("re:(")
	assert.ErrorAs(t, err, &patternErr)
}

func TestRenderPassDrawOrderFollowsRegistry(t *testing.T) {
	desc := threeActorScene()
	desc.RenderPasses = []description.RenderPass{mainPass("enemy_*")}

	sm := newTestScene(t, nil)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	pass, _ := sm.RenderPass("main")
	assert.Len(t, pass.Actors(), 2)
	assert.Equal(t, []string{"enemy_1", "enemy_2"}, drawActorNames(t, sm, pass.CommandBuffers()[0]))
}

func TestBadPatternFailsOnlyItsPass(t *testing.T) {
	desc := threeActorScene()
	desc.RenderPasses = append(desc.RenderPasses, description.RenderPass{
		Name: "broken", Actors: "[", ColourFormats: []string{"surface"},
	})

	sm := newTestScene(t, nil)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))

	err := sm.Bake()
	var bakeErr *BakeError
	require.ErrorAs(t, err, &bakeErr)
	var patternErr *PatternCompileError
	require.ErrorAs(t, err, &patternErr)
	assert.Equal(t, "broken", patternErr.Pass)
	assert.Equal(t, AllBaked, sm.BakedMask())

	main, _ := sm.RenderPass("main")
	assert.Len(t, main.CommandBuffers(), 1)
	broken, _ := sm.RenderPass("broken")
	assert.Empty(t, broken.CommandBuffers())
	assert.Empty(t, broken.Actors())
}

func TestPipelineFailureKeepsPreviousCommandBuffers(t *testing.T) {
	var failShadow atomic.Bool
	dev := device.NewRecordingDevice(device.WithPipelineFailure(func(desc device.PipelineDescriptor) error {
		if failShadow.Load() && strings.HasPrefix(desc.Label, "shadow/") {
			return errors.New("unsupported attachment")
		}
		return nil
	}))

	desc := threeActorScene()
	desc.Effects = append(desc.Effects, description.Effect{Name: "depth", VertexShader: "default.vert", FragmentShader: "default.frag"})
	desc.RenderPasses = append(desc.RenderPasses, description.RenderPass{
		Name: "shadow", Actors: "*", DepthStencilFormat: "depth32float",
	})
	sm := newTestScene(t, dev)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	shadow, _ := sm.RenderPass("shadow")
	before := shadow.CommandBuffers()
	require.Len(t, before, 1)

	// Every pipeline is rebuilt once the cache is dropped.
	sm.(*sceneMan).pipelines.ReleaseAll()
	failShadow.Store(true)

	err := sm.Bake()
	var compileErr *PipelineCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "lit", compileErr.Effect)
	assert.Equal(t, "shadow", compileErr.Pass)
	assert.ErrorIs(t, err, device.ErrPipelineCompile)

	var bakeErr *BakeError
	require.ErrorAs(t, err, &bakeErr)
	assert.Len(t, bakeErr.Errs, 1, "a failing effect is reported once per pass")

	assert.Equal(t, AllBaked, sm.BakedMask())
	after := shadow.CommandBuffers()
	require.Len(t, after, 1)
	assert.Equal(t, before[0].DeviceHandle(), after[0].DeviceHandle())

	main, _ := sm.RenderPass("main")
	assert.Len(t, main.CommandBuffers(), 1)
}

func TestEffectFailureFailsOnlyPassesUsingIt(t *testing.T) {
	dev := device.NewRecordingDevice(device.WithEffectFailure(func(desc device.EffectDescriptor) error {
		if strings.HasPrefix(desc.Label, "broken") {
			return errors.New("bad shader")
		}
		return nil
	}))
	desc := &description.Description{
		Effects: []description.Effect{
			litEffect(),
			{Name: "broken", VertexShader: "default.vert", FragmentShader: "missing.frag"},
			{Name: "broken_unused", VertexShader: "default.vert", FragmentShader: "missing.frag"},
		},
		Actors: []description.Actor{
			{Name: "player", Effect: "lit", Model: "cube", Position: [4]float32{0, 0, 0, 1}},
			{Name: "enemy_1", Effect: "broken", Model: "cube", Position: [4]float32{2, 0, 0, 1}},
			{Name: "enemy_2", Effect: "broken", Model: "cube", Position: [4]float32{4, 0, 0, 1}},
		},
		RenderPasses: []description.RenderPass{
			{Name: "world", Actors: "player", ColourFormats: []string{"surface"}},
			{Name: "enemies", Actors: "enemy_*", ColourFormats: []string{"surface"}},
		},
	}
	sm := newTestScene(t, dev)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))

	err := sm.Bake()
	var bakeErr *BakeError
	require.ErrorAs(t, err, &bakeErr)
	assert.ErrorIs(t, err, device.ErrEffectCompile)
	assert.Len(t, bakeErr.Errs, 3, "two effects and the one pass drawing a broken effect")
	var compileErr *PipelineCompileError
	require.ErrorAs(t, bakeErr.Errs[2], &compileErr)
	assert.Equal(t, "broken", compileErr.Effect)
	assert.Equal(t, "enemies", compileErr.Pass)
	assert.Equal(t, AllBaked, sm.BakedMask())
	assert.Equal(t, 1, sm.Pipelines())

	world, _ := sm.RenderPass("world")
	require.Len(t, world.CommandBuffers(), 1)
	assert.Equal(t, []string{"player"}, drawActorNames(t, sm, world.CommandBuffers()[0]))
	enemies, _ := sm.RenderPass("enemies")
	assert.Empty(t, enemies.CommandBuffers())

	require.NoError(t, sm.Draw())
	subs := dev.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "world", subs[0].Label)
}

func TestUnusedBrokenEffectDoesNotBlockBake(t *testing.T) {
	dev := device.NewRecordingDevice(device.WithEffectFailure(func(desc device.EffectDescriptor) error {
		if desc.Label == "broken" {
			return errors.New("bad shader")
		}
		return nil
	}))
	desc := threeActorScene()
	desc.Effects = append(desc.Effects, description.Effect{Name: "broken", VertexShader: "default.vert", FragmentShader: "missing.frag"})
	sm := newTestScene(t, dev)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))

	err := sm.Bake()
	var bakeErr *BakeError
	require.ErrorAs(t, err, &bakeErr)
	assert.Len(t, bakeErr.Errs, 1)
	assert.Equal(t, AllBaked, sm.BakedMask())

	require.NoError(t, sm.Draw())
	subs := dev.Submissions()
	require.Len(t, subs, 1)
	assert.Len(t, subs[0].Draws, 3)
}

func TestDrawBeforeBake(t *testing.T) {
	dev := device.NewRecordingDevice()
	sm := newTestScene(t, dev)

	var notReady *SceneNotReadyError
	require.ErrorAs(t, sm.Draw(), &notReady)
	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))
	require.ErrorAs(t, sm.Draw(), &notReady)
	assert.Equal(t, AllBaked, notReady.Missing)
	require.ErrorAs(t, sm.Update(0.1), &notReady)

	assert.Empty(t, dev.Submissions())
	assert.Zero(t, dev.Counts().Submits)
	assert.Zero(t, dev.Counts().Records)
}

func TestUpdateAndDraw(t *testing.T) {
	dev := device.NewRecordingDevice()
	sm := newTestScene(t, dev)
	require.NoError(t, sm.Load(threeActorScene(), cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	require.NoError(t, sm.Update(0.5))
	player, _ := sm.Actor("player")
	assert.Equal(t, mgl32.Vec4{0.5, 0, 0, 1}, player.Body.Position)

	require.NoError(t, sm.Draw())
	subs := dev.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "main", subs[0].Label)
	require.Len(t, subs[0].Draws, 3)
	assert.Equal(t, [4]float32{0.5, 0, 0, 1}, subs[0].Draws[0].Position)
	assert.Equal(t, [4]float32{2, 0, 0, 1}, subs[0].Draws[1].Position)
	assert.Equal(t, uint32(36), subs[0].Draws[0].IndexCount)

	cube, _ := sm.Model("cube")
	assert.Equal(t, cube.Source.Meshes()[0].VertexBuffer(), subs[0].Draws[0].VertexBuffer)

	// Draw uses the state at call time.
	require.NoError(t, sm.Update(0.5))
	dev.ResetSubmissions()
	require.NoError(t, sm.Draw())
	assert.Equal(t, [4]float32{1, 0, 0, 1}, dev.Submissions()[0].Draws[0].Position)
}

func TestParallelUpdate(t *testing.T) {
	desc := &description.Description{
		Effects:      []description.Effect{litEffect()},
		RenderPasses: []description.RenderPass{mainPass("*")},
	}
	for i := range 50 {
		desc.Actors = append(desc.Actors, description.Actor{
			Name:     "actor_" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Effect:   "lit",
			Model:    "cube",
			Position: [4]float32{0, float32(i), 0, 1},
			Velocity: [4]float32{2, 0, 0, 7},
		})
	}

	var hooked atomic.Int32
	sm := newTestScene(t, nil,
		WithUpdateWorkers(4),
		WithUpdateHook(func(a *Actor, dt float32) {
			hooked.Add(1)
		}),
	)
	require.NoError(t, sm.Load(desc, cubeModels(t, "cube")))
	require.NoError(t, sm.Bake())

	for range 3 {
		require.NoError(t, sm.Update(0.25))
	}
	assert.Equal(t, int32(150), hooked.Load())
	for i, a := range sm.Actors() {
		assert.Equal(t, mgl32.Vec4{1.5, float32(i), 0, 1}, a.Body.Position, a.Name)
	}
}

func TestReleaseAndReload(t *testing.T) {
	dev := device.NewRecordingDevice()
	sm := newTestScene(t, dev, WithReleaseLocalMeshData(false))
	models := cubeModels(t, "cube")
	require.NoError(t, sm.Load(threeActorScene(), models))
	require.NoError(t, sm.Bake())

	player, _ := sm.Actor("player")
	oldHandle := player.Handle()

	sm.Release()
	assert.Zero(t, dev.Live())
	assert.Equal(t, StageStates{}, sm.States())
	assert.Equal(t, Stats{}, sm.Stats())
	_, ok := sm.ActorByHandle(oldHandle)
	assert.False(t, ok)
	assert.False(t, models["cube"].Uploaded())

	var notReady *SceneNotReadyError
	require.ErrorAs(t, sm.Draw(), &notReady)

	desc := threeActorScene()
	desc.Actors = desc.Actors[:2]
	require.NoError(t, sm.Reload(desc, models))
	assert.Equal(t, AllLoaded, sm.LoadedMask())
	assert.Equal(t, Stage(0), sm.BakedMask())
	require.NoError(t, sm.Bake())
	assert.Equal(t, 2, sm.Stats().Draws)

	_, ok = sm.ActorByHandle(oldHandle)
	assert.False(t, ok, "handles from before the reload stay stale")
}

func TestNewSceneManPanicsWithoutDevice(t *testing.T) {
	assert.Panics(t, func() { NewSceneMan("x", nil) })
}
