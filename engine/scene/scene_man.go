// Package scene turns a parsed scene description into draw-ready command buffers.
//
// A SceneMan moves through two phases. Load fills the registry with effects, models,
// actors and render passes. Bake creates device effects, resolves each render pass's
// actor pattern, builds one pipeline per (effect, render pass) pair and records the
// per-pass draw lists. After a bake, Update integrates actor physics and Draw submits the
// command buffers once per frame.
package scene

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/engine/description"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stats is a point-in-time summary of a scene.
type Stats struct {
	Effects        int
	Models         int
	Actors         int
	RenderPasses   int
	Pipelines      int
	CommandBuffers int
	Draws          int
	Loaded         Stage
	Baked          Stage
}

// SceneMan manages the build lifecycle of one scene. It is not safe for concurrent use;
// Load, Bake, Update and Draw are expected to run on the same goroutine.
type SceneMan interface {
	// ID returns the unique instance id of the scene.
	ID() string

	// Name returns the scene name.
	Name() string

	// Load registers the description's effects, the given models, then the actors and
	// render passes, skipping categories that are already loaded. Every problem found is
	// collected; valid entries are registered even when others fail.
	//
	// Parameters:
	//   - desc: the parsed scene description
	//   - models: the models actors may reference, keyed by name
	//
	// Returns:
	//   - error: ErrAlreadyBaked after a bake, or a *LoadError
	Load(desc *description.Description, models map[string]model.Model) error

	// Bake creates device effects, resolves every render pass, builds pipelines and
	// command buffers. A pass that fails, including one drawing an effect the device
	// rejected, keeps its previous command buffers while the other passes bake.
	//
	// Returns:
	//   - error: a *NotLoadedError, or a *BakeError listing effect and per-pass failures
	Bake() error

	// Update integrates every actor's position by its velocity and runs the update hook.
	//
	// Parameters:
	//   - dt: the time step in seconds
	//
	// Returns:
	//   - error: a *SceneNotReadyError before the scene is baked
	Update(dt float32) error

	// Draw records and submits every command buffer, render passes in registration order.
	//
	// Returns:
	//   - error: a *SceneNotReadyError before the scene is baked, or a device error
	Draw() error

	// Release destroys every entity in reverse dependency order and returns the scene
	// to the unloaded state.
	Release()

	// Reload releases the scene and loads it again. Bake must be called afterwards.
	//
	// Parameters:
	//   - desc: the parsed scene description
	//   - models: the models actors may reference, keyed by name
	//
	// Returns:
	//   - error: a *LoadError
	Reload(desc *description.Description, models map[string]model.Model) error

	// GetActorsByPattern returns the actors whose names match pattern, in registry order.
	//
	// Parameters:
	//   - pattern: a glob, or a regular expression prefixed with RegexPrefix
	//
	// Returns:
	//   - []*Actor: the matching actors
	//   - error: a *NotLoadedError before actors are loaded, or a *PatternCompileError
	GetActorsByPattern(pattern string) ([]*Actor, error)

	// FindOrBuildPipeline returns the pipeline for an (effect, render pass) pair,
	// creating it on first use.
	//
	// Parameters:
	//   - effect: a baked effect
	//   - pass: the target render pass
	//
	// Returns:
	//   - *Pipeline: the cached pipeline
	//   - error: a *PipelineCompileError, or an error for unknown or unbaked handles
	FindOrBuildPipeline(effect EffectHandle, pass RenderPassHandle) (*Pipeline, error)

	// BuildCommandBuffers rebuilds the command buffer of a resolved render pass. The
	// previous command buffers are replaced only on success.
	//
	// Parameters:
	//   - pass: the render pass
	//
	// Returns:
	//   - error: a pipeline or device error
	BuildCommandBuffers(pass RenderPassHandle) error

	// States returns the per-category build states.
	States() StageStates

	// LoadedMask returns the loaded categories as a Stage bit set.
	LoadedMask() Stage

	// BakedMask returns the baked stages as a Stage bit set.
	BakedMask() Stage

	// Effect looks up an effect by name.
	Effect(name string) (*Effect, bool)

	// Model looks up a model by name.
	Model(name string) (*Model, bool)

	// Actor looks up an actor by name.
	Actor(name string) (*Actor, bool)

	// RenderPass looks up a render pass by name.
	RenderPass(name string) (*RenderPass, bool)

	// ActorByHandle resolves an actor handle.
	ActorByHandle(h ActorHandle) (*Actor, bool)

	// EffectByHandle resolves an effect handle.
	EffectByHandle(h EffectHandle) (*Effect, bool)

	// ModelByHandle resolves a model handle.
	ModelByHandle(h ModelHandle) (*Model, bool)

	// Actors returns every actor in registration order.
	Actors() []*Actor

	// RenderPasses returns every render pass in registration order.
	RenderPasses() []*RenderPass

	// Pipelines returns the number of cached pipelines.
	Pipelines() int

	// Stats summarizes the scene.
	Stats() Stats
}

type sceneMan struct {
	id   string
	name string
	dev  device.Device

	baseLog logrus.FieldLogger
	log     logrus.FieldLogger

	reg       *registry
	patterns  *patternCache
	pipelines *PipelineCache
	states    StageStates

	releaseLocalMeshData bool
	updateHook           UpdateHook

	// updatePool spreads actor integration when more than one update worker is
	// configured. Workers persist across frames.
	updatePool    worker.DynamicWorkerPool
	updateWorkers int

	// actorList caches the actor table in registration order; actors only change on Load.
	actorList   []*Actor
	drawScratch []device.DrawCommand
}

var _ SceneMan = &sceneMan{}

// NewSceneMan creates an empty scene building its GPU objects on dev. It panics if dev
// is nil.
//
// Parameters:
//   - name: the scene name, used in log fields
//   - dev: the device effects, pipelines and command buffers are created on
//   - options: functional options to further configure the scene
//
// Returns:
//   - SceneMan: the new scene
func NewSceneMan(name string, dev device.Device, options ...SceneManBuilderOption) SceneMan {
	if dev == nil {
		panic("scene: NewSceneMan requires a non-nil Device")
	}

	sm := &sceneMan{
		id:                   uuid.New().String(),
		name:                 name,
		dev:                  dev,
		baseLog:              logrus.StandardLogger(),
		reg:                  newRegistry(),
		patterns:             newPatternCache(),
		pipelines:            NewPipelineCache(dev),
		releaseLocalMeshData: true,
		updateWorkers:        1,
	}

	for _, option := range options {
		option(sm)
	}

	sm.log = sm.baseLog.WithFields(logrus.Fields{
		"scene":    sm.name,
		"scene_id": sm.id,
	})

	// Queue size of 256 leaves headroom for one task per worker per frame.
	if sm.updateWorkers > 1 {
		sm.updatePool = worker.NewDynamicWorkerPool(sm.updateWorkers, 256, 1*time.Second)
	}

	return sm
}

func (sm *sceneMan) ID() string {
	return sm.id
}

func (sm *sceneMan) Name() string {
	return sm.name
}

func (sm *sceneMan) Load(desc *description.Description, models map[string]model.Model) error {
	if err := sm.states.check(opLoad); err != nil {
		return err
	}
	if desc == nil {
		return errors.New("scene: Load requires a non-nil description")
	}

	start := time.Now()
	var errs []error
	if sm.states.Effects == Unloaded {
		errs = append(errs, sm.loadEffects(desc.Effects)...)
		sm.states.Effects = Loaded
	}
	if sm.states.Models == Unloaded {
		errs = append(errs, sm.loadModels(models)...)
		sm.states.Models = Loaded
	}
	if sm.states.Actors == Unloaded {
		errs = append(errs, sm.loadActors(desc.Actors)...)
		sm.actorList = sm.reg.actors.values()
		sm.states.Actors = Loaded
	}
	if sm.states.RenderPasses == Unloaded {
		errs = append(errs, sm.loadRenderPasses(desc.RenderPasses)...)
		sm.states.RenderPasses = Loaded
	}

	sm.log.WithFields(logrus.Fields{
		"stage":         sm.states.LoadedMask().String(),
		"effects":       sm.reg.effects.len(),
		"models":        sm.reg.models.len(),
		"actors":        sm.reg.actors.len(),
		"render_passes": sm.reg.renderPasses.len(),
		"errors":        len(errs),
		"elapsed":       time.Since(start),
	}).Info("scene loaded")

	if len(errs) > 0 {
		return &LoadError{Errs: errs}
	}
	return nil
}

func (sm *sceneMan) loadEffects(effects []description.Effect) []error {
	var errs []error
	for _, d := range effects {
		switch {
		case d.Name == "":
			errs = append(errs, &InvalidDescriptionError{Kind: KindEffect, Reason: "missing name"})
			continue
		case d.VertexShader == "":
			errs = append(errs, &InvalidDescriptionError{Kind: KindEffect, Name: d.Name, Reason: "missing vertex shader"})
			continue
		case d.FragmentShader == "":
			errs = append(errs, &InvalidDescriptionError{Kind: KindEffect, Name: d.Name, Reason: "missing fragment shader"})
			continue
		}

		e := &Effect{
			Name:           d.Name,
			VertexShader:   d.VertexShader,
			FragmentShader: d.FragmentShader,
			UniformBlocks:  slices.Clone(d.UniformBlocks),
		}
		if err := sm.reg.addEffect(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// loadModels registers models in name order so the registry order does not depend on
// map iteration.
func (sm *sceneMan) loadModels(models map[string]model.Model) []error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(models)) {
		src := models[name]
		if src == nil {
			errs = append(errs, &InvalidDescriptionError{Kind: KindModel, Name: name, Reason: "nil model"})
			continue
		}
		if _, _, ok := sm.reg.models.lookup(name); ok {
			errs = append(errs, &DuplicateNameError{Kind: KindModel, Name: name})
			continue
		}
		if !src.Uploaded() {
			if err := src.InitializeGFX(sm.dev); err != nil {
				errs = append(errs, fmt.Errorf("failed to upload: %w", err))
				continue
			}
		}
		if sm.releaseLocalMeshData {
			src.ReleaseLocalData()
		}
		if err := sm.reg.addModel(&Model{Name: name, Source: src}); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (sm *sceneMan) loadActors(actors []description.Actor) []error {
	var errs []error
	for _, d := range actors {
		if d.Name == "" {
			errs = append(errs, &InvalidDescriptionError{Kind: KindActor, Reason: "missing name"})
			continue
		}

		eh, _, effectOK := sm.reg.effects.lookup(d.Effect)
		if !effectOK {
			errs = append(errs, &UnresolvedReferenceError{Actor: d.Name, Kind: KindEffect, Name: d.Effect})
		}
		mh, _, modelOK := sm.reg.models.lookup(d.Model)
		if !modelOK {
			errs = append(errs, &UnresolvedReferenceError{Actor: d.Name, Kind: KindModel, Name: d.Model})
		}
		if !effectOK || !modelOK {
			continue
		}

		a := &Actor{
			Name: d.Name,
			Body: PhysicsBody{
				Position: mgl32.Vec4(d.Position),
				Velocity: mgl32.Vec4(d.Velocity),
			},
			Model:           mh,
			Effect:          eh,
			AttributeBlocks: slices.Clone(d.AttributeBlocks),
		}
		if err := sm.reg.addActor(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (sm *sceneMan) loadRenderPasses(passes []description.RenderPass) []error {
	var errs []error
	for _, d := range passes {
		if d.Name == "" {
			errs = append(errs, &InvalidDescriptionError{Kind: KindRenderPass, Reason: "missing name"})
			continue
		}

		p := &RenderPass{
			Name:        d.Name,
			Pattern:     d.Actors,
			SampleCount: max(d.SampleCount, 1),
		}
		valid := true
		for _, name := range d.ColourFormats {
			f, err := device.ParsePixelFormat(name)
			if err != nil {
				errs = append(errs, &InvalidDescriptionError{Kind: KindRenderPass, Name: d.Name, Reason: "bad colour format", Err: err})
				valid = false
				continue
			}
			p.ColourFormats = append(p.ColourFormats, f)
		}
		f, err := device.ParsePixelFormat(d.DepthStencilFormat)
		if err != nil {
			errs = append(errs, &InvalidDescriptionError{Kind: KindRenderPass, Name: d.Name, Reason: "bad depth/stencil format", Err: err})
			valid = false
		}
		p.DepthStencilFormat = f
		if !valid {
			continue
		}

		if err := sm.reg.addRenderPass(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (sm *sceneMan) Bake() error {
	if err := sm.states.check(opBake); err != nil {
		return err
	}

	start := time.Now()
	// A failed effect leaves its device handle invalid; only passes drawing it fail below.
	errs := sm.bakeEffects()
	if len(errs) > 0 {
		sm.log.WithField("errors", len(errs)).Error("failed to bake effects")
	}
	sm.states.EffectsBaked = Baked

	idx := sm.buildActorIndex()
	resolved := make([]*RenderPass, 0, sm.reg.renderPasses.len())
	sm.reg.renderPasses.each(func(_ RenderPassHandle, pass *RenderPass) bool {
		if err := sm.resolveRenderPass(pass, idx); err != nil {
			errs = append(errs, err)
			return true
		}
		resolved = append(resolved, pass)
		return true
	})

	withPipelines := make([]*RenderPass, 0, len(resolved))
	for _, pass := range resolved {
		if perr := sm.populatePipelines(pass); len(perr) > 0 {
			errs = append(errs, perr...)
			continue
		}
		withPipelines = append(withPipelines, pass)
	}
	sm.states.Pipelines = Baked

	for _, pass := range withPipelines {
		if err := sm.BuildCommandBuffers(pass.handle); err != nil {
			errs = append(errs, err)
		}
	}
	sm.states.CommandBuffers = Baked

	entry := sm.log.WithFields(logrus.Fields{
		"stage":        sm.states.BakedMask().String(),
		"pipelines":    sm.pipelines.Len(),
		"passes_baked": len(withPipelines),
		"errors":       len(errs),
		"elapsed":      time.Since(start),
	})
	if len(errs) > 0 {
		entry.Warn("scene baked with errors")
		return &BakeError{Errs: errs}
	}
	entry.Info("scene baked")
	return nil
}

// bakeEffects creates a device effect for every effect that does not have one yet.
func (sm *sceneMan) bakeEffects() []error {
	var errs []error
	sm.reg.effects.each(func(_ EffectHandle, e *Effect) bool {
		if e.deviceHandle != device.InvalidHandle {
			return true
		}
		h, err := sm.dev.CreateEffect(device.EffectDescriptor{
			Label:          e.Name,
			VertexShader:   e.VertexShader,
			FragmentShader: e.FragmentShader,
			UniformBlocks:  e.UniformBlocks,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("effect %q: %w", e.Name, err))
			return true
		}
		e.deviceHandle = h
		return true
	})
	return errs
}

// populatePipelines builds the pipeline of every effect used by the pass's actors. Each
// failing effect is reported once, including effects whose device effect failed.
func (sm *sceneMan) populatePipelines(pass *RenderPass) []error {
	var errs []error
	failed := make(map[EffectHandle]struct{})
	for _, ah := range pass.actors {
		actor, ok := sm.reg.actors.get(ah)
		if !ok {
			continue
		}
		if _, ok := failed[actor.Effect]; ok {
			continue
		}
		if effect, ok := sm.reg.effects.get(actor.Effect); ok && effect.deviceHandle == device.InvalidHandle {
			failed[actor.Effect] = struct{}{}
			errs = append(errs, &PipelineCompileError{
				Effect: effect.Name,
				Pass:   pass.Name,
				Err:    fmt.Errorf("%w: no device effect", device.ErrEffectCompile),
			})
			continue
		}
		if _, err := sm.FindOrBuildPipeline(actor.Effect, pass.handle); err != nil {
			failed[actor.Effect] = struct{}{}
			errs = append(errs, err)
		}
	}
	return errs
}

func (sm *sceneMan) FindOrBuildPipeline(eh EffectHandle, ph RenderPassHandle) (*Pipeline, error) {
	effect, ok := sm.reg.effects.get(eh)
	if !ok {
		return nil, fmt.Errorf("scene: unknown effect handle %s", eh)
	}
	pass, ok := sm.reg.renderPasses.get(ph)
	if !ok {
		return nil, fmt.Errorf("scene: unknown render pass handle %s", ph)
	}
	if effect.deviceHandle == device.InvalidHandle {
		return nil, &SceneNotReadyError{Op: "pipeline " + effect.Name, Missing: StageEffects}
	}
	return sm.pipelines.FindOrBuild(effect, pass)
}

func (sm *sceneMan) Update(dt float32) error {
	if err := sm.states.check(opUpdate); err != nil {
		return err
	}

	actors := sm.actorList
	if sm.updatePool == nil || len(actors) < 2 {
		for _, a := range actors {
			sm.updateActor(a, dt)
		}
		return nil
	}

	// One task per contiguous chunk; the WaitGroup is the frame barrier since
	// pool.Wait() blocks until workers idle-exit.
	chunk := (len(actors) + sm.updateWorkers - 1) / sm.updateWorkers
	var wg sync.WaitGroup
	for id, lo := 0, 0; lo < len(actors); id, lo = id+1, lo+chunk {
		part := actors[lo:min(lo+chunk, len(actors))]
		wg.Add(1)
		sm.updatePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for _, a := range part {
					sm.updateActor(a, dt)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return nil
}

func (sm *sceneMan) updateActor(a *Actor, dt float32) {
	a.Body.Integrate(dt)
	if sm.updateHook != nil {
		sm.updateHook(a, dt)
	}
}

func (sm *sceneMan) Draw() error {
	if err := sm.states.check(opDraw); err != nil {
		return err
	}

	var drawErr error
	sm.reg.renderPasses.each(func(_ RenderPassHandle, pass *RenderPass) bool {
		for _, cb := range pass.commandBuffers {
			if err := sm.recordCommandBuffer(cb); err != nil {
				drawErr = fmt.Errorf("render pass %q: %w", pass.Name, err)
				return false
			}
		}
		return true
	})
	return drawErr
}

func (sm *sceneMan) Release() {
	if err := sm.states.check(opRelease); err != nil {
		return
	}

	stats := sm.Stats()
	sm.reg.renderPasses.eachReverse(func(_ RenderPassHandle, pass *RenderPass) {
		sm.releaseCommandBuffers(pass)
	})
	sm.pipelines.ReleaseAll()
	sm.reg.renderPasses.clear()
	sm.actorList = nil
	sm.reg.actors.clear()
	sm.reg.models.eachReverse(func(_ ModelHandle, m *Model) {
		m.Source.ReleaseData(sm.dev)
	})
	sm.reg.models.clear()
	sm.reg.effects.eachReverse(func(_ EffectHandle, e *Effect) {
		if e.deviceHandle != device.InvalidHandle {
			sm.dev.ReleaseEffect(e.deviceHandle)
			e.deviceHandle = device.InvalidHandle
		}
	})
	sm.reg.effects.clear()
	sm.drawScratch = nil
	sm.states = StageStates{}

	sm.log.WithFields(logrus.Fields{
		"effects":         stats.Effects,
		"models":          stats.Models,
		"actors":          stats.Actors,
		"render_passes":   stats.RenderPasses,
		"pipelines":       stats.Pipelines,
		"command_buffers": stats.CommandBuffers,
	}).Info("scene released")
}

func (sm *sceneMan) Reload(desc *description.Description, models map[string]model.Model) error {
	sm.Release()
	return sm.Load(desc, models)
}

func (sm *sceneMan) States() StageStates {
	return sm.states
}

func (sm *sceneMan) LoadedMask() Stage {
	return sm.states.LoadedMask()
}

func (sm *sceneMan) BakedMask() Stage {
	return sm.states.BakedMask()
}

func (sm *sceneMan) Effect(name string) (*Effect, bool) {
	_, e, ok := sm.reg.effects.lookup(name)
	return e, ok
}

func (sm *sceneMan) Model(name string) (*Model, bool) {
	_, m, ok := sm.reg.models.lookup(name)
	return m, ok
}

func (sm *sceneMan) Actor(name string) (*Actor, bool) {
	_, a, ok := sm.reg.actors.lookup(name)
	return a, ok
}

func (sm *sceneMan) RenderPass(name string) (*RenderPass, bool) {
	_, p, ok := sm.reg.renderPasses.lookup(name)
	return p, ok
}

func (sm *sceneMan) ActorByHandle(h ActorHandle) (*Actor, bool) {
	return sm.reg.actors.get(h)
}

func (sm *sceneMan) EffectByHandle(h EffectHandle) (*Effect, bool) {
	return sm.reg.effects.get(h)
}

func (sm *sceneMan) ModelByHandle(h ModelHandle) (*Model, bool) {
	return sm.reg.models.get(h)
}

func (sm *sceneMan) Actors() []*Actor {
	return sm.reg.actors.values()
}

func (sm *sceneMan) RenderPasses() []*RenderPass {
	return sm.reg.renderPasses.values()
}

func (sm *sceneMan) Pipelines() int {
	return sm.pipelines.Len()
}

func (sm *sceneMan) Stats() Stats {
	s := Stats{
		Effects:      sm.reg.effects.len(),
		Models:       sm.reg.models.len(),
		Actors:       sm.reg.actors.len(),
		RenderPasses: sm.reg.renderPasses.len(),
		Pipelines:    sm.pipelines.Len(),
		Loaded:       sm.states.LoadedMask(),
		Baked:        sm.states.BakedMask(),
	}
	sm.reg.renderPasses.each(func(_ RenderPassHandle, pass *RenderPass) bool {
		s.CommandBuffers += len(pass.commandBuffers)
		for _, cb := range pass.commandBuffers {
			s.Draws += len(cb.draws)
		}
		return true
	})
	return s
}
