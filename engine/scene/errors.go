package scene

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names an entity category in errors and log fields.
type Kind string

const (
	KindEffect     Kind = "effect"
	KindModel      Kind = "model"
	KindActor      Kind = "actor"
	KindRenderPass Kind = "render pass"
)

// ErrAlreadyBaked is returned by Load once any bake stage has run. Use Reload to
// rebuild a baked scene.
var ErrAlreadyBaked = errors.New("scene: already baked, use Reload")

// DuplicateNameError reports a second entity registered under a name already in use.
// The first entity stays registered.
type DuplicateNameError struct {
	Kind Kind
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
}

// UnresolvedReferenceError reports an actor naming a model or effect that is not
// registered. The actor is not inserted.
type UnresolvedReferenceError struct {
	Actor string
	Kind  Kind
	Name  string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("actor %q references unknown %s %q", e.Actor, e.Kind, e.Name)
}

// InvalidDescriptionError reports a description entry that cannot become an entity.
type InvalidDescriptionError struct {
	Kind   Kind
	Name   string
	Reason string
	Err    error
}

func (e *InvalidDescriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %s: %v", e.Kind, e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Name, e.Reason)
}

func (e *InvalidDescriptionError) Unwrap() error {
	return e.Err
}

// PatternCompileError reports a render pass whose actor pattern does not compile.
type PatternCompileError struct {
	Pass    string
	Pattern string
	Err     error
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("render pass %q: failed to compile actor pattern %q: %v", e.Pass, e.Pattern, e.Err)
}

func (e *PatternCompileError) Unwrap() error {
	return e.Err
}

// PipelineCompileError reports a device failure building the pipeline for an
// (effect, render pass) pair.
type PipelineCompileError struct {
	Effect string
	Pass   string
	Err    error
}

func (e *PipelineCompileError) Error() string {
	return fmt.Sprintf("pipeline for effect %q in render pass %q: %v", e.Effect, e.Pass, e.Err)
}

func (e *PipelineCompileError) Unwrap() error {
	return e.Err
}

// NotLoadedError is returned by Bake while load stages are missing.
type NotLoadedError struct {
	Missing Stage
}

func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("scene not loaded: missing %s", e.Missing)
}

// SceneNotReadyError is returned by per-frame operations before the scene is baked.
type SceneNotReadyError struct {
	Op      string
	Missing Stage
}

func (e *SceneNotReadyError) Error() string {
	return fmt.Sprintf("scene not ready for %s: missing %s", e.Op, e.Missing)
}

// LoadError collects every error found during one Load call.
type LoadError struct {
	Errs []error
}

func (e *LoadError) Error() string {
	return joinErrors("load", e.Errs)
}

func (e *LoadError) Unwrap() []error {
	return e.Errs
}

// BakeError collects the per-pass errors of one Bake call.
type BakeError struct {
	Errs []error
}

func (e *BakeError) Error() string {
	return joinErrors("bake", e.Errs)
}

func (e *BakeError) Unwrap() []error {
	return e.Errs
}

func joinErrors(op string, errs []error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scene %s failed with %d error(s)", op, len(errs))
	for _, err := range errs {
		b.WriteString("\n\t")
		b.WriteString(err.Error())
	}
	return b.String()
}
