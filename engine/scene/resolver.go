package scene

// actorIndex is the name column of the actor table in registry order. It is built once
// per resolve and joined against every pass pattern.
type actorIndex struct {
	names   []string
	handles []ActorHandle
}

func (sm *sceneMan) buildActorIndex() actorIndex {
	idx := actorIndex{
		names:   make([]string, 0, sm.reg.actors.len()),
		handles: make([]ActorHandle, 0, sm.reg.actors.len()),
	}
	sm.reg.actors.each(func(h ActorHandle, a *Actor) bool {
		idx.names = append(idx.names, a.Name)
		idx.handles = append(idx.handles, h)
		return true
	})
	return idx
}

func (idx actorIndex) match(m Matcher) []ActorHandle {
	out := make([]ActorHandle, 0, len(idx.names))
	for i, name := range idx.names {
		if m.Match(name) {
			out = append(out, idx.handles[i])
		}
	}
	return out
}

// resolveRenderPass replaces the pass's actor list with the actors its pattern matches.
// On a compile error the previous list is kept.
func (sm *sceneMan) resolveRenderPass(pass *RenderPass, idx actorIndex) error {
	m, err := sm.patterns.get(pass.Pattern)
	if err != nil {
		return &PatternCompileError{Pass: pass.Name, Pattern: pass.Pattern, Err: err}
	}
	pass.actors = idx.match(m)
	return nil
}

func (sm *sceneMan) GetActorsByPattern(pattern string) ([]*Actor, error) {
	if sm.states.Actors != Loaded {
		return nil, &NotLoadedError{Missing: StageActors}
	}
	m, err := sm.patterns.get(pattern)
	if err != nil {
		return nil, &PatternCompileError{Pattern: pattern, Err: err}
	}

	var out []*Actor
	sm.reg.actors.each(func(_ ActorHandle, a *Actor) bool {
		if m.Match(a.Name) {
			out = append(out, a)
		}
		return true
	})
	return out, nil
}
