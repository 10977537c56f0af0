package scene

// registry holds the named entity tables of one scene. Every ordered walk follows
// registration order, which is the order entities appear in the description.
type registry struct {
	effects      *table[Effect]
	models       *table[Model]
	actors       *table[Actor]
	renderPasses *table[RenderPass]
}

func newRegistry() *registry {
	return &registry{
		effects:      newTable[Effect](KindEffect),
		models:       newTable[Model](KindModel),
		actors:       newTable[Actor](KindActor),
		renderPasses: newTable[RenderPass](KindRenderPass),
	}
}

func (r *registry) addEffect(e *Effect) error {
	h, err := r.effects.insert(e.Name, e)
	if err != nil {
		return err
	}
	e.handle = h
	return nil
}

func (r *registry) addModel(m *Model) error {
	h, err := r.models.insert(m.Name, m)
	if err != nil {
		return err
	}
	m.handle = h
	return nil
}

func (r *registry) addActor(a *Actor) error {
	h, err := r.actors.insert(a.Name, a)
	if err != nil {
		return err
	}
	a.handle = h
	return nil
}

func (r *registry) addRenderPass(p *RenderPass) error {
	h, err := r.renderPasses.insert(p.Name, p)
	if err != nil {
		return err
	}
	p.handle = h
	return nil
}
