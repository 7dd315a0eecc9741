package apifetch

import (
	"context"
	"sync"
)

// Root is a minimal host renderer: it mounts element trees, keeps consumer bindings
// alive and re-renders consumers when their fetches settle.
type Root struct {
	mu sync.Mutex
	wg sync.WaitGroup

	top       *instance
	callbacks []func()
}

type instance struct {
	el       Element
	ctx      context.Context //nolint:containedctx // carries provider scopes
	props    Props
	children []*instance
	mounted  bool

	scope   *scope
	binding *binding
}

// Mount renders the element tree. Fetches started by consumers keep the ctx;
// unmounting does not cancel them.
func Mount(ctx context.Context, el Element) *Root {
	r := &Root{}

	r.mu.Lock()
	r.top = r.mount(ctx, el)
	callbacks := r.drain()
	r.mu.Unlock()

	run(callbacks)

	return r
}

// Update re-renders the tree with new props of the top element.
func (r *Root) Update(props Props) {
	r.mu.Lock()
	if r.top == nil {
		r.mu.Unlock()
		return
	}

	r.top.el.Props = props
	r.render(r.top)
	callbacks := r.drain()
	r.mu.Unlock()

	run(callbacks)
}

// Unmount detaches the whole tree. Pending results are discarded.
func (r *Root) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.top != nil {
		r.unmount(r.top)
		r.top = nil
	}
	r.callbacks = nil
}

// Wait blocks until every fetch started by the tree has settled.
func (r *Root) Wait() {
	r.wg.Wait()
}

// Props returns the last rendered props of every mounted instance of the named component.
func (r *Root) Props(name string) []Props {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []Props

	var visit func(inst *instance)
	visit = func(inst *instance) {
		if inst.el.Type != nil && inst.el.Type.Name == name {
			res = append(res, inst.props.clone())
		}
		for _, child := range inst.children {
			visit(child)
		}
	}

	if r.top != nil {
		visit(r.top)
	}

	return res
}

func (r *Root) mount(ctx context.Context, el Element) *instance {
	inst := &instance{el: el, ctx: ctx, mounted: true}
	r.render(inst)

	return inst
}

// render renders the instance and reconciles its children. Must be called with r.mu held.
func (r *Root) render(inst *instance) {
	c := inst.el.Type
	if c == nil {
		return
	}

	ctx := inst.ctx
	props := inst.el.Props

	switch c.kind {
	case kindProvider:
		if inst.scope == nil {
			inst.scope = c.api.newScope(props[PropAPIData], props[PropAPIConfig])
			inst.scope.log.Debug().Str("component", c.Name).Msg("provider mounted")
		}
		ctx = withScope(ctx, inst.scope)
	case kindConsumer:
		if inst.binding == nil {
			inst.binding = newBinding(ctx, c)
		}

		var jobs []Job
		props, jobs = inst.binding.resolve(ctx, props)
		if len(jobs) > 0 {
			r.wg.Add(1)
			go r.settle(ctx, inst, inst.binding.scope, jobs)
		}
	case kindPlain:
	}

	inst.props = props
	r.reconcile(inst, ctx, c.render(props))

	if inst.binding != nil {
		if cb := inst.binding.completion(); cb != nil {
			r.callbacks = append(r.callbacks, cb)
		}
	}
}

// reconcile reuses children of the same component type at the same position.
func (r *Root) reconcile(inst *instance, ctx context.Context, elements []Element) { //nolint:revive // ctx second
	next := make([]*instance, 0, len(elements))

	for i, el := range elements {
		if i < len(inst.children) {
			child := inst.children[i]
			if child.el.Type == el.Type {
				child.el = el
				child.ctx = ctx
				r.render(child)
				next = append(next, child)
				continue
			}
			r.unmount(child)
		}
		next = append(next, r.mount(ctx, el))
	}

	for i := len(elements); i < len(inst.children); i++ {
		r.unmount(inst.children[i])
	}

	inst.children = next
}

// settle waits for the jobs of a consumer and re-renders it unless it was unmounted.
func (r *Root) settle(ctx context.Context, inst *instance, s *scope, jobs []Job) {
	defer r.wg.Done()

	// the cache is populated even if the consumer goes away meanwhile
	results := s.fetch(ctx, jobs)

	r.mu.Lock()
	if !inst.mounted {
		r.mu.Unlock()
		return
	}

	inst.binding.settle(jobs, results)
	r.render(inst)
	callbacks := r.drain()
	r.mu.Unlock()

	run(callbacks)
}

func (r *Root) unmount(inst *instance) {
	inst.mounted = false
	if inst.binding != nil {
		inst.binding.detach()
	}

	for _, child := range inst.children {
		r.unmount(child)
	}
}

func (r *Root) drain() []func() {
	callbacks := r.callbacks
	r.callbacks = nil

	return callbacks
}

func run(callbacks []func()) {
	for _, cb := range callbacks {
		cb()
	}
}
