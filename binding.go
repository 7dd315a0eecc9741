package apifetch

import "context"

type bindingState uint8

const (
	stateMounted bindingState = iota
	statePending
	stateResolved
	stateDetached
)

// binding connects one mounted consumer to the cache and the aggregator of its provider.
type binding struct {
	scope   *scope // nil without a provider of the same API above
	fetches map[string]FetchSpec

	state  bindingState
	values map[string]any

	// inflight and failed map a name to the identity being fetched or that failed.
	inflight map[string]string
	failed   map[string]string

	onFetched func()
	fired     bool
}

func newBinding(ctx context.Context, c *Component) *binding {
	b := &binding{
		fetches:  c.Fetches,
		state:    stateMounted,
		inflight: make(map[string]string),
		failed:   make(map[string]string),
	}

	if s, ok := scopeFromContext(ctx, c.api); ok {
		b.scope = s
	} else {
		c.api.log.Warn().Str("component", c.Name).Msg("consumer without provider")
	}

	return b
}

// resolve injects cached values into props and returns the jobs to issue.
// Names already in flight or failed for the same identity are not requested again.
func (b *binding) resolve(ctx context.Context, props Props) (Props, []Job) {
	if onFetched, ok := props[PropOnFetched].(func()); ok {
		b.onFetched = onFetched
	}

	if b.scope == nil || len(b.fetches) == 0 {
		b.state = stateResolved
		return props, nil
	}

	values, jobs := b.scope.resolve(ctx, b.fetches, props, b.skip)
	b.values = values

	for _, job := range jobs {
		b.inflight[job.Name] = job.Descriptor.Identity()
	}

	if len(b.inflight) > 0 {
		b.state = statePending
	} else {
		b.state = stateResolved
	}

	res := props.clone()
	for k, v := range values {
		res[k] = v
	}

	return res, jobs
}

func (b *binding) skip(name, identity string) bool {
	if id, ok := b.inflight[name]; ok && id == identity {
		return true
	}

	id, ok := b.failed[name]

	return ok && id == identity
}

// settle records the results of jobs issued by resolve.
// results[i] belongs to jobs[i].
func (b *binding) settle(jobs []Job, results []Result) {
	for i, job := range jobs {
		identity := job.Descriptor.Identity()
		if b.inflight[job.Name] == identity {
			delete(b.inflight, job.Name)
		}

		if results[i].Err != nil {
			b.failed[job.Name] = identity
		}
	}
}

// completion returns the onFetched callback if it is due, at most once per binding.
func (b *binding) completion() func() {
	if b.state != stateResolved || b.fired {
		return nil
	}

	b.fired = true

	return b.onFetched
}

func (b *binding) detach() {
	b.state = stateDetached
}
