// Package apifetch collects the data requirements declared across a component tree,
// fetches every distinct request once and hands the results back down the tree.
//
// A provider owns the cache of its subtree. Consumers declare named fetch specs;
// cached names are injected as props right away, missing ones are fetched in a batch
// and injected when they settle. FetchApiDataForProvider resolves a whole tree up
// front and returns the snapshot accepted back through the apiData prop.
package apifetch

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// maxPrefetchPasses bounds the walks of a bulk fetch when fetched data reveals new requirements.
	maxPrefetchPasses = 16
)

// API is an isolated fetch arena: one cache lineage, one response memo and one fetch counter.
type API struct {
	id        uuid.UUID
	op        options
	transport Transport
	agg       *aggregator
	log       zerolog.Logger
}

// New creates a new API instance over the transport.
func New(transport Transport, opts ...Option) *API {
	op := options{log: zerolog.Nop()} //nolint:exhaustruct // default values
	for _, opt := range opts {
		opt(&op)
	}

	a := &API{
		id:        uuid.New(),
		op:        op,
		transport: transport,
	}
	a.log = op.log.With().Str("api", a.id.String()).Logger()
	a.agg = newAggregator(transport, op, a.log)

	return a
}

// ID returns the unique id of the instance.
func (a *API) ID() uuid.UUID {
	return a.id
}

// FetchCount returns the number of transport calls issued by the instance.
func (a *API) FetchCount() int64 {
	return a.agg.count.Load()
}

// ProviderHoc wraps a component into a provider owning the cache of its subtree.
// apiConfig and apiData props are consumed, all other props are passed to c.
func (a *API) ProviderHoc(c *Component) (*Component, error) {
	if a == nil {
		return providerHoc(c, nil, nil)
	}

	return providerHoc(c, a.transport, a)
}

// ConsumerHoc wraps a component so that its Fetches are resolved and injected as props.
func (a *API) ConsumerHoc(c *Component) (*Component, error) {
	if a == nil {
		return consumerHoc(c, nil, nil)
	}

	return consumerHoc(c, a.transport, a)
}

func providerHoc(c *Component, transport Transport, api *API) (*Component, error) {
	if c == nil || transport == nil || api == nil {
		return nil, fmt.Errorf("provider: %w", ErrRequiredParamsMissing)
	}

	return &Component{
		Name: "Provider(" + c.Name + ")",
		Render: func(props Props) []Element {
			return []Element{{Type: c, Props: props.without(PropAPIConfig, PropAPIData)}}
		},
		kind: kindProvider,
		api:  api,
	}, nil
}

func consumerHoc(c *Component, transport Transport, api *API) (*Component, error) {
	if c == nil || transport == nil || api == nil {
		return nil, fmt.Errorf("consumer: %w", ErrRequiredParamsMissing)
	}

	return &Component{
		Name:    "Consumer(" + c.Name + ")",
		Fetches: c.Fetches,
		Render: func(props Props) []Element {
			return []Element{{Type: c, Props: props.without(PropOnFetched)}}
		},
		kind: kindConsumer,
		api:  api,
	}, nil
}

// FetchApiDataForProvider walks the element tree without mounting it, fetches every
// requirement of the consumers of this API and returns the accumulated cache.
// The walk is repeated while fetched data reveals new requirements.
func (a *API) FetchApiDataForProvider(ctx context.Context, el Element) (ApiData, error) {
	if el.Type == nil {
		return nil, ErrNilElement
	}

	var data, config any
	if el.Type.kind == kindProvider && el.Type.api == a {
		data = el.Props[PropAPIData]
		config = el.Props[PropAPIConfig]
	}

	s := a.newScope(data, config)
	attempted := make(map[string]struct{})

	for pass := range maxPrefetchPasses {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch api data: %w", err)
		}

		w := walker{ctx: ctx, scope: s, attempted: attempted}
		w.walk(el)

		if len(w.jobs) == 0 {
			break
		}

		s.log.Debug().Int("pass", pass).Int("jobs", len(w.jobs)).Msg("prefetch")

		for _, job := range w.jobs {
			attempted[attemptKey(job.Name, job.Descriptor.Identity())] = struct{}{}
		}

		s.fetch(ctx, w.jobs)
	}

	return s.cache.Snapshot(), nil
}

// walker visits a static element tree collecting missing requirements.
type walker struct {
	ctx       context.Context //nolint:containedctx // walk scoped
	scope     *scope
	attempted map[string]struct{}
	jobs      []Job
}

func (w *walker) walk(el Element) {
	c := el.Type
	if c == nil {
		return
	}

	props := el.Props
	if c.kind == kindConsumer && c.api == w.scope.api && len(c.Fetches) > 0 {
		values, jobs := w.scope.resolve(w.ctx, c.Fetches, props, w.skip)
		props = props.clone()
		for k, v := range values {
			props[k] = v
		}
		w.jobs = append(w.jobs, jobs...)
	}

	for _, child := range c.render(props) {
		w.walk(child)
	}
}

func (w *walker) skip(name, identity string) bool {
	_, ok := w.attempted[attemptKey(name, identity)]
	return ok
}

func attemptKey(name, identity string) string {
	return name + "\x00" + identity
}

func sortedNames(fetches map[string]FetchSpec) []string {
	return slices.Sorted(maps.Keys(fetches))
}
