package apifetch

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// scope is the state of one mounted provider.
type scope struct {
	api    *API
	cache  *Cache
	config any
	log    zerolog.Logger
}

type scopeKey struct {
	api *API
}

//nolint:gochecknoglobals // ok for scope ids
var scopeID uint64

func (a *API) newScope(data, config any) *scope {
	if config == nil {
		config = a.op.config
	}

	id := atomic.AddUint64(&scopeID, 1)

	return &scope{
		api:    a,
		cache:  newCache(data, a.op.name, a.op.logger),
		config: config,
		log:    a.log.With().Uint64("scope", id).Logger(),
	}
}

// withScope makes the provider scope visible to the consumers of the same API below it.
func withScope(ctx context.Context, s *scope) context.Context {
	return context.WithValue(ctx, scopeKey{api: s.api}, s)
}

// scopeFromContext returns the nearest provider scope of the API.
func scopeFromContext(ctx context.Context, api *API) (*scope, bool) {
	s, ok := ctx.Value(scopeKey{api: api}).(*scope)
	return s, ok
}

// fetch resolves the jobs and stores successful results in the cache.
// The result at index i belongs to jobs[i]. A name requested with several identities
// keeps the entry of the last job; every entry matches the request that produced it.
func (s *scope) fetch(ctx context.Context, jobs []Job) []Result {
	results := s.api.agg.collect(ctx, s.config, jobs)

	for i, job := range jobs {
		res := results[i]
		if res.Err != nil {
			s.log.Debug().Err(res.Err).
				Str("name", job.Name).
				Str("request", job.Descriptor.Identity()).
				Msg("job failed")
			continue
		}

		s.cache.Set(job.Name, newEntry(job.Descriptor, res.Response, res.Value))
	}

	return results
}

// resolve partitions the declared fetches into cached values and jobs.
// Inert specs and names for which skip returns true appear in neither.
func (s *scope) resolve(
	ctx context.Context, fetches map[string]FetchSpec, props Props, skip func(name, identity string) bool,
) (map[string]any, []Job) {
	var (
		values = make(map[string]any, len(fetches))
		jobs   []Job
	)

	for _, name := range sortedNames(fetches) {
		d, ok := fetches[name].Resolve(props)
		if !ok {
			continue
		}

		if v, found := s.cache.lookup(ctx, name, d); found {
			values[name] = v
			continue
		}

		if skip != nil && skip(name, d.Identity()) {
			continue
		}

		jobs = append(jobs, Job{Name: name, Descriptor: d})
	}

	return values, jobs
}
