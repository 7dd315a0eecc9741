package apifetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// outcome is the settled transport call for one identity.
type outcome struct {
	response any
	err      error
}

// aggregator deduplicates jobs by request identity and issues them concurrently.
// Every identity reaches the transport at most once per aggregator.
type aggregator struct {
	transport Transport
	limit     int

	group singleflight.Group

	mu        sync.RWMutex
	responses map[string]outcome

	// count is the number of transport calls issued.
	count atomic.Int64

	name   string
	logger ILogger
	log    zerolog.Logger
}

func newAggregator(transport Transport, op options, log zerolog.Logger) *aggregator {
	return &aggregator{
		transport: transport,
		limit:     op.concurrency,
		responses: make(map[string]outcome),
		name:      op.name,
		logger:    op.logger,
		log:       log,
	}
}

// collect issues the jobs and waits until all of them settle.
// The result at index i belongs to jobs[i]; failures are reported in Result.Err.
func (a *aggregator) collect(ctx context.Context, config any, jobs []Job) []Result {
	var (
		order  []string
		groups = make(map[string][]int)
	)

	for i, job := range jobs {
		id := job.Descriptor.Identity()
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	outcomes := make([]outcome, len(order))

	var errGroup errgroup.Group
	if a.limit > 0 {
		errGroup.SetLimit(a.limit)
	}

	for i, id := range order {
		d := jobs[groups[id][0]].Descriptor
		errGroup.Go(func() error {
			outcomes[i] = a.fetch(ctx, config, id, d)
			return nil
		})
	}

	_ = errGroup.Wait() // fetch never fails the group

	results := make([]Result, len(jobs))
	for i, id := range order {
		o := outcomes[i]
		for _, j := range groups[id] {
			if o.err != nil {
				results[j] = Result{Err: o.err}
				continue
			}

			value, err := applySuccess(jobs[j].Descriptor, o.response)
			results[j] = Result{Value: value, Response: o.response, Err: err}
		}
	}

	return results
}

// fetch returns the memoized outcome for the identity or calls the transport.
func (a *aggregator) fetch(ctx context.Context, config any, identity string, d Descriptor) outcome {
	if o, ok := a.memo(identity); ok {
		return o
	}

	v, _, _ := a.group.Do(identity, func() (any, error) {
		if o, ok := a.memo(identity); ok {
			return o, nil
		}

		a.count.Add(1)
		o := a.call(ctx, config, d)

		if a.logger != nil {
			a.logger.LogFetch(ctx, a.name, identity, o.err)
		}

		if o.err != nil {
			a.log.Warn().Err(o.err).Str("request", identity).Msg("fetch failed")
		} else {
			a.log.Debug().Str("request", identity).Msg("fetched")
		}

		// a cancelled call may be repeated by a later render
		if !errors.Is(o.err, context.Canceled) && !errors.Is(o.err, context.DeadlineExceeded) {
			a.mu.Lock()
			a.responses[identity] = o
			a.mu.Unlock()
		}

		return o, nil
	})

	return v.(outcome) //nolint:forcetypeassert // always outcome
}

func (a *aggregator) call(ctx context.Context, config any, d Descriptor) (o outcome) { //nolint:nonamedreturns // recover
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("%w: %s: %v", ErrTransportPanic, d.Identity(), r)}
		}
	}()

	response, err := a.transport.Fetch(ctx, config, d)
	if err != nil {
		return outcome{err: fmt.Errorf("fetch %s: %w", d.Identity(), err)}
	}

	return outcome{response: response}
}

func (a *aggregator) memo(identity string) (outcome, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	o, ok := a.responses[identity]

	return o, ok
}
