package correlation

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/semaphore"

	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
	"github.com/diwise/alarm-correlation/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
)

var ErrSeedQueryFailed = errors.New("failed to query symptoms of seed alarm")

var tracer = otel.Tracer("alarm-correlation/correlation")

// Fetcher walks the parent link relation outward from a seed alarm. Each call
// owns its own visited set so a Fetcher may serve any number of concurrent views.
type Fetcher struct {
	source      QuerySource
	maxDepth    int
	concurrency int
}

func NewFetcher(source QuerySource, cfg Config) *Fetcher {
	cfg = cfg.withDefaults()

	return &Fetcher{
		source:      source,
		maxDepth:    cfg.MaxDepth,
		concurrency: cfg.Concurrency,
	}
}

// FetchGroup returns the seed followed by a pre-order walk of every alarm that has
// the seed as an ancestor, at most maxDepth hops away. A seed that is neither a
// root nor has a parent yields an empty group without issuing any query.
func (f *Fetcher) FetchGroup(ctx context.Context, seed types.Alarm) (group []types.Alarm, err error) {
	seed = seed.Normalize()

	if !seed.IsRoot && !seed.HasParent() {
		return []types.Alarm{}, nil
	}

	ctx, span := tracer.Start(ctx, "fetch-correlation-group")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var accepted map[string][]types.Alarm

	if f.concurrency > 1 {
		accepted, err = f.expandConcurrently(ctx, seed)
	} else {
		accepted, err = f.expand(ctx, seed)
	}
	if err != nil {
		return nil, err
	}

	group = preOrder(seed, accepted)
	groupSize.Observe(float64(len(group)))

	return group, nil
}

// FetchParent looks up the seed's root cause alarm. The parent is not expanded.
// A missing parent is not an error.
func (f *Fetcher) FetchParent(ctx context.Context, seed types.Alarm) (*types.Alarm, error) {
	seed = seed.Normalize()

	if !seed.HasParent() || seed.ParentIs(seed.ID) {
		return nil, nil
	}

	alarms, err := f.source.Query(ctx, ByID(*seed.ParentID))
	if err != nil {
		queriesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to look up parent %s: %w", *seed.ParentID, err)
	}
	queriesTotal.WithLabelValues("ok").Inc()

	if len(alarms) == 0 {
		return nil, nil
	}

	parent := alarms[0].Normalize()
	return &parent, nil
}

type frame struct {
	alarm    types.Alarm
	depth    int
	children []types.Alarm
}

// expand is a depth first walk over an explicit stack of frames. A child is marked
// visited before its own frame is pushed, which is what breaks cycles.
func (f *Fetcher) expand(ctx context.Context, seed types.Alarm) (map[string][]types.Alarm, error) {
	visited := map[string]struct{}{seed.ID: {}}
	accepted := map[string][]types.Alarm{}

	children, err := f.symptomsOf(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSeedQueryFailed, seed.ID, err)
	}

	stack := []*frame{{alarm: seed, depth: 0, children: children}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if len(top.children) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		child := top.children[0].Normalize()
		top.children = top.children[1:]

		if _, ok := visited[child.ID]; ok {
			continue
		}
		visited[child.ID] = struct{}{}
		accepted[top.alarm.ID] = append(accepted[top.alarm.ID], child)

		depth := top.depth + 1
		if depth >= f.maxDepth {
			continue
		}

		grandchildren, err := f.symptomsOf(ctx, child)
		if err != nil {
			log := logging.GetLoggerFromContext(ctx)
			log.Warn().Err(err).Msgf("failed to query symptoms of %s, treating it as a leaf", child.ID)
			grandchildren = nil
		}

		stack = append(stack, &frame{alarm: child, depth: depth, children: grandchildren})
	}

	return accepted, nil
}

type expansion struct {
	alarm    types.Alarm
	depth    int
	children []types.Alarm
	err      error
}

// expandConcurrently issues children queries in parallel, bounded by the configured
// concurrency. All bookkeeping happens on the calling goroutine as results arrive,
// so a slow query only delays its own subtree.
func (f *Fetcher) expandConcurrently(ctx context.Context, seed types.Alarm) (map[string][]types.Alarm, error) {
	visited := map[string]struct{}{seed.ID: {}}
	accepted := map[string][]types.Alarm{}

	sem := semaphore.NewWeighted(int64(f.concurrency))
	results := make(chan expansion)
	inflight := 0

	launch := func(a types.Alarm, depth int) {
		inflight++
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				results <- expansion{alarm: a, depth: depth, err: err}
				return
			}
			children, err := f.symptomsOf(ctx, a)
			sem.Release(1)
			results <- expansion{alarm: a, depth: depth, children: children, err: err}
		}()
	}

	launch(seed, 0)

	for inflight > 0 {
		r := <-results
		inflight--

		if r.err != nil {
			if r.depth == 0 {
				return nil, fmt.Errorf("%w %s: %w", ErrSeedQueryFailed, seed.ID, r.err)
			}
			log := logging.GetLoggerFromContext(ctx)
			log.Warn().Err(r.err).Msgf("failed to query symptoms of %s, treating it as a leaf", r.alarm.ID)
			continue
		}

		for _, child := range r.children {
			child = child.Normalize()

			if _, ok := visited[child.ID]; ok {
				continue
			}
			visited[child.ID] = struct{}{}
			accepted[r.alarm.ID] = append(accepted[r.alarm.ID], child)

			if r.depth+1 < f.maxDepth {
				launch(child, r.depth+1)
			}
		}
	}

	return accepted, nil
}

func (f *Fetcher) symptomsOf(ctx context.Context, a types.Alarm) ([]types.Alarm, error) {
	children, err := f.source.Query(ctx, ByParentID(a.ID))
	if err != nil {
		queriesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	queriesTotal.WithLabelValues("ok").Inc()
	return children, nil
}

func preOrder(seed types.Alarm, accepted map[string][]types.Alarm) []types.Alarm {
	group := []types.Alarm{seed}
	stack := [][]types.Alarm{accepted[seed.ID]}

	for len(stack) > 0 {
		siblings := stack[len(stack)-1]
		if len(siblings) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := siblings[0]
		stack[len(stack)-1] = siblings[1:]

		group = append(group, next)

		if children := accepted[next.ID]; len(children) > 0 {
			stack = append(stack, children)
		}
	}

	return group
}
