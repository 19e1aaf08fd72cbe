// Package resolver implements the bounded breadth-first traversal that
// expands seed field values into every transitively reachable value.
package resolver

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keuin/daigunyun/internal/logger"
	"github.com/keuin/daigunyun/internal/registry"
)

// Defaults applied by New when the corresponding Options field is zero.
const (
	DefaultMaxDepth      = 10
	DefaultMaxConcurrent = 4
)

// depthLimitMessage is reported when traversal stops at the depth bound.
// Hitting the bound is not a failure: the request succeeds with the
// values accumulated so far.
const depthLimitMessage = "depth limit exceeded"

// Options tune one Resolver.
type Options struct {
	// MaxDepth bounds the number of traversal rounds. It is a safety
	// valve against pathological fan-out; the visited-set discipline is
	// what guarantees termination on finite data.
	MaxDepth int
	// MaxConcurrent limits concurrent lookups within one round.
	MaxConcurrent int
	// Timeout bounds one resolution request. Zero disables the bound.
	Timeout time.Duration
}

// Result is the outcome of one resolution request. Failure is carried
// in-band: Success false, empty Data, and a descriptive Message.
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    map[string][]string `json:"data"`
}

// triple identifies one traversal step. Every triple is looked up at
// most once per request.
type triple struct {
	relation string
	field    string
	value    string
}

// work pairs a pending triple with the source that will answer it.
type work struct {
	t   triple
	src registry.Source
}

// Resolver drives resolution requests against an immutable registry.
// It holds no per-request state and is safe for concurrent use.
type Resolver struct {
	reg  *registry.Registry
	log  *logger.Logger
	opts Options
}

// New creates a Resolver. Zero option fields fall back to defaults.
func New(reg *registry.Registry, log *logger.Logger, opts Options) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Resolver{
		reg:  reg,
		log:  log,
		opts: opts,
	}
}

// Resolve expands the seed values until no new distinct value appears
// or the depth bound is reached. Request-scoped failures are converted
// into a failure Result here; they never propagate as errors and never
// carry partial data.
func (r *Resolver) Resolve(ctx context.Context, seeds map[string]string) Result {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	data, message, err := r.resolve(ctx, seeds)
	if err != nil {
		r.log.Warnw("resolution failed", "seeds", len(seeds), "error", err)
		return Result{
			Success: false,
			Message: err.Error(),
			Data:    map[string][]string{},
		}
	}

	r.log.Debugw("resolution finished",
		"seeds", len(seeds), "fields", len(data), "elapsed", time.Since(start))
	return Result{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// resolve runs the round loop. The pending map and visited set are the
// two-buffer discipline: each round iterates a frozen snapshot of
// pending while merges write to the live sets, applied between rounds.
func (r *Resolver) resolve(ctx context.Context, seeds map[string]string) (map[string][]string, string, error) {
	pending := make(map[triple]registry.Source)
	visited := make(map[triple]struct{})
	found := make(map[string]map[string]struct{})

	// Seed expansion. Even non-distinct fields are accepted as seeds;
	// distinctness only gates values discovered during traversal.
	for field, value := range seeds {
		sources, ok := r.reg.RelationsFor(field)
		if !ok {
			return nil, "", &UnknownFieldError{Field: field}
		}
		for _, src := range sources {
			pending[triple{relation: src.Name(), field: field, value: value}] = src
		}
	}

	truncated := false
	for round := 0; len(pending) > 0; round++ {
		if round >= r.opts.MaxDepth {
			truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		worklist := freeze(pending)
		discoveries, err := r.runRound(ctx, worklist, visited)
		if err != nil {
			return nil, "", err
		}

		// Merge sequentially, in worklist order, so repeated identical
		// requests stay deterministic.
		for i, w := range worklist {
			if discoveries[i] == nil {
				continue
			}
			r.merge(w.t, discoveries[i], seeds, pending, visited, found)
		}
		for _, w := range worklist {
			delete(pending, w.t)
		}
	}

	message := ""
	if truncated {
		message = depthLimitMessage
		r.log.Warnw("traversal stopped at depth bound", "max_depth", r.opts.MaxDepth)
	}
	return sortValues(found), message, nil
}

// runRound looks up every unvisited triple in the frozen worklist,
// concurrently up to MaxConcurrent. Workers write only to their own
// slot; the first failure cancels the rest and aborts the request.
func (r *Resolver) runRound(ctx context.Context, worklist []work, visited map[triple]struct{}) ([]map[string][]string, error) {
	discoveries := make([]map[string][]string, len(worklist))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrent)

	for i, w := range worklist {
		if _, seen := visited[w.t]; seen {
			continue
		}
		visited[w.t] = struct{}{}

		g.Go(func() error {
			r.log.Infow("visit",
				"relation", w.t.relation, "field", w.t.field, "value", w.t.value)
			values, err := w.src.Lookup(gctx, w.t.field, w.t.value)
			if err != nil {
				return &LookupError{
					Relation: w.t.relation,
					Field:    w.t.field,
					Value:    w.t.value,
					Err:      err,
				}
			}
			discoveries[i] = values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return discoveries, nil
}

// merge records one lookup's discoveries and enqueues follow-up triples
// for distinct fields. Two kinds of echo are not recorded: the pair
// matching the lookup's own probe (a matched row trivially returns the
// probe value) and pairs equal to a seed (callers already know their
// seeds; rediscovering one adds no information).
func (r *Resolver) merge(t triple, values map[string][]string, seeds map[string]string, pending map[triple]registry.Source, visited map[triple]struct{}, found map[string]map[string]struct{}) {
	for field, vals := range values {
		for _, value := range vals {
			if field == t.field && value == t.value {
				continue
			}
			if seed, ok := seeds[field]; ok && seed == value {
				continue
			}

			set := found[field]
			if set == nil {
				set = make(map[string]struct{})
				found[field] = set
			}
			set[value] = struct{}{}

			// Non-distinct fields are reported but terminal.
			if !r.reg.Distinct(field) {
				continue
			}
			sources, ok := r.reg.RelationsFor(field)
			if !ok {
				continue
			}
			for _, src := range sources {
				next := triple{relation: src.Name(), field: field, value: value}
				if _, seen := visited[next]; seen {
					continue
				}
				pending[next] = src
			}
		}
	}
}

// freeze snapshots the pending set into a sorted worklist. Sorting
// keeps round processing order independent of map iteration order.
func freeze(pending map[triple]registry.Source) []work {
	worklist := make([]work, 0, len(pending))
	for t, src := range pending {
		worklist = append(worklist, work{t: t, src: src})
	}
	sort.Slice(worklist, func(i, j int) bool {
		a, b := worklist[i].t, worklist[j].t
		if a.relation != b.relation {
			return a.relation < b.relation
		}
		if a.field != b.field {
			return a.field < b.field
		}
		return a.value < b.value
	})
	return worklist
}

// sortValues flattens the accumulated sets into sorted, deduplicated
// value lists keyed by field id.
func sortValues(found map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(found))
	for field, set := range found {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[field] = values
	}
	return out
}
