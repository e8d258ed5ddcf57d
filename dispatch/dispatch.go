// Package dispatch is the entry point of link resolution. It selects a resolver for a request,
// runs the matching strategy and re-resolves results that still need it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/network"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/race"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/router"
	"github.com/reel-cli/reel/rule"
	"github.com/reel-cli/reel/sniff"
	"github.com/reel-cli/reel/structured"
	"github.com/samber/lo"
)

// MaxDepth is the number of resolver dispatches one Resolve call may perform.
const MaxDepth = 3

// errDegraded marks an aggregate resolver that gave up and handed back its input.
var errDegraded = errors.New("aggregate resolution degraded")

// Options configure a Dispatcher.
type Options struct {
	Fetcher network.Fetcher
	// Renderer is nil when sniffing is disabled; sniff resolvers then fail as unsupported.
	Renderer sniff.Renderer
	// FetchTimeout bounds one structured resolver call.
	FetchTimeout time.Duration
	// SniffTimeout bounds one sniff.
	SniffTimeout time.Duration
	// DefaultResolver is used when a request is neither pinned nor hinted.
	DefaultResolver string
}

// state is everything derived from one snapshot. It is replaced whole on reload.
type state struct {
	snapshot *resolver.Snapshot
	rules    *rule.Engine
	router   *router.Router
	sniffer  *sniff.Sniffer
}

// Dispatcher resolves requests against the current resolver snapshot.
// It is safe for concurrent use.
type Dispatcher struct {
	opts       Options
	structured *structured.Resolver
	current    atomic.Pointer[state]
}

// New returns a dispatcher over snapshot. A nil snapshot has no resolvers.
func New(snapshot *resolver.Snapshot, opts Options) *Dispatcher {
	if opts.Fetcher == nil {
		opts.Fetcher = network.New(network.Options{Timeout: opts.FetchTimeout})
	}

	d := &Dispatcher{
		opts:       opts,
		structured: structured.New(opts.Fetcher, opts.FetchTimeout),
	}
	d.Reload(snapshot)
	return d
}

// Reload swaps in a new snapshot. Resolutions in flight finish with the one they started with.
func (d *Dispatcher) Reload(snapshot *resolver.Snapshot) {
	if snapshot == nil {
		snapshot = resolver.Empty()
	}

	rules := rule.New(snapshot.Rules)
	d.current.Store(&state{
		snapshot: snapshot,
		rules:    rules,
		router:   router.New(snapshot.Descriptors),
		sniffer:  sniff.New(d.opts.Renderer, rules, d.opts.SniffTimeout),
	})

	log.Infof("dispatch: loaded %d resolvers", len(snapshot.Descriptors))
}

// Snapshot returns the configuration currently in use.
func (d *Dispatcher) Snapshot() *resolver.Snapshot {
	return d.current.Load().snapshot
}

// Classify runs the rule engine of the current snapshot on url.
func (d *Dispatcher) Classify(url, origin string) rule.Classification {
	return d.current.Load().rules.Classify(url, origin)
}

// Resolve turns req into a playable result.
//
// A request that does not need resolution is returned as is. Otherwise the resolver is
// pinned, or taken from the request hint, or the configured default. Results that still
// need resolution are resolved again without the pin, up to MaxDepth dispatches; past that
// the latest result is returned unresolved.
func (d *Dispatcher) Resolve(ctx context.Context, req playback.Request, pinned *resolver.Descriptor) (playback.Result, error) {
	return d.resolve(ctx, d.current.Load(), req, pinned, 0)
}

func (d *Dispatcher) resolve(ctx context.Context, st *state, req playback.Request, pinned *resolver.Descriptor, depth int) (playback.Result, error) {
	if !req.NeedsResolution {
		return req.AsResult(), nil
	}
	if depth >= MaxDepth {
		log.Debugf("dispatch: %s: %s", playback.ErrMaxDepthExceeded, req.URL)
		return req.AsResult(), nil
	}

	desc, err := d.selectResolver(st, req, pinned)
	if err != nil {
		return playback.Result{}, err
	}

	logger := log.With(log.Fields{"resolver": desc.Name, "kind": desc.Kind.String(), "depth": depth})
	logger.Debugf("resolving %s", req.URL)

	result, err := d.dispatch(ctx, st, desc, req)
	if errors.Is(err, errDegraded) {
		logger.Debug(err)
		return req.AsResult(), nil
	}
	if err != nil {
		logger.Debugf("failed: %s", err)
		return playback.Result{}, err
	}

	if !result.NeedsResolution {
		return result, nil
	}
	if depth+1 >= MaxDepth {
		logger.Debugf("%s: returning %s unresolved", playback.ErrMaxDepthExceeded, result.URL)
		return result, nil
	}

	return d.resolve(ctx, st, result.Next(req), nil, depth+1)
}

func (d *Dispatcher) dispatch(ctx context.Context, st *state, desc resolver.Descriptor, req playback.Request) (playback.Result, error) {
	switch desc.Kind {
	case resolver.StructuredJSON:
		return d.structured.Resolve(ctx, desc, req)
	case resolver.StructuredJSONFederated:
		return d.federated(ctx, st.snapshot.OfKind(resolver.StructuredJSON), req)
	case resolver.StructuredJSONAggregate:
		result, err := d.federated(ctx, st.snapshot.OfKind(resolver.StructuredJSON), req)
		if err != nil && ctx.Err() == nil {
			return playback.Result{}, fmt.Errorf("%w: %w", errDegraded, err)
		}
		return result, err
	case resolver.BrowserSniff:
		return st.sniffer.Sniff(ctx, d.sniffTarget(desc, req))
	case resolver.SuperResolve:
		return d.super(ctx, st, req)
	default:
		return playback.Result{}, fmt.Errorf("%w: resolver kind %s", playback.ErrUnsupported, desc.Kind)
	}
}

// federated races every structured resolver; the first valid answer wins.
func (d *Dispatcher) federated(ctx context.Context, members []resolver.Descriptor, req playback.Request) (playback.Result, error) {
	attempts := lo.Map(members, func(m resolver.Descriptor, _ int) race.Attempt[playback.Result] {
		return func(ctx context.Context) (playback.Result, error) {
			return d.structured.Resolve(ctx, m, req)
		}
	})

	return race.First(ctx, attempts, playback.Valid)
}

// super races the JSON cohort for the request flag, then sniffs the browser cohort: all members
// in one multi-frame page first, then one by one.
func (d *Dispatcher) super(ctx context.Context, st *state, req playback.Request) (playback.Result, error) {
	cohorts := st.router.Partition(req.Flag)
	if cohorts.Empty() {
		return playback.Result{}, fmt.Errorf("%w: no resolvers for flag %q", playback.ErrNoResolverAvailable, req.Flag)
	}

	var errs *multierror.Error

	if len(cohorts.JSON) > 0 {
		result, err := d.federated(ctx, cohorts.JSON, req)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return playback.Result{}, ctx.Err()
		}
		errs = multierror.Append(errs, err)
	}

	if len(cohorts.Sniff) == 0 {
		return playback.Result{}, errs.ErrorOrNil()
	}

	if doc, ok := st.router.MultiFrameDocument(req.Flag, req.URL).Get(); ok {
		result, err := st.sniffer.Sniff(ctx, sniff.Target{
			Document: doc,
			// Host rules follow the video page; each candidate's Referer follows its frame.
			Origin: req.URL,
			Headers:  req.Headers,
			Timeout:  d.opts.SniffTimeout,
			Name:     resolver.SuperName,
		})
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return playback.Result{}, ctx.Err()
		}

		errs = multierror.Append(errs, fmt.Errorf("multi-frame sniff: %w", err))
		if errors.Is(err, playback.ErrUnsupported) {
			return playback.Result{}, fmt.Errorf("%w: %w", playback.ErrAllResolversFailed, errs.ErrorOrNil())
		}
	}

	for _, member := range cohorts.Sniff {
		result, err := st.sniffer.Sniff(ctx, d.sniffTarget(member, req))
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return playback.Result{}, ctx.Err()
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", member.Name, err))
	}

	return playback.Result{}, fmt.Errorf("%w: %w", playback.ErrAllResolversFailed, errs.ErrorOrNil())
}

// sniffTarget loads the resolver page with the request URL appended.
func (d *Dispatcher) sniffTarget(desc resolver.Descriptor, req playback.Request) sniff.Target {
	return sniff.Target{
		URL:       desc.URL + req.URL,
		Headers:   playback.MergeHeaders(desc.Headers(), req.Headers),
		UserAgent: desc.Ext.UserAgent,
		Timeout:   d.opts.SniffTimeout,
		Name:      desc.Name,
	}
}
