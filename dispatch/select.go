package dispatch

import (
	"fmt"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/resolver"
	"github.com/samber/lo"
)

// Hint prefixes understood in playback.Request.Hint.
const (
	HintJSON  = "json:"
	HintParse = "parse:"
)

// selectResolver picks the resolver for req: pinned, then hint, then the configured default.
func (d *Dispatcher) selectResolver(st *state, req playback.Request, pinned *resolver.Descriptor) (resolver.Descriptor, error) {
	if pinned != nil {
		return *pinned, nil
	}

	if hint := strings.TrimSpace(req.Hint); hint != "" {
		desc, ok, err := fromHint(st.snapshot, hint)
		if err != nil {
			return resolver.Descriptor{}, err
		}
		if ok {
			return desc, nil
		}
		log.Debugf("dispatch: ignoring unrecognized hint %q", hint)
	}

	desc, ok := st.snapshot.Default(d.opts.DefaultResolver)
	if !ok {
		return resolver.Descriptor{}, fmt.Errorf("%w: no resolvers configured", playback.ErrNoResolverAvailable)
	}
	return desc, nil
}

// fromHint turns a hint into an ad hoc or configured descriptor.
func fromHint(snapshot *resolver.Snapshot, hint string) (resolver.Descriptor, bool, error) {
	switch {
	case strings.HasPrefix(hint, HintJSON):
		template := strings.TrimSpace(strings.TrimPrefix(hint, HintJSON))
		if !playback.IsNetworkURL(template) {
			return resolver.Descriptor{}, false, fmt.Errorf("%w: json hint %q", playback.ErrInvalidURL, template)
		}
		return resolver.Descriptor{Name: hint, URL: template, Kind: resolver.StructuredJSON}, true, nil
	case strings.HasPrefix(hint, HintParse):
		name := strings.TrimSpace(strings.TrimPrefix(hint, HintParse))
		if desc, ok := snapshot.Lookup(name); ok {
			return desc, true, nil
		}
		return resolver.Descriptor{}, false, unknownResolver(snapshot, name)
	case playback.IsNetworkURL(hint):
		return resolver.Descriptor{Name: hint, URL: hint, Kind: resolver.BrowserSniff}, true, nil
	}

	return resolver.Descriptor{}, false, nil
}

func unknownResolver(snapshot *resolver.Snapshot, name string) error {
	names := snapshot.Names()
	if len(names) == 0 {
		return fmt.Errorf("%w: unknown resolver %q", playback.ErrNoResolverAvailable, name)
	}

	closest := lo.MinBy(names, func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
	return fmt.Errorf("%w: unknown resolver %q, did you mean %q?", playback.ErrNoResolverAvailable, name, closest)
}
