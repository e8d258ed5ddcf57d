// Package router partitions resolvers into the cohorts used by super resolution.
package router

import (
	"html/template"
	"strings"
	"sync"

	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/resolver"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var frames = template.Must(template.New("frames").Parse(constant.MultiFrameTemplate))

// Cohorts are the resolvers selected for one flag.
type Cohorts struct {
	// JSON holds structured resolvers, raced against each other.
	JSON []resolver.Descriptor
	// Sniff holds browser-sniff resolvers, loaded together in one multi-frame page.
	Sniff []resolver.Descriptor
}

// Empty reports whether neither cohort has members.
func (c Cohorts) Empty() bool {
	return len(c.JSON) == 0 && len(c.Sniff) == 0
}

// Router belongs to one resolver snapshot. The flag routing table is built on first use.
type Router struct {
	descriptors []resolver.Descriptor

	once   sync.Once
	routes map[string][]string

	sniff sync.Map
}

// New returns a router over descriptors. The synthetic super resolver is never a cohort member.
func New(descriptors []resolver.Descriptor) *Router {
	return &Router{
		descriptors: lo.Filter(descriptors, func(d resolver.Descriptor, _ int) bool {
			return d.Kind != resolver.SuperResolve
		}),
	}
}

// Routes returns the flag to resolver names table.
func (r *Router) Routes() map[string][]string {
	r.once.Do(func() {
		r.routes = make(map[string][]string)
		for _, d := range r.descriptors {
			for _, flag := range d.Ext.Flags {
				r.routes[flag] = append(r.routes[flag], d.Name)
			}
		}
		log.Debugf("router: %d flags routed", len(r.routes))
	})
	return r.routes
}

// Partition selects the resolvers declaring flag, or every resolver when none does.
// The sniff cohort is remembered for MultiFrameDocument.
func (r *Router) Partition(flag string) Cohorts {
	members := r.descriptors
	if names, ok := r.Routes()[flag]; ok && flag != "" {
		members = lo.Filter(r.descriptors, func(d resolver.Descriptor, _ int) bool {
			return lo.Contains(names, d.Name)
		})
	}

	cohorts := Cohorts{
		JSON: lo.Filter(members, func(d resolver.Descriptor, _ int) bool {
			return d.Kind == resolver.StructuredJSON
		}),
		Sniff: lo.Filter(members, func(d resolver.Descriptor, _ int) bool {
			return d.Kind == resolver.BrowserSniff
		}),
	}

	r.sniff.Store(flag, cohorts.Sniff)
	return cohorts
}

// MultiFrameDocument renders a page embedding one frame per member of the sniff cohort last
// partitioned for flag, each loading the member's URL with requestURL appended.
func (r *Router) MultiFrameDocument(flag, requestURL string) mo.Option[string] {
	cached, ok := r.sniff.Load(flag)
	if !ok {
		return mo.None[string]()
	}

	cohort := cached.([]resolver.Descriptor)
	if len(cohort) == 0 {
		return mo.None[string]()
	}

	sources := lo.Map(cohort, func(d resolver.Descriptor, _ int) string {
		return d.URL + requestURL
	})

	var b strings.Builder
	if err := frames.Execute(&b, sources); err != nil {
		log.Warnf("router: render frames: %s", err)
		return mo.None[string]()
	}

	return mo.Some(b.String())
}
