// Package rule classifies URLs observed during resolution: media or not, noise or not, and which format.
package rule

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Wildcard is the host key whose rules apply to every origin without a host-specific match.
const Wildcard = "*"

// HostRuleSet holds per-site override rules. Every pattern in a group must match for the
// group to match; any matching group matches the host.
type HostRuleSet struct {
	Hosts  []string   `json:"hosts"`
	Match  [][]string `json:"match,omitempty"`
	Filter [][]string `json:"filter,omitempty"`
	Regex  []string   `json:"regex,omitempty"`
	Script string     `json:"script,omitempty"`
}

type matcher func(string) bool

type hostRules struct {
	match  [][]matcher
	filter [][]matcher
	regex  []matcher
	script string
}

// Table is an immutable, compiled set of classification rules.
// A zero or nil Table classifies with the built-in tables only.
type Table struct {
	hosts map[string]*hostRules
	ads   []string
}

// NewTable compiles host rule sets and merges extra ad hosts into the built-in blacklist.
// Rule sets naming the same host are merged.
func NewTable(sets []HostRuleSet, ads []string) *Table {
	t := &Table{
		hosts: make(map[string]*hostRules),
		ads:   lo.Uniq(append(lo.Map(ads, func(h string, _ int) string { return normalizeHost(h) }), defaultAdHosts...)),
	}

	for _, set := range sets {
		compiled := &hostRules{
			match:  compileGroups(set.Match),
			filter: compileGroups(set.Filter),
			regex:  lo.Map(set.Regex, func(p string, _ int) matcher { return compile(p) }),
			script: strings.TrimSpace(set.Script),
		}

		for _, host := range set.Hosts {
			host = normalizeHost(host)
			if host == "" {
				continue
			}

			if existing, ok := t.hosts[host]; ok {
				existing.match = append(existing.match, compiled.match...)
				existing.filter = append(existing.filter, compiled.filter...)
				existing.regex = append(existing.regex, compiled.regex...)
				if existing.script == "" {
					existing.script = compiled.script
				}
				continue
			}

			// Each host owns its slices; later merges append to them.
			t.hosts[host] = &hostRules{
				match:  slices.Clone(compiled.match),
				filter: slices.Clone(compiled.filter),
				regex:  slices.Clone(compiled.regex),
				script: compiled.script,
			}
		}
	}

	t.ads = lo.Compact(t.ads)
	return t
}

// Hosts returns the hosts that carry specific rules, wildcard included.
func (t *Table) Hosts() []string {
	if t == nil {
		return nil
	}
	return lo.Keys(t.hosts)
}

// lookup returns the rule sets for host in evaluation order: exact host first, then wildcard.
func (t *Table) lookup(host string) []*hostRules {
	if t == nil {
		return nil
	}

	var sets []*hostRules
	if r, ok := t.hosts[host]; ok && host != Wildcard {
		sets = append(sets, r)
	}
	if r, ok := t.hosts[Wildcard]; ok {
		sets = append(sets, r)
	}
	return sets
}

func (t *Table) adHosts() []string {
	if t == nil {
		return defaultAdHosts
	}
	return t.ads
}

func compileGroups(groups [][]string) [][]matcher {
	return lo.FilterMap(groups, func(group []string, _ int) ([]matcher, bool) {
		group = lo.Compact(group)
		if len(group) == 0 {
			return nil, false
		}
		return lo.Map(group, func(p string, _ int) matcher { return compile(p) }), true
	})
}

// compile turns a pattern into a matcher. Patterns are regular expressions;
// one that does not compile is matched as a literal substring.
func compile(pattern string) matcher {
	if re, err := regexp.Compile(pattern); err == nil {
		return re.MatchString
	}
	return func(s string) bool { return strings.Contains(s, pattern) }
}

func groupMatches(group []matcher, s string) bool {
	return lo.EveryBy(group, func(m matcher) bool { return m(s) })
}

func anyGroupMatches(groups [][]matcher, s string) bool {
	return lo.SomeBy(groups, func(g []matcher) bool { return groupMatches(g, s) })
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}
