package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/rule"
	"github.com/samber/lo"
)

// SuperName is the name of the synthetic super-resolve descriptor.
const SuperName = "super"

var (
	ErrDuplicateResolver = errors.New("duplicate resolver name")
	ErrInvalidResolver   = errors.New("invalid resolver")
)

// Snapshot is one immutable resolver configuration. It is rebuilt wholesale on reload,
// never mutated.
type Snapshot struct {
	Descriptors []Descriptor
	Rules       *rule.Table

	index map[string]int
}

// NewSnapshot validates descriptors and prepends the synthetic super-resolve descriptor
// when at least one resolver is configured.
func NewSnapshot(descriptors []Descriptor, rules *rule.Table) (*Snapshot, error) {
	s := &Snapshot{
		Rules: rules,
		index: make(map[string]int),
	}
	if s.Rules == nil {
		s.Rules = rule.NewTable(nil, nil)
	}

	if len(descriptors) > 0 {
		descriptors = append([]Descriptor{{Name: SuperName, Kind: SuperResolve}}, descriptors...)
	}

	for i, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("%w: resolver #%d has no name", ErrInvalidResolver, i)
		}
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("%w: resolver %s has kind %s", playback.ErrUnsupported, d.Name, d.Kind)
		}
		if d.Kind != SuperResolve && d.Kind != StructuredJSONFederated && d.Kind != StructuredJSONAggregate && d.URL == "" {
			return nil, fmt.Errorf("%w: resolver %s has no url", ErrInvalidResolver, d.Name)
		}
		if _, ok := s.index[d.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateResolver, d.Name)
		}
		s.index[d.Name] = i
	}

	s.Descriptors = descriptors
	return s, nil
}

// Empty returns a snapshot with no resolvers and built-in rules only.
func Empty() *Snapshot {
	return lo.Must(NewSnapshot(nil, nil))
}

// Lookup finds a descriptor by name.
func (s *Snapshot) Lookup(name string) (Descriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return s.Descriptors[i], true
}

// Default returns the descriptor called preferred, or the first configured one.
func (s *Snapshot) Default(preferred string) (Descriptor, bool) {
	if preferred != "" {
		if d, ok := s.Lookup(preferred); ok {
			return d, true
		}
	}
	if len(s.Descriptors) == 0 {
		return Descriptor{}, false
	}
	return s.Descriptors[0], true
}

// OfKind returns the descriptors of kind k in configuration order.
func (s *Snapshot) OfKind(k Kind) []Descriptor {
	return lo.Filter(s.Descriptors, func(d Descriptor, _ int) bool {
		return d.Kind == k
	})
}

// Names returns every descriptor name in configuration order.
func (s *Snapshot) Names() []string {
	return lo.Map(s.Descriptors, func(d Descriptor, _ int) string {
		return d.Name
	})
}

// document is the on-disk resolver configuration.
type document struct {
	Parses []struct {
		Name string          `json:"name"`
		Type json.Number     `json:"type"`
		URL  string          `json:"url"`
		Ext  json.RawMessage `json:"ext"`
	} `json:"parses"`
	Rules []rule.HostRuleSet `json:"rules"`
	Ads   []string           `json:"ads"`
}

// Parse builds a snapshot from a resolver configuration document.
// extraAds are merged into the document's ad host list.
func Parse(data []byte, extraAds ...string) (*Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse resolver config: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(doc.Parses))
	for _, p := range doc.Parses {
		kind := BrowserSniff
		if p.Type != "" {
			code, err := p.Type.Int64()
			if err != nil {
				return nil, fmt.Errorf("resolver %s: type: %w", p.Name, err)
			}
			kind = Kind(code)
		}

		ext, err := ParseExt(p.Ext)
		if err != nil {
			return nil, fmt.Errorf("resolver %s: %w", p.Name, err)
		}

		descriptors = append(descriptors, Descriptor{
			Name: strings.TrimSpace(p.Name),
			URL:  strings.TrimSpace(p.URL),
			Kind: kind,
			Ext:  ext,
		})
	}

	return NewSnapshot(descriptors, rule.NewTable(doc.Rules, append(doc.Ads, extraAds...)))
}
