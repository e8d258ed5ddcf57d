// Package resolver describes the configured resolvers and loads them as an immutable snapshot.
package resolver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/playback"
	"github.com/samber/lo"
)

// Kind selects the strategy a resolver is dispatched to. The numeric values are the
// type codes used by resolver configuration documents.
type Kind int

const (
	BrowserSniff Kind = iota
	StructuredJSON
	StructuredJSONFederated
	StructuredJSONAggregate
	SuperResolve
)

var kindNames = map[Kind]string{
	BrowserSniff:            "sniff",
	StructuredJSON:          "json",
	StructuredJSONFederated: "json-federated",
	StructuredJSONAggregate: "json-aggregate",
	SuperResolve:            "super",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a kind this build can dispatch.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Structured reports whether the resolver answers with JSON rather than needing a browser.
func (k Kind) Structured() bool {
	return k == StructuredJSON || k == StructuredJSONFederated || k == StructuredJSONAggregate
}

// ParseKind accepts either a kind name or its numeric code.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s || fmt.Sprint(int(k)) == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: resolver kind %q", playback.ErrUnsupported, s)
}

// Descriptor is the immutable configuration of one resolver.
type Descriptor struct {
	Name string    `json:"name"`
	URL  string    `json:"url"`
	Kind Kind      `json:"kind"`
	Ext  ExtConfig `json:"ext"`
}

func (d Descriptor) String() string {
	return d.Name
}

// Headers returns the resolver-level request headers, user agent override included.
func (d Descriptor) Headers() map[string]string {
	if d.Ext.UserAgent == "" {
		return playback.MergeHeaders(d.Ext.Headers)
	}
	return playback.MergeHeaders(d.Ext.Headers, map[string]string{"User-Agent": d.Ext.UserAgent})
}

// HasFlag reports whether the resolver declares flag in its extension config.
func (d Descriptor) HasFlag(flag string) bool {
	return lo.Contains(d.Ext.Flags, flag)
}

// ExtConfig is the validated per-resolver extension configuration.
type ExtConfig struct {
	Headers   map[string]string `json:"headers,omitempty"`
	Flags     []string          `json:"flag,omitempty"`
	UserAgent string            `json:"ua,omitempty"`
}

// ParseExt validates a raw ext value: a JSON object, or a string holding one.
// Recognized keys are header/headers, flag and ua/user-agent; other keys are ignored.
func ParseExt(raw json.RawMessage) (ExtConfig, error) {
	var ext ExtConfig

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ext, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return ext, fmt.Errorf("ext: %w", err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return ext, nil
		}
		raw = json.RawMessage(inner)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ext, fmt.Errorf("ext must be a JSON object: %w", err)
	}

	for name, value := range fields {
		var err error
		switch strings.ToLower(name) {
		case "header", "headers":
			ext.Headers, err = stringMap(value)
		case "flag", "flags":
			ext.Flags, err = stringList(value)
		case "ua", "user-agent":
			err = json.Unmarshal(value, &ext.UserAgent)
		default:
			log.Debugf("resolver ext: ignoring unrecognized key %q", name)
		}

		if err != nil {
			return ext, fmt.Errorf("ext %s: %w", name, err)
		}
	}

	ext.Flags = lo.Uniq(lo.Compact(ext.Flags))
	return ext, nil
}

func stringMap(raw json.RawMessage) (map[string]string, error) {
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}

	return lo.MapValues(values, func(v any, _ string) string {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}), nil
}

func stringList(raw json.RawMessage) ([]string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
