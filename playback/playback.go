// Package playback defines the values flowing through link resolution and the errors it reports.
package playback

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// Request is the unit of work entering resolution.
type Request struct {
	// URL is the provider's raw playback token, a page or a direct link.
	URL string `json:"url"`
	// Headers are caller-supplied request headers. They override resolver defaults.
	Headers map[string]string `json:"headers,omitempty"`
	// NeedsResolution is false when URL is already playable.
	NeedsResolution bool `json:"needs_resolution"`
	// Hint is an optional embedded resolver selector: json:<template>, parse:<name> or a bare URL.
	Hint string `json:"hint,omitempty"`
	// Flag is the provider-declared playback source tag used for cohort routing.
	Flag string `json:"flag,omitempty"`
}

// Result is the output of one resolution attempt.
type Result struct {
	URL             string            `json:"url"`
	Headers         map[string]string `json:"headers,omitempty"`
	NeedsResolution bool              `json:"needs_resolution"`
	ResolvedBy      string            `json:"resolved_by,omitempty"`
	Format          string            `json:"format,omitempty"`
}

// AsResult returns the request unchanged, as a result.
func (r Request) AsResult() Result {
	return Result{
		URL:             r.URL,
		Headers:         r.Headers,
		NeedsResolution: r.NeedsResolution,
	}
}

// Next turns a result that still needs resolution into the request for the next layer.
// Headers fall back to the previous layer's when the result carries none.
func (r Result) Next(prev Request) Request {
	headers := r.Headers
	if len(headers) == 0 {
		headers = prev.Headers
	}

	return Request{
		URL:             r.URL,
		Headers:         headers,
		NeedsResolution: r.NeedsResolution,
		Flag:            prev.Flag,
	}
}

// Playable reports whether the result can be handed to a player as-is.
func (r Result) Playable() bool {
	return !r.NeedsResolution && IsNetworkURL(r.URL)
}

// Valid reports whether a result is acceptable as the outcome of an attempt:
// its URL is non-empty and uses a network scheme.
func Valid(r Result) bool {
	return IsNetworkURL(r.URL)
}

var networkSchemes = []string{"http", "https", "rtmp", "rtsp"}

// IsNetworkURL reports whether raw starts with a network scheme and names a host.
func IsNetworkURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return lo.Contains(networkSchemes, strings.ToLower(u.Scheme)) && u.Host != ""
}

// NormalizeURL prefixes a protocol-relative URL ("//host/path") with scheme.
func NormalizeURL(raw, scheme string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return scheme + ":" + raw
	}
	return raw
}

// BuildURL substitutes target into a resolver URL template.
//
// A template ending in "=" gets the encoded target appended directly,
// a template with a query gets "&url=<encoded>", anything else "?url=<encoded>".
func BuildURL(template, target string) string {
	encoded := url.QueryEscape(target)

	switch {
	case strings.HasSuffix(template, "="):
		return template + encoded
	case strings.Contains(template, "?"):
		return template + "&url=" + encoded
	default:
		return template + "?url=" + encoded
	}
}

// MergeHeaders layers header maps, later maps overriding earlier ones.
// Header names are compared case-insensitively; the last spelling wins.
func MergeHeaders(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	names := make(map[string]string)

	for _, layer := range layers {
		for k, v := range layer {
			lower := strings.ToLower(k)
			if prev, ok := names[lower]; ok {
				delete(merged, prev)
			}
			names[lower] = k
			merged[k] = v
		}
	}

	if len(merged) == 0 {
		return nil
	}
	return merged
}
