// Package structured resolves a page URL through a resolver endpoint that answers with JSON.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/network"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/rule"
	"github.com/samber/lo"
)

// Resolver calls structured resolver endpoints.
type Resolver struct {
	Fetcher network.Fetcher
	// Timeout bounds one call. Zero means the fetcher default.
	Timeout time.Duration
}

// New returns a Resolver using fetcher.
func New(fetcher network.Fetcher, timeout time.Duration) *Resolver {
	return &Resolver{Fetcher: fetcher, Timeout: timeout}
}

// Resolve asks the resolver described by d to turn req.URL into a playable URL.
//
// Headers sent to the resolver are layered default < resolver ext < caller. The response may
// be shaped {data:{url}}, {url} or {data:"<url>"}; the first shape carrying a URL is used.
func (r *Resolver) Resolve(ctx context.Context, d resolver.Descriptor, req playback.Request) (playback.Result, error) {
	if d.URL == "" {
		return playback.Result{}, fmt.Errorf("%w: resolver %s has no url template", playback.ErrInvalidURL, d.Name)
	}

	endpoint := playback.BuildURL(d.URL, req.URL)
	headers := playback.MergeHeaders(
		map[string]string{"User-Agent": constant.UserAgent},
		d.Headers(),
		req.Headers,
	)

	log.With(log.Fields{"resolver": d.Name, "endpoint": endpoint}).Debug("structured resolve")

	body, err := r.Fetcher.FetchText(ctx, endpoint, headers, r.Timeout)
	if err != nil {
		return playback.Result{}, fmt.Errorf("resolver %s: %w", d.Name, err)
	}

	result, err := Decode(body)
	if err != nil {
		return playback.Result{}, fmt.Errorf("resolver %s: %w", d.Name, err)
	}

	result.ResolvedBy = d.Name
	return result, nil
}

// Decode extracts a result from a resolver response body.
func Decode(body string) (playback.Result, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &payload); err != nil {
		return playback.Result{}, fmt.Errorf("%w: %w", playback.ErrInvalidResponse, err)
	}

	data, _ := payload["data"].(map[string]any)

	raw, ok := firstURL(payload, data)
	if !ok {
		return playback.Result{}, playback.ErrNoURLInResponse
	}

	link := playback.NormalizeURL(raw, "https")
	if !playback.IsNetworkURL(link) {
		return playback.Result{}, fmt.Errorf("%w: %q", playback.ErrInvalidURL, link)
	}

	return playback.Result{
		URL:             link,
		Headers:         playback.MergeHeaders(headersOf(payload), headersOf(data)),
		NeedsResolution: parseFlag(payload["parse"], data),
		Format:          rule.Format(link).OrEmpty(),
	}, nil
}

func firstURL(payload, data map[string]any) (string, bool) {
	candidates := []any{
		data["url"],
		payload["url"],
		payload["data"],
	}

	for _, c := range candidates {
		if s, ok := c.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// headersOf collects user-agent, referer, header and headers fields of m.
// Explicit user-agent and referer fields win over the header maps.
func headersOf(m map[string]any) map[string]string {
	if m == nil {
		return nil
	}

	layers := make([]map[string]string, 0, 3)
	for _, name := range []string{"header", "headers"} {
		layers = append(layers, stringMap(m[name]))
	}

	explicit := make(map[string]string)
	if ua, ok := m["user-agent"].(string); ok && ua != "" {
		explicit["User-Agent"] = ua
	}
	if referer, ok := m["referer"].(string); ok && referer != "" {
		explicit["Referer"] = referer
	}

	return playback.MergeHeaders(append(layers, explicit)...)
}

// stringMap accepts a JSON object or a string holding one.
func stringMap(v any) map[string]string {
	if s, ok := v.(string); ok {
		var nested map[string]any
		if json.Unmarshal([]byte(s), &nested) != nil {
			return nil
		}
		v = nested
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	return lo.MapValues(obj, func(value any, _ string) string {
		return fmt.Sprint(value)
	})
}

func parseFlag(top any, data map[string]any) bool {
	v := top
	if v == nil && data != nil {
		v = data["parse"]
	}

	switch p := v.(type) {
	case float64:
		return p == 1
	case bool:
		return p
	case string:
		return strings.TrimSpace(p) == "1"
	}
	return false
}
