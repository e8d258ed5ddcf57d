package rule

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Classification is the verdict on one URL.
type Classification struct {
	URL          string `json:"url"`
	IsMedia      bool   `json:"is_media"`
	ShouldFilter bool   `json:"should_filter"`
	Format       string `json:"format,omitempty"`
}

// Engine evaluates a Table. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	table *Table
}

// New returns an engine over table. A nil table means built-in rules only.
func New(table *Table) *Engine {
	if table == nil {
		table = NewTable(nil, nil)
	}
	return &Engine{table: table}
}

// Table returns the rule table the engine evaluates.
func (e *Engine) Table() *Table {
	return e.table
}

// IsMedia reports whether raw looks like a playable media asset. Host rules are looked up by
// the host of origin, or of raw itself when origin is empty.
func (e *Engine) IsMedia(raw, origin string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" || excluded(lower) {
		return false
	}

	if defaultMedia(lower) {
		return true
	}

	return lo.SomeBy(e.table.lookup(hostOf(origin, raw)), func(r *hostRules) bool {
		return anyGroupMatches(r.match, raw) || lo.SomeBy(r.regex, func(m matcher) bool { return m(raw) })
	})
}

// ShouldFilter reports whether raw is ad or analytics noise. It is independent of IsMedia:
// a media-shaped tracking URL is both.
func (e *Engine) ShouldFilter(raw, origin string) bool {
	if host := hostOf("", raw); host != "" {
		blocked := lo.SomeBy(e.table.adHosts(), func(ad string) bool {
			return host == ad || strings.HasSuffix(host, "."+ad)
		})
		if blocked {
			return true
		}
	}

	return lo.SomeBy(e.table.lookup(hostOf(origin, raw)), func(r *hostRules) bool {
		return anyGroupMatches(r.filter, raw)
	})
}

// Format extracts a best-effort format tag from the extension or path shape.
func (e *Engine) Format(raw string) mo.Option[string] {
	return Format(raw)
}

// Classify runs every check on raw.
func (e *Engine) Classify(raw, origin string) Classification {
	return Classification{
		URL:          raw,
		IsMedia:      e.IsMedia(raw, origin),
		ShouldFilter: e.ShouldFilter(raw, origin),
		Format:       Format(raw).OrEmpty(),
	}
}

// Script returns the host script registered for origin, exact host first, then wildcard.
func (e *Engine) Script(origin string) string {
	for _, r := range e.table.lookup(hostOf(origin, "")) {
		if r.script != "" {
			return r.script
		}
	}
	return ""
}

// Format extracts a best-effort format tag from the extension or path shape of raw.
func Format(raw string) mo.Option[string] {
	lower := strings.ToLower(raw)
	p := lower
	if u, err := url.Parse(lower); err == nil {
		p = u.Path
	}

	switch {
	case strings.Contains(lower, "m3u8") || strings.Contains(p, "/hls/"):
		return mo.Some("m3u8")
	case strings.HasSuffix(p, ".mpd") || strings.Contains(p, "/dash/"):
		return mo.Some("mpd")
	case strings.Contains(lower, ".mp4"):
		return mo.Some("mp4")
	case strings.Contains(lower, ".flv"):
		return mo.Some("flv")
	case path.Ext(p) == ".ts":
		return mo.Some("ts")
	case strings.Contains(lower, ".mkv"):
		return mo.Some("mkv")
	case strings.Contains(lower, ".webm"):
		return mo.Some("webm")
	}

	return mo.None[string]()
}

func excluded(lower string) bool {
	if u, err := url.Parse(lower); err == nil {
		if _, ok := excludedExtensions[path.Ext(u.Path)]; ok {
			return true
		}
	}

	return lo.SomeBy(excludedShapes, func(shape string) bool {
		return strings.Contains(lower, shape)
	})
}

func defaultMedia(lower string) bool {
	if lo.SomeBy(mediaExtensions, func(ext string) bool { return strings.Contains(lower, ext) }) {
		return true
	}

	if lo.SomeBy(mediaPatterns, func(re *regexp.Regexp) bool { return re.MatchString(lower) }) {
		return true
	}

	u, err := url.Parse(lower)
	if err != nil {
		return false
	}

	if path.Ext(u.Path) == ".ts" {
		return true
	}

	return lo.SomeBy(mediaPathShapes, func(shape string) bool {
		return strings.Contains(u.Path, shape)
	})
}

// hostOf returns the normalized host of origin, falling back to raw.
func hostOf(origin, raw string) string {
	for _, candidate := range []string{origin, raw} {
		if candidate == "" {
			continue
		}
		if u, err := url.Parse(strings.TrimSpace(candidate)); err == nil && u.Hostname() != "" {
			return normalizeHost(u.Hostname())
		}
	}
	return ""
}
