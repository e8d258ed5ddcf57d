// Package sniff discovers media URLs by loading a page and watching what it requests.
package sniff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/rule"
	"github.com/samber/lo"
)

// DefaultTimeout bounds a sniff when neither the target nor the sniffer sets one.
const DefaultTimeout = 20 * time.Second

// Candidate is a media URL observed while sniffing.
type Candidate struct {
	URL          string
	Headers      map[string]string
	Format       string
	DiscoveredAt time.Time
}

// Target is what to load. Exactly one of URL and Document is set.
type Target struct {
	URL string
	// Document is rendered in place of loading URL.
	Document string
	// Origin is the page URL used for host rules and as the fallback Referer of candidates.
	// It defaults to URL.
	Origin    string
	Headers   map[string]string
	UserAgent string
	Timeout   time.Duration
	// Name is reported as the result's ResolvedBy.
	Name string
}

// Sniffer loads pages through a Renderer and classifies what they request.
type Sniffer struct {
	Renderer Renderer
	Rules    *rule.Engine
	Timeout  time.Duration
}

// New returns a Sniffer. A nil engine classifies with the built-in rules.
func New(renderer Renderer, rules *rule.Engine, timeout time.Duration) *Sniffer {
	if rules == nil {
		rules = rule.New(nil)
	}
	return &Sniffer{Renderer: renderer, Rules: rules, Timeout: timeout}
}

// Sniff loads the target and returns the first media URL that is not filtered.
//
// The deadline runs from the start of the call. When it fires the earliest queued candidate
// is returned, or playback.ErrTimeout when there is none.
func (s *Sniffer) Sniff(ctx context.Context, t Target) (playback.Result, error) {
	result, state, err := s.sniff(ctx, t)
	log.With(log.Fields{"target": t.URL, "state": state.String()}).Debug("sniff finished")
	return result, err
}

func (s *Sniffer) sniff(ctx context.Context, t Target) (playback.Result, State, error) {
	if s.Renderer == nil {
		return playback.Result{}, Failed, fmt.Errorf("%w: no browser available for sniffing", playback.ErrUnsupported)
	}
	if t.URL == "" && t.Document == "" {
		return playback.Result{}, Failed, fmt.Errorf("%w: nothing to sniff", playback.ErrInvalidURL)
	}

	timeout := lo.CoalesceOrEmpty(t.Timeout, s.Timeout, DefaultTimeout)
	userAgent := lo.CoalesceOrEmpty(t.UserAgent, headerValue(t.Headers, "User-Agent"), constant.UserAgent)
	origin := lo.CoalesceOrEmpty(t.Origin, t.URL)

	timer := time.NewTimer(timeout)
	ctx, cancel := context.WithCancel(ctx)

	sess := &session{
		rules:     s.Rules,
		origin:    origin,
		userAgent: userAgent,
		found:     make(chan struct{}),
		failed:    make(chan error, 1),
		startedAt: time.Now(),
	}

	page, err := s.Renderer.NewPage(ctx, PageOptions{UserAgent: userAgent})
	if err != nil {
		timer.Stop()
		cancel()
		return playback.Result{}, Failed, fmt.Errorf("sniff: open page: %w", err)
	}

	sess.teardown = func() {
		timer.Stop()
		cancel()
		if sess.detach != nil {
			sess.detach()
		}
		if err := page.Close(); err != nil {
			log.Debugf("sniff: close page: %s", err)
		}
	}
	defer sess.terminate()

	sess.detach = page.Observe(sess.observe)
	sess.transition(Loading)

	loaded := make(chan error, 1)
	go func() {
		var err error
		if t.Document != "" {
			err = page.LoadDocument(ctx, t.Document)
		} else {
			err = page.Load(ctx, t.URL, t.Headers)
		}

		if err == nil {
			if script := s.Rules.Script(origin); script != "" {
				if evalErr := page.Eval(ctx, script); evalErr != nil {
					log.Debugf("sniff: host script for %s: %s", origin, evalErr)
				}
			}
		}
		loaded <- err
	}()

	return sess.wait(ctx, timer.C, timeout, loaded, t.Name)
}

// wait settles the session on the first of: a candidate, the deadline, a load result,
// a navigation failure event or cancellation.
func (s *session) wait(ctx context.Context, deadline <-chan time.Time, timeout time.Duration, loaded <-chan error, name string) (playback.Result, State, error) {
	for {
		select {
		case <-s.found:
			return s.finish(Succeeded, name)
		case <-deadline:
			if _, ok := s.earliest(); ok {
				return s.finish(TimedOutWithCandidate, name)
			}
			s.transition(TimedOutEmpty)
			return playback.Result{}, TimedOutEmpty, fmt.Errorf("%w after %s", playback.ErrTimeout, timeout)
		case err := <-loaded:
			loaded = nil
			if err == nil {
				s.transition(Sniffing)
				continue
			}
			if ctx.Err() != nil {
				s.transition(Cancelled)
				return playback.Result{}, Cancelled, ctx.Err()
			}
			if res, state, ok := s.failure(err, name); ok {
				return res, state, nil
			}
			return playback.Result{}, Failed, playback.NetworkError(err)
		case err := <-s.failed:
			if res, state, ok := s.failure(err, name); ok {
				return res, state, nil
			}
			return playback.Result{}, Failed, playback.NetworkError(err)
		case <-ctx.Done():
			s.transition(Cancelled)
			return playback.Result{}, Cancelled, ctx.Err()
		}
	}
}

// session is the mutable state of one sniff. Its observer may run on any goroutine.
type session struct {
	rules     *rule.Engine
	origin    string
	userAgent string
	startedAt time.Time

	mu         sync.Mutex
	state      State
	candidates []Candidate

	found     chan struct{}
	foundOnce sync.Once
	failed    chan error

	detach   func()
	teardown func()
	once     sync.Once
}

func (s *session) transition(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Final() || s.state == Terminated {
		return
	}
	s.state = to
}

// terminate is the single transition into Terminated. Teardown runs exactly once.
func (s *session) terminate() {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = Terminated
		s.mu.Unlock()

		s.teardown()
	})
}

func (s *session) observe(ev Event) {
	if ev.Kind == EventLoadFailed {
		select {
		case s.failed <- lo.Ternary(ev.Err != nil, ev.Err, errors.New("navigation failed")):
		default:
		}
		return
	}

	link := resolveAgainst(s.origin, ev.URL)
	if link == "" || !playback.IsNetworkURL(link) {
		return
	}

	media := s.rules.IsMedia(link, s.origin) || (ev.Kind == EventResponse && mediaMIME(ev.MIMEType))
	if !media || s.rules.ShouldFilter(link, s.origin) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Final() || s.state == Terminated {
		return
	}
	if lo.ContainsBy(s.candidates, func(c Candidate) bool { return c.URL == link }) {
		return
	}

	s.candidates = append(s.candidates, Candidate{
		URL:          link,
		Headers:      s.replayHeaders(ev),
		Format:       rule.Format(link).OrEmpty(),
		DiscoveredAt: time.Now(),
	})

	log.With(log.Fields{"url": link, "kind": ev.Kind.String(), "after": time.Since(s.startedAt)}).Debug("sniff candidate")
	s.foundOnce.Do(func() { close(s.found) })
}

// replayHeaders keeps the headers a player needs to fetch the media like the page did.
// Without an observed Referer the requesting frame is used, then the origin.
func (s *session) replayHeaders(ev Event) map[string]string {
	defaults := map[string]string{"User-Agent": s.userAgent}
	if referer, ok := lo.Find([]string{ev.Document, s.origin}, playback.IsNetworkURL); ok {
		defaults["Referer"] = referer
	}

	kept := lo.PickBy(ev.Headers, func(k, _ string) bool {
		return strings.EqualFold(k, "Referer") || strings.EqualFold(k, "User-Agent") || strings.EqualFold(k, "Origin")
	})
	return playback.MergeHeaders(defaults, kept)
}

func (s *session) earliest() (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.candidates) == 0 {
		return Candidate{}, false
	}
	return s.candidates[0], true
}

func (s *session) finish(state State, name string) (playback.Result, State, error) {
	c, _ := s.earliest()
	s.transition(state)

	return playback.Result{
		URL:        c.URL,
		Headers:    c.Headers,
		ResolvedBy: name,
		Format:     c.Format,
	}, state, nil
}

// failure settles a navigation failure: a queued candidate still wins.
func (s *session) failure(err error, name string) (playback.Result, State, bool) {
	if _, ok := s.earliest(); ok {
		res, state, _ := s.finish(Succeeded, name)
		return res, state, true
	}

	s.transition(Failed)
	log.Debugf("sniff: navigation failed: %s", err)
	return playback.Result{}, Failed, false
}

// resolveAgainst makes raw absolute relative to origin.
func resolveAgainst(origin, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "blob:") || strings.HasPrefix(raw, "data:") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		scheme := "https"
		if u, err := url.Parse(origin); err == nil && u.Scheme != "" {
			scheme = u.Scheme
		}
		return playback.NormalizeURL(raw, scheme)
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return raw
	}

	base, err := url.Parse(origin)
	if err != nil || !base.IsAbs() {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func mediaMIME(mime string) bool {
	mime = strings.ToLower(mime)
	return strings.HasPrefix(mime, "video/") ||
		strings.HasPrefix(mime, "audio/") ||
		strings.Contains(mime, "mpegurl") ||
		strings.Contains(mime, "dash+xml")
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
