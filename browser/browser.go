// Package browser renders pages in a headless Chromium driven over the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/sniff"
)

// Options configure the browser process.
type Options struct {
	// Bin is the browser executable. Empty means the one found on the system, or a
	// downloaded revision when none is installed.
	Bin         string
	Headless    bool
	UserDataDir string
}

// Renderer is a sniff.Renderer backed by one lazily launched browser.
// Every page lives in its own incognito context.
type Renderer struct {
	opts Options

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// New returns a renderer. The browser is launched on the first NewPage.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Available reports whether a browser executable can be found without downloading one.
func Available(bin string) (string, bool) {
	if bin != "" {
		return bin, true
	}
	return launcher.LookPath()
}

// connect launches the browser once. The process outlives any single request context.
func (r *Renderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().
		Headless(r.opts.Headless).
		Set("disable-site-isolation-trials").
		Set("disable-features", "IsolateOrigins,site-per-process").
		Set("autoplay-policy", "no-user-gesture-required").
		Set("mute-audio")

	if r.opts.Bin != "" {
		l = l.Bin(r.opts.Bin)
	}
	if r.opts.UserDataDir != "" {
		l = l.UserDataDir(r.opts.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %w", playback.ErrUnsupported, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: connect browser: %w", playback.ErrUnsupported, err)
	}

	log.Infof("browser launched at %s", controlURL)
	r.launcher = l
	r.browser = b
	return b, nil
}

// NewPage opens a blank page in a fresh incognito context.
func (r *Renderer) NewPage(ctx context.Context, opts sniff.PageOptions) (sniff.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	p, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	pg := &page{context: incognito, page: p}

	ua := opts.UserAgent
	if ua == "" {
		ua = constant.UserAgent
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("set user agent: %w", err)
	}

	if _, err := p.EvalOnNewDocument(constant.ObserverScript); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("inject observer: %w", err)
	}

	return pg, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}

	err := r.browser.Close()
	r.launcher.Cleanup()
	r.browser, r.launcher = nil, nil
	return err
}

// page adapts a rod page to sniff.Page.
type page struct {
	context *rod.Browser
	page    *rod.Page
}

func (p *page) Observe(fn func(sniff.Event)) func() {
	ctx, cancel := context.WithCancel(context.Background())

	wait := p.page.Context(ctx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request == nil {
				return
			}
			fn(sniff.Event{
				Kind:     sniff.EventRequest,
				URL:      e.Request.URL,
				Headers:  headerMap(e.Request.Headers),
				Document: e.DocumentURL,
			})
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil {
				return
			}
			fn(sniff.Event{Kind: sniff.EventResponse, URL: e.Response.URL, MIMEType: e.Response.MIMEType})
		},
		func(e *proto.RuntimeConsoleAPICalled) {
			if src, ok := mediaFromConsole(e.Args); ok {
				fn(sniff.Event{Kind: sniff.EventMediaElement, URL: src})
			}
		},
	)
	go wait()

	return cancel
}

func (p *page) Load(ctx context.Context, url string, headers map[string]string) error {
	extra := make([]string, 0, len(headers)*2)
	for k, v := range headers {
		// the user agent is set per page
		if strings.EqualFold(k, "User-Agent") {
			continue
		}
		extra = append(extra, k, v)
	}

	if len(extra) > 0 {
		if _, err := p.page.SetExtraHeaders(extra); err != nil {
			return fmt.Errorf("set headers: %w", err)
		}
	}

	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *page) LoadDocument(ctx context.Context, html string) error {
	return p.page.Context(ctx).SetDocumentContent(html)
}

func (p *page) Eval(ctx context.Context, script string) error {
	_, err := p.page.Context(ctx).Eval("() => {\n" + script + "\n}")
	return err
}

func (p *page) Close() error {
	err := p.page.Close()
	if ctxErr := p.context.Close(); err == nil {
		err = ctxErr
	}
	return err
}

func headerMap(headers proto.NetworkHeaders) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	m := make(map[string]string, len(headers))
	for k, v := range headers {
		m[k] = v.Str()
	}
	return m
}

// mediaFromConsole extracts a media URL from a console message emitted by the observer script.
func mediaFromConsole(args []*proto.RuntimeRemoteObject) (string, bool) {
	if len(args) == 0 || args[0] == nil {
		return "", false
	}

	msg := args[0].Value.Str()
	if !strings.HasPrefix(msg, constant.MediaConsolePrefix) {
		return "", false
	}

	src := strings.TrimSpace(strings.TrimPrefix(msg, constant.MediaConsolePrefix))
	return src, src != ""
}
