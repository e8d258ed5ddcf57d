package sniff

import "context"

// EventKind is the class of signal a page reports.
type EventKind int

const (
	// EventRequest is a network request issued by the page or one of its frames.
	EventRequest EventKind = iota
	// EventMediaElement is a src or currentSrc assigned to a media element.
	EventMediaElement
	// EventResponse is a response received for a request, with its content type.
	EventResponse
	// EventLoadFailed reports that the top-level navigation failed.
	EventLoadFailed
)

func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "request"
	case EventMediaElement:
		return "media-element"
	case EventResponse:
		return "response"
	case EventLoadFailed:
		return "load-failed"
	default:
		return "unknown"
	}
}

// Event is one observation made inside a page.
type Event struct {
	Kind EventKind
	URL  string
	// Headers are the request headers the page sent, when known.
	Headers map[string]string
	// Document is the URL of the document or frame that issued the request, when known.
	Document string
	// MIMEType is set for responses.
	MIMEType string
	// Err is set for EventLoadFailed.
	Err error
}

// PageOptions configure a new page.
type PageOptions struct {
	UserAgent string
}

// Page is an isolated, single-use rendering context.
type Page interface {
	// Observe registers fn for every event the page reports and returns a function that
	// detaches it. fn may be called from any goroutine.
	Observe(fn func(Event)) (detach func())
	// Load navigates to url and returns once the document has loaded or navigation failed.
	Load(ctx context.Context, url string, headers map[string]string) error
	// LoadDocument renders html as the page content.
	LoadDocument(ctx context.Context, html string) error
	// Eval runs script in the page.
	Eval(ctx context.Context, script string) error
	// Close tears the page down and stops any navigation in progress.
	Close() error
}

// Renderer creates pages. Implementations must support cancellation through ctx.
type Renderer interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
}
