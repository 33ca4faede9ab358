package models

import (
	"net/http"
	"sort"
	"strings"
)

// Header is one response header as received.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered list of response headers. Names are case-sensitive.
type Headers []Header

// Get returns the value of the first header whose name matches exactly.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if hdr.Name == name {
			return hdr.Value, true
		}
	}
	return "", false
}

// HeadersFromHTTP flattens an http.Header. The transport does not keep wire
// order, so names are sorted and repeated values joined with ", ".
func HeadersFromHTTP(h http.Header) Headers {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Headers, 0, len(names))
	for _, name := range names {
		out = append(out, Header{Name: name, Value: strings.Join(h[name], ", ")})
	}
	return out
}

// HeadersFromMap converts a plain map into Headers sorted by name.
func HeadersFromMap(m map[string]string) Headers {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Headers, 0, len(names))
	for _, name := range names {
		out = append(out, Header{Name: name, Value: m[name]})
	}
	return out
}

// Result is the outcome of one successful fetch. It is never mutated after
// NewResult returns.
type Result struct {
	url        string
	statusCode int
	text       string
	rawMarkup  *string
	headers    Headers
	title      string
	strategy   string
}

// ResultOption sets an optional Result field at construction time.
type ResultOption func(*Result)

// WithRawMarkup attaches the markup the text was derived from.
func WithRawMarkup(markup string) ResultOption {
	return func(r *Result) { r.rawMarkup = &markup }
}

// WithHeaders attaches response headers. The slice is copied.
func WithHeaders(h Headers) ResultOption {
	return func(r *Result) { r.headers = append(Headers(nil), h...) }
}

// WithTitle attaches the document title.
func WithTitle(title string) ResultOption {
	return func(r *Result) { r.title = title }
}

// WithStrategy records which fetch strategy produced the result.
func WithStrategy(name string) ResultOption {
	return func(r *Result) { r.strategy = name }
}

// NewResult builds a Result. url must be non-blank; statusCode 0 means the
// status is not applicable.
func NewResult(url string, statusCode int, text string, opts ...ResultOption) (*Result, error) {
	if strings.TrimSpace(url) == "" {
		return nil, NewInvalidArgument("url")
	}
	r := &Result{url: url, statusCode: statusCode, text: text}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Result) URL() string      { return r.url }
func (r *Result) StatusCode() int  { return r.statusCode }
func (r *Result) Text() string     { return r.text }
func (r *Result) Title() string    { return r.title }
func (r *Result) Strategy() string { return r.strategy }

// RawMarkup returns the attached markup and whether one was attached.
func (r *Result) RawMarkup() (string, bool) {
	if r.rawMarkup == nil {
		return "", false
	}
	return *r.rawMarkup, true
}

// HasMarkup reports whether non-empty markup is attached.
func (r *Result) HasMarkup() bool {
	return r.rawMarkup != nil && *r.rawMarkup != ""
}

// Headers returns a copy of the response headers.
func (r *Result) Headers() Headers {
	return append(Headers(nil), r.headers...)
}
