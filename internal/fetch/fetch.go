// Package fetch acquires raw page content, either over stateless HTTP or through
// a browser automation session that renders the page first.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Condition is a DOM predicate: an element matching Selector must appear within Timeout.
// A zero Timeout means the transport default.
type Condition struct {
	Selector string
	Timeout  time.Duration
}

// Interaction clicks the first element matching Selector whose text is Text,
// then waits for Then.
type Interaction struct {
	Selector string
	Text     string
	Then     Condition
}

// Target describes one fetch. It is built per request and never persisted.
type Target struct {
	URL             string
	RequiresBrowser bool
	Ready           *Condition
	Interact        *Interaction
	Header          http.Header
}

// Transport names the transport that serves t.
func (t Target) Transport() string {
	if t.RequiresBrowser {
		return "browser"
	}

	return "http"
}

// Fetcher returns the raw content of a target.
type Fetcher interface {
	Fetch(ctx context.Context, target Target) (string, error)
}

// Client dispatches targets to the HTTP or the browser transport.
type Client struct {
	http    Fetcher
	browser Fetcher
}

// New returns a Client. browser may be nil, in which case browser targets fail.
func New(http, browser Fetcher) *Client {
	return &Client{http: http, browser: browser}
}

func (c *Client) Fetch(ctx context.Context, target Target) (string, error) {
	if !target.RequiresBrowser {
		return c.http.Fetch(ctx, target)
	}

	if c.browser == nil {
		return "", &TransportError{URL: target.URL, Err: errors.New("browser transport is not configured")}
	}

	return c.browser.Fetch(ctx, target)
}

var (
	ErrTransport     = errors.New("transport error")
	ErrRenderTimeout = errors.New("render timeout")
)

// TransportError reports a network failure or a non-2xx response.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}

	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}

	return []error{ErrTransport, e.Err}
}

// RenderTimeoutError reports a wait condition that never held in the rendered page.
type RenderTimeoutError struct {
	URL      string
	Selector string
	Timeout  time.Duration
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("render %s: %q did not appear within %s", e.URL, e.Selector, e.Timeout)
}

func (e *RenderTimeoutError) Unwrap() error {
	return ErrRenderTimeout
}
