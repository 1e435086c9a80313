// Package parser turns raw page content into records.
//
// Every page family is a Parser registered under the resource kind it serves.
// Parsing fails only when the root anchor of the family is absent; missing
// optional sections default to empty values and mark the record partial.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/gauravRathod674/OtakuRealm/source"
)

// Parser parses the raw content of one page family. It must not perform I/O.
type Parser interface {
	Parse(raw string) (source.Record, error)
}

// ErrMalformedPage is matched by every MalformedPageError.
var ErrMalformedPage = errors.New("malformed page")

// MalformedPageError reports content lacking the root anchor of its page family:
// the upstream layout changed or the page is not the expected one.
type MalformedPageError struct {
	Kind   source.Kind
	Anchor string
}

func (e *MalformedPageError) Error() string {
	return fmt.Sprintf("%s page has no %q element", e.Kind, e.Anchor)
}

func (e *MalformedPageError) Unwrap() error {
	return ErrMalformedPage
}

// Page is the parsing state of one document.
type Page struct {
	Doc  *goquery.Document
	Root *goquery.Selection

	missing []string
}

// Optional returns sel, recording field as missing when sel matched nothing.
func (p *Page) Optional(field string, sel *goquery.Selection) *goquery.Selection {
	if sel.Length() == 0 {
		p.missing = append(p.missing, field)
	}

	return sel
}

// Family is a Parser for pages recognised by the Anchor selector.
type Family struct {
	Kind    source.Kind
	Anchor  string
	Extract func(p *Page) source.Record
}

func (f Family) Parse(raw string) (source.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read %s page: %w", f.Kind, err)
	}

	root := doc.Find(f.Anchor)
	if root.Length() == 0 {
		return nil, &MalformedPageError{Kind: f.Kind, Anchor: f.Anchor}
	}

	page := &Page{Doc: doc, Root: root.First()}
	record := f.Extract(page)
	record.MarkPartial(page.missing...)

	return record, nil
}

// Registry maps resource kinds to their parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[source.Kind]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[source.Kind]Parser)}
}

// Default holds every built-in page family.
var Default = NewRegistry()

// Register adds or replaces the parser of kind.
func (r *Registry) Register(kind source.Kind, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[kind] = p
}

// Lookup returns the parser of kind.
func (r *Registry) Lookup(kind source.Kind) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[kind]
	return p, ok
}

// Parse parses raw with the parser of kind.
func (r *Registry) Parse(kind source.Kind, raw string) (source.Record, error) {
	p, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("no parser registered for %s", kind)
	}

	return p.Parse(raw)
}

func register(families ...Family) {
	for _, f := range families {
		Default.Register(f.Kind, f)
	}
}
