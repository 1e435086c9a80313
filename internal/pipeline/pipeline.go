// Package pipeline implements the cache-hit / cache-miss decision tree shared by
// every resource kind: cached record, cached raw page, live fetch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gauravRathod674/OtakuRealm/internal/cache"
	"github.com/gauravRathod674/OtakuRealm/internal/fetch"
	"github.com/gauravRathod674/OtakuRealm/internal/parser"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/metrics"
	"github.com/gauravRathod674/OtakuRealm/source"
	"golang.org/x/sync/singleflight"
)

// Resource is the caching policy of one resource kind.
type Resource struct {
	Kind  source.Kind
	Class source.TTLClass
	TTL   time.Duration

	// Accept reports whether a parsed record may be cached.
	// When nil every record except a not-found marker is cached.
	Accept func(source.Record) bool
}

func (r Resource) accepts(record source.Record) bool {
	if r.Accept != nil {
		return r.Accept(record)
	}

	return !record.IsNotFound()
}

func (r Resource) fresh(age time.Duration) bool {
	return r.Class != source.ShortLived || age < r.TTL
}

// Request is one pipeline invocation.
type Request struct {
	Resource Resource
	Key      source.Key
	Target   fetch.Target

	// Then runs on a freshly parsed record before it is cached.
	Then func(ctx context.Context, record source.Record) (source.Record, error)
}

// Pipeline resolves requests against the cache, falling back to the fetcher.
type Pipeline struct {
	store    *cache.Store
	fetcher  fetch.Fetcher
	parsers  *parser.Registry
	keepHTML bool
	flights  singleflight.Group
}

type Option func(*Pipeline)

// WithParsers replaces the default parser registry.
func WithParsers(parsers *parser.Registry) Option {
	return func(p *Pipeline) {
		p.parsers = parsers
	}
}

// WithRawTier keeps every fetched page next to its record, so that a lost or
// corrupt record is re-parsed instead of re-fetched.
func WithRawTier(keep bool) Option {
	return func(p *Pipeline) {
		p.keepHTML = keep
	}
}

func New(store *cache.Store, fetcher fetch.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		fetcher: fetcher,
		parsers: parser.Default,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Store returns the underlying cache store.
func (p *Pipeline) Store() *cache.Store {
	return p.store
}

// Get returns the record of req.Key, fetching and caching it when there is no fresh entry.
// Concurrent calls for the same cold key share one fetch. The shared fetch is not
// cancelled with the caller that started it; each caller stops waiting when its own
// ctx is done.
// The returned record is owned by the caller.
func (p *Pipeline) Get(ctx context.Context, req Request) (source.Record, error) {
	shared := context.WithoutCancel(ctx)
	flight := p.flights.DoChan(req.Key.String(), func() (any, error) {
		return p.get(shared, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}

		return source.Normalize(res.Val.(source.Record))
	}
}

// Scrape fetches and parses target without touching the cache.
func (p *Pipeline) Scrape(ctx context.Context, kind source.Kind, target fetch.Target) (source.Record, error) {
	raw, err := p.fetch(ctx, kind, target)
	if err != nil {
		return nil, err
	}

	record, err := p.parse(kind, raw)
	if err != nil {
		return nil, err
	}

	return source.Normalize(record)
}

func (p *Pipeline) get(ctx context.Context, req Request) (source.Record, error) {
	kind := req.Resource.Kind
	logger := log.WithFields(log.Fields{"kind": kind, "key": req.Key})

	if record, ok := p.cached(req, logger); ok {
		return record, nil
	}

	record, ok := p.reparse(req, logger)
	if !ok {
		raw, err := p.fetch(ctx, kind, req.Target)
		if err != nil {
			return nil, err
		}

		if record, err = p.parse(kind, raw); err != nil {
			return nil, err
		}

		if p.keepHTML && req.Resource.accepts(record) {
			if err := p.store.SaveRaw(req.Key, raw); err != nil {
				logger.Warnf("keep raw page: %s", err)
			}
		}
	}

	if req.Then != nil {
		var err error
		if record, err = req.Then(ctx, record); err != nil {
			return nil, err
		}
	}

	record, err := source.Normalize(record)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", kind, err)
	}

	if !req.Resource.accepts(record) {
		logger.Debug("record not cached")
		return record, nil
	}

	if _, err := p.store.Save(req.Key, record, req.Resource.Class); err != nil {
		metrics.CacheSaveFailures.WithLabelValues(kind.String()).Inc()
		logger.Warnf("cache save: %s", err)
	}

	return record, nil
}

// cached returns a fresh record stored under the request key.
// A corrupt entry is deleted and reported as a miss.
func (p *Pipeline) cached(req Request, logger *log.Entry) (source.Record, bool) {
	kind := req.Resource.Kind.String()

	entry, err := p.store.Load(req.Key)
	switch {
	case err == nil:
		if req.Resource.fresh(entry.Age(p.store.Now())) {
			metrics.CacheLookups.WithLabelValues(kind, metrics.Hit).Inc()
			return entry.Payload, true
		}

		metrics.CacheLookups.WithLabelValues(kind, metrics.Stale).Inc()
	case errors.Is(err, cache.ErrCorrupt):
		metrics.CacheLookups.WithLabelValues(kind, metrics.Corrupt).Inc()
		logger.Warnf("discarding cache entry: %s", err)

		if err := p.store.Delete(req.Key); err != nil {
			logger.Warnf("delete corrupt entry: %s", err)
		}
	case errors.Is(err, cache.ErrMiss):
		metrics.CacheLookups.WithLabelValues(kind, metrics.Miss).Inc()
	default:
		metrics.CacheLookups.WithLabelValues(kind, metrics.Miss).Inc()
		logger.Warnf("cache read: %s", err)
	}

	return nil, false
}

// reparse parses the kept raw page of the request key when it is still fresh.
func (p *Pipeline) reparse(req Request, logger *log.Entry) (source.Record, bool) {
	if !p.keepHTML {
		return nil, false
	}

	raw, age, err := p.store.LoadRaw(req.Key)
	if err != nil || !req.Resource.fresh(age) {
		return nil, false
	}

	record, err := p.parse(req.Resource.Kind, raw)
	if err != nil {
		logger.Warnf("kept raw page: %s", err)
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(req.Resource.Kind.String(), metrics.Raw).Inc()
	return record, true
}

func (p *Pipeline) fetch(ctx context.Context, kind source.Kind, target fetch.Target) (string, error) {
	transport := target.Transport()
	started := time.Now()

	raw, err := p.fetcher.Fetch(ctx, target)
	metrics.FetchDuration.WithLabelValues(transport).Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.Fetches.WithLabelValues(kind.String(), transport, metrics.Error).Inc()
		log.WithFields(log.Fields{"kind": kind, "url": target.URL, "transport": transport}).Warnf("fetch: %s", err)
		return "", fmt.Errorf("%s: %w", kind, err)
	}

	metrics.Fetches.WithLabelValues(kind.String(), transport, metrics.OK).Inc()
	return raw, nil
}

func (p *Pipeline) parse(kind source.Kind, raw string) (source.Record, error) {
	record, err := p.parsers.Parse(kind, raw)
	if err != nil {
		if errors.Is(err, parser.ErrMalformedPage) {
			metrics.ParseFailures.WithLabelValues(kind.String()).Inc()
		}

		return nil, err
	}

	return record, nil
}
