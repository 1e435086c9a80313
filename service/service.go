// Package service composes resource pipelines into the operations exposed by
// the CLI and the HTTP server.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/internal/aggregate"
	"github.com/gauravRathod674/OtakuRealm/internal/pipeline"
	"github.com/gauravRathod674/OtakuRealm/mangadex"
	"github.com/gauravRathod674/OtakuRealm/provider"
	"github.com/gauravRathod674/OtakuRealm/source"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoPlayer is returned when the episode page rendered without a player frame.
	ErrNoPlayer = errors.New("no player source found")

	// ErrNoImages is returned when a chapter page rendered without images.
	ErrNoImages = errors.New("no images found")
)

// InvalidInputError reports a request parameter that cannot be served.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// MetadataSource completes read history entries.
type MetadataSource interface {
	Metadata(ctx context.Context, title string) (mangadex.Metadata, error)
}

type Config struct {
	AggregateWorkers int
	SearchWorkers    int

	// SearchMaxPages caps the result pages fetched per search. Zero means all.
	SearchMaxPages int

	SaveOnWatch bool
}

type Service struct {
	pipe     *pipeline.Pipeline
	branches *aggregate.Aggregator
	pages    *aggregate.Aggregator
	history  *history.Store
	metadata MetadataSource
	config   Config
}

func New(pipe *pipeline.Pipeline, store *history.Store, metadata MetadataSource, config Config) *Service {
	return &Service{
		pipe:     pipe,
		branches: aggregate.New(config.AggregateWorkers),
		pages:    aggregate.New(config.SearchWorkers),
		history:  store,
		metadata: metadata,
		config:   config,
	}
}

// History returns the store of watch and read entries.
func (s *Service) History() *history.Store {
	return s.history
}

// get runs the pipeline of kind for url, cached under k.
func (s *Service) get(ctx context.Context, kind source.Kind, k source.Key, url string) (source.Record, error) {
	p, ok := provider.Get(kind)
	if !ok {
		return nil, fmt.Errorf("no provider for %s", kind)
	}

	return s.pipe.Get(ctx, p.Request(k, url))
}
