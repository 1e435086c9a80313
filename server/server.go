// Package server exposes the service operations and user history over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/metrics"
	"github.com/gauravRathod674/OtakuRealm/service"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/gorilla/mux"
	"github.com/samber/mo"
)

// Operations are the composite reads served by the API.
type Operations interface {
	Home(ctx context.Context) (source.Record, error)
	AnimeDetail(ctx context.Context, pathname string) (source.Record, error)
	Watch(ctx context.Context, user mo.Option[string], req service.WatchRequest) (source.Record, error)
	SwitchEpisode(ctx context.Context, user mo.Option[string], episodeURL, title string) (source.Record, error)
	Search(ctx context.Context, title string, filters url.Values) (source.Record, error)
	Recommendations(ctx context.Context, user mo.Option[string]) (source.Record, error)
	MangaHome(ctx context.Context, user mo.Option[string]) (source.Record, error)
	MangaDetail(ctx context.Context, title string) (source.Record, error)
	Read(ctx context.Context, target string) (source.Record, error)
	ReadPath(ctx context.Context, title string) (source.Record, error)
	SaveReadHistory(ctx context.Context, user mo.Option[string], entry history.ReadEntry) (source.Record, error)
}

var _ Operations = (*service.Service)(nil)

// HistoryStore lists and removes the entries of a user.
type HistoryStore interface {
	Watched(user mo.Option[string]) ([]*history.WatchEntry, error)
	DeleteWatch(user mo.Option[string], id string) error
	ClearWatch(user mo.Option[string]) error
	ReadHistory(user mo.Option[string]) ([]*history.ReadEntry, error)
	ContinueReading(user mo.Option[string]) ([]*history.ReadEntry, error)
	DeleteRead(user mo.Option[string], id string) error
	ClearRead(user mo.Option[string]) error
}

var _ HistoryStore = (*history.Store)(nil)

type Options struct {
	// IdentityHeader carries the id of the authenticated user.
	// Requests without it are served as a guest.
	IdentityHeader string

	Metrics bool
}

type Server struct {
	ops     Operations
	history HistoryStore
	options Options
	router  *mux.Router
}

func New(ops Operations, store HistoryStore, options Options) *Server {
	if options.IdentityHeader == "" {
		options.IdentityHeader = "X-User-ID"
	}

	s := &Server{ops: ops, history: store, options: options, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestID, accessLog)

	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.HandleFunc("/personal-recommendations", s.recommendations).Methods(http.MethodGet)
	r.HandleFunc("/watch/{slug}/{episode}", s.watch).Methods(http.MethodGet)
	r.HandleFunc("/temp/switch_episode", s.switchEpisode).Methods(http.MethodGet)
	r.HandleFunc("/suggestions", s.suggestions).Methods(http.MethodGet)
	r.HandleFunc("/mangahome", s.mangaHome).Methods(http.MethodGet)

	scrape := r.PathPrefix("/scrape").Subrouter()
	scrape.HandleFunc("/kaido-detail", s.animeDetail).Methods(http.MethodGet)
	scrape.HandleFunc("/manga-detail/{title}", s.mangaDetail).Methods(http.MethodGet)
	scrape.HandleFunc("/read-page", s.readPage).Methods(http.MethodGet)
	scrape.HandleFunc("/get-read-path", s.readPath).Methods(http.MethodGet)
	scrape.HandleFunc("/search", s.search).Methods(http.MethodGet)

	r.HandleFunc("/auth/read-history", s.saveReadHistory).Methods(http.MethodPost)

	// clear routes first, "clear" would otherwise match {id}
	r.HandleFunc("/watch_history", s.watchHistory).Methods(http.MethodGet)
	r.HandleFunc("/temp/watch_history/clear", s.clearWatchHistory).Methods(http.MethodDelete)
	r.HandleFunc("/temp/watch_history/{id}", s.deleteWatchHistory).Methods(http.MethodDelete)
	r.HandleFunc("/read_history", s.readHistory).Methods(http.MethodGet)
	r.HandleFunc("/clear_history/read_history/clear", s.clearReadHistory).Methods(http.MethodDelete)
	r.HandleFunc("/delete_item/read_history/{id}", s.deleteReadHistory).Methods(http.MethodDelete)
	r.HandleFunc("/continue_reading", s.continueReading).Methods(http.MethodGet)

	if s.options.Metrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// user reads the caller identity. Absent means guest.
func (s *Server) user(r *http.Request) mo.Option[string] {
	return mo.EmptyableToOption(r.Header.Get(s.options.IdentityHeader))
}

// ListenAndServe serves on address until ctx is done, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", address)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}

		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}
