package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/query"
	"github.com/gauravRathod674/OtakuRealm/service"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

func (s *Server) respond(w http.ResponseWriter, r *http.Request, record source.Record, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.Home(r.Context())
	s.respond(w, r, record, err)
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.Recommendations(r.Context(), s.user(r))
	s.respond(w, r, record, err)
}

func (s *Server) mangaHome(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.MangaHome(r.Context(), s.user(r))
	s.respond(w, r, record, err)
}

func (s *Server) animeDetail(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.AnimeDetail(r.Context(), r.URL.Query().Get("pathname"))
	s.respond(w, r, record, err)
}

func (s *Server) watch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q := r.URL.Query()

	record, err := s.ops.Watch(r.Context(), s.user(r), service.WatchRequest{
		Slug:    vars["slug"],
		Episode: vars["episode"],
		Title:   q.Get("title"),
		Type:    q.Get("anime_type"),
	})
	s.respond(w, r, record, err)
}

func (s *Server) switchEpisode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	record, err := s.ops.SwitchEpisode(r.Context(), s.user(r), q.Get("episode_url"), q.Get("anime_title"))
	s.respond(w, r, record, err)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := appliedFilters(q.Get("applied_filters"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := s.ops.Search(r.Context(), q.Get("anime_title"), filters)
	s.respond(w, r, record, err)
}

// appliedFilters reads a JSON object such as {"genre[]": ["1", "4"], "sort": "score"}.
func appliedFilters(raw string) (url.Values, error) {
	filters := url.Values{}
	if strings.TrimSpace(raw) == "" {
		return filters, nil
	}

	parsed := gjson.Parse(raw)
	if !gjson.Valid(raw) || !parsed.IsObject() {
		return nil, &service.InvalidInputError{Field: "applied_filters", Reason: "must be a JSON object"}
	}

	parsed.ForEach(func(name, value gjson.Result) bool {
		if value.IsArray() {
			for _, v := range value.Array() {
				filters.Add(name.String(), v.String())
			}
		} else {
			filters.Add(name.String(), value.String())
		}
		return true
	})

	return filters, nil
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"suggestions": query.SuggestMany(r.URL.Query().Get("q")),
	})
}

func (s *Server) mangaDetail(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.MangaDetail(r.Context(), mux.Vars(r)["title"])
	s.respond(w, r, record, err)
}

func (s *Server) readPage(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.Read(r.Context(), readTarget(r.URL.Query().Get("full_url")))
	s.respond(w, r, record, err)
}

// readTarget strips a front-end "/read/" route off fullURL, leaving a read
// path or a title. Mangapark urls pass through.
func readTarget(fullURL string) string {
	if strings.HasPrefix(fullURL, source.MangaParkBase) {
		return fullURL
	}

	target := fullURL
	if u, err := url.Parse(fullURL); err == nil && u.Path != "" {
		target = u.Path
	}

	if _, after, ok := strings.Cut(target, "/read/"); ok {
		target = after
	}

	return strings.Trim(target, "/")
}

func (s *Server) readPath(w http.ResponseWriter, r *http.Request) {
	record, err := s.ops.ReadPath(r.Context(), r.URL.Query().Get("title"))
	s.respond(w, r, record, err)
}

func (s *Server) saveReadHistory(w http.ResponseWriter, r *http.Request) {
	var entry history.ReadEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, r, &service.InvalidInputError{Field: "body", Reason: fmt.Sprintf("decode: %s", err)})
		return
	}

	record, err := s.ops.SaveReadHistory(r.Context(), s.user(r), entry)
	s.respond(w, r, record, err)
}

func (s *Server) watchHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Watched(s.user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.CoalesceSliceOrEmpty(entries, []*history.WatchEntry{}))
}

func (s *Server) deleteWatchHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.DeleteWatch(s.user(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "watch history entry deleted"})
}

func (s *Server) clearWatchHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.ClearWatch(s.user(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "watch history cleared"})
}

func (s *Server) readHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.ReadHistory(s.user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.CoalesceSliceOrEmpty(entries, []*history.ReadEntry{}))
}

func (s *Server) continueReading(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.ContinueReading(s.user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.CoalesceSliceOrEmpty(entries, []*history.ReadEntry{}))
}

func (s *Server) deleteReadHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.DeleteRead(s.user(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "read history entry deleted"})
}

func (s *Server) clearReadHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.ClearRead(s.user(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "read history cleared"})
}
