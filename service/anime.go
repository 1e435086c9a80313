package service

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/internal/aggregate"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/provider"
	"github.com/gauravRathod674/OtakuRealm/query"
	"github.com/gauravRathod674/OtakuRealm/recommend"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/gauravRathod674/OtakuRealm/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Branch names of the watch aggregate.
const (
	BranchIframe       = "iframe_src"
	BranchVideoDetails = "video_details"
	BranchAnimeDetail  = "anime_detail"
)

var episodePattern = regexp.MustCompile(`/ep-(?P<episode>\d+)`)

// AnimeDetail returns the kaido detail page of pathname, e.g. "/attack-on-titan-112".
func (s *Service) AnimeDetail(ctx context.Context, pathname string) (source.Record, error) {
	slug := strings.Trim(strings.TrimSpace(pathname), "/")
	if slug == "" {
		return nil, invalid("pathname", "must not be empty")
	}

	return s.get(ctx, source.KindAnimeDetail, source.NewExactKey(source.KindAnimeDetail, slug), source.KaidoURL(slug))
}

// lookup resolves title and type to the watch url of the best animesuge match.
func (s *Service) lookup(ctx context.Context, title, animeType string) (source.Record, error) {
	k := source.NewKey(source.KindAnimeLookup, title, animeType)
	return s.get(ctx, source.KindAnimeLookup, k, source.AnimeSugeLookupURL(title, animeType))
}

// iframe renders the episode page, selects server and returns the player source.
func (s *Service) iframe(ctx context.Context, episodeURL, category, server string) (source.Record, error) {
	p, _ := provider.Get(source.KindIframeSource)

	req := p.Request(source.NewExactKey(source.KindIframeSource, episodeURL, category, server), episodeURL)
	req.Target.Interact = provider.IframeInteraction(category, server)

	record, err := s.pipe.Get(ctx, req)
	if err != nil {
		return nil, err
	}

	if record.String("iframe_src") == "" {
		return nil, fmt.Errorf("%s: %w", episodeURL, ErrNoPlayer)
	}

	return record, nil
}

func (s *Service) videoServers(ctx context.Context, episodeURL string) (source.Record, error) {
	return s.get(ctx, source.KindVideoServers, source.NewExactKey(source.KindVideoServers, episodeURL), episodeURL)
}

// WatchRequest identifies one episode by its kaido slug and its title and type.
type WatchRequest struct {
	Slug    string
	Episode string
	Title   string
	Type    string
}

// EpisodeNumber parses "ep-12" or "12". Anything else is episode 1.
func EpisodeNumber(episode string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(episode), "ep-"))
	if err != nil || n < 1 {
		return 1
	}

	return n
}

// Watch resolves an episode and gathers its player source, server listing and
// anime detail concurrently. Only a missing player fails the call.
func (s *Service) Watch(ctx context.Context, user mo.Option[string], req WatchRequest) (source.Record, error) {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return nil, invalid("title", "must not be empty")
	case strings.Trim(req.Slug, "/ ") == "":
		return nil, invalid("slug", "must not be empty")
	case !source.ValidAnimeType(req.Type):
		return nil, invalid("anime_type", "must be one of "+strings.Join(source.AnimeTypes, ", "))
	}

	found, err := s.lookup(ctx, req.Title, req.Type)
	if err != nil {
		return nil, err
	}

	if found.IsNotFound() {
		return found, nil
	}

	episode := EpisodeNumber(req.Episode)
	episodeURL := source.EpisodeURL(found.String("watch_url"), episode)

	result, err := s.branches.Run(ctx,
		aggregate.Branch{
			Name:    BranchIframe,
			Primary: true,
			Run: func(ctx context.Context) (source.Record, error) {
				return s.iframe(ctx, episodeURL, provider.DefaultCategory, provider.DefaultServer)
			},
		},
		aggregate.Branch{
			Name: BranchVideoDetails,
			Run: func(ctx context.Context) (source.Record, error) {
				return s.videoServers(ctx, episodeURL)
			},
		},
		aggregate.Branch{
			Name: BranchAnimeDetail,
			Run: func(ctx context.Context) (source.Record, error) {
				return s.AnimeDetail(ctx, req.Slug)
			},
		},
	)
	if err != nil {
		return nil, err
	}

	detail := result.Record(BranchAnimeDetail)
	record := source.Record{
		"iframe_src":             result.Record(BranchIframe).String("iframe_src"),
		"video_details":          result.Record(BranchVideoDetails),
		"anime_detail":           detail,
		"current_episode_number": episode,
		"episode_url":            episodeURL,
	}

	if failed := result.Failed(); len(failed) > 0 {
		record.MarkPartial(failed...)
	}

	if user.IsPresent() && s.config.SaveOnWatch && result.Err(BranchAnimeDetail) == nil {
		entry := history.WatchEntry{
			AnimeTitle:    lo.CoalesceOrEmpty(detail.String("title"), req.Title),
			EpisodeNumber: episode,
			CoverImageURL: detail.String("poster"),
			WatchURL:      episodeURL,
			ContentType:   detail.Record("film_stats").String("type"),
			Genres:        detail.Strings("genres"),
		}

		if _, _, err := s.history.RecordWatch(user, entry); err != nil {
			log.WithFields(log.Fields{"title": entry.AnimeTitle, "episode": episode}).Warnf("record watch: %s", err)
		}
	}

	return record, nil
}

// SwitchEpisode returns the player source of another episode of a title the
// user is already watching.
func (s *Service) SwitchEpisode(ctx context.Context, user mo.Option[string], episodeURL, title string) (source.Record, error) {
	switch {
	case strings.TrimSpace(episodeURL) == "":
		return nil, invalid("episode_url", "must not be empty")
	case strings.TrimSpace(title) == "":
		return nil, invalid("anime_title", "must not be empty")
	}

	episodeURL = source.Absolute(source.AnimeSugeBase, episodeURL)

	player, err := s.iframe(ctx, episodeURL, provider.DefaultCategory, provider.DefaultServer)
	if err != nil {
		return nil, err
	}

	episode := 1
	if groups := util.ReGroups(episodePattern, episodeURL); groups["episode"] != "" {
		episode = EpisodeNumber(groups["episode"])
	}

	if user.IsPresent() {
		latest, err := s.history.LatestWatch(user, title)
		if err != nil {
			return nil, err
		}

		previous, ok := latest.Get()
		if !ok {
			return nil, invalid("anime_title", "no previous watch history for this title")
		}

		_, _, err = s.history.RecordWatch(user, history.WatchEntry{
			AnimeTitle:    previous.AnimeTitle,
			EpisodeNumber: episode,
			CoverImageURL: previous.CoverImageURL,
			WatchURL:      episodeURL,
			ContentType:   previous.ContentType,
			Genres:        previous.Genres,
		})
		if err != nil {
			log.WithFields(log.Fields{"title": title, "episode": episode}).Warnf("record watch: %s", err)
		}
	}

	return source.Record{
		"iframe_src":             player.String("iframe_src"),
		"current_episode_number": episode,
	}, nil
}

// Search returns every result card of title under filters. The first page is
// rendered; the remaining pages are fetched concurrently over plain HTTP.
func (s *Service) Search(ctx context.Context, title string, filters url.Values) (source.Record, error) {
	title = util.Squash(title)
	if title == "" {
		return nil, invalid("anime_title", "must not be empty")
	}

	if err := query.Remember(title, 1); err != nil {
		log.Warnf("remember query: %s", err)
	}

	p, _ := provider.Get(source.KindSearchResults)
	k := source.NewKey(source.KindSearchResults, title).WithFilters(filters)

	req := p.Request(k, source.AnimeSugeSearchURL(title, 1, filters))
	req.Resource.Accept = func(record source.Record) bool {
		return len(record.Records("page_errors")) == 0
	}
	req.Then = func(ctx context.Context, first source.Record) (source.Record, error) {
		return s.remainingPages(ctx, title, filters, first)
	}

	return s.pipe.Get(ctx, req)
}

func (s *Service) remainingPages(ctx context.Context, title string, filters url.Values, first source.Record) (source.Record, error) {
	last := lastPage(first)
	if s.config.SearchMaxPages > 0 {
		last = min(last, s.config.SearchMaxPages)
	}

	pageKind, _ := provider.Get(source.KindSearchPage)

	branches := make([]aggregate.Branch, 0, max(last-1, 0))
	for page := 2; page <= last; page++ {
		target := pageKind.Target(source.AnimeSugeSearchURL(title, page, filters))
		branches = append(branches, aggregate.Branch{
			Name: strconv.Itoa(page),
			Run: func(ctx context.Context) (source.Record, error) {
				return s.pipe.Scrape(ctx, source.KindSearchPage, target)
			},
		})
	}

	cards := first.Records("cards")
	pageErrors := []source.Record{}

	if len(branches) > 0 {
		result, _ := s.pages.Run(ctx, branches...)
		for _, name := range result.Names() {
			if err := result.Err(name); err != nil {
				page, _ := strconv.Atoi(name)
				pageErrors = append(pageErrors, source.Record{"page": page, "error": err.Error()})
				continue
			}

			cards = append(cards, result.Record(name).Records("cards")...)
		}
	}

	return source.Record{
		"filters":       first["filters"],
		"cards":         cards,
		"last_page":     last,
		"pages_fetched": last - len(pageErrors),
		"page_errors":   pageErrors,
	}, nil
}

func lastPage(record source.Record) int {
	switch v := record["last_page"].(type) {
	case int:
		return max(v, 1)
	case float64:
		return max(int(v), 1)
	default:
		return 1
	}
}

// Recommendations returns up to twelve unwatched titles matching the taste of
// user. Guests get none.
func (s *Service) Recommendations(ctx context.Context, user mo.Option[string]) (source.Record, error) {
	id, ok := user.Get()
	if !ok {
		return source.Record{"recommendations": []source.Record{}}, nil
	}

	watched, err := s.history.Watched(user)
	if err != nil {
		return nil, err
	}

	profile := recommend.Derive(lo.Map(watched, func(w *history.WatchEntry, _ int) recommend.Entry {
		return recommend.Entry{Title: w.AnimeTitle, Genres: w.Genres, ContentType: w.ContentType}
	}))

	params := profile.Params()
	k := source.NewExactKey(source.KindRecommendations, id).WithFilters(params)

	listing, err := s.get(ctx, source.KindRecommendations, k, source.KaidoFilterURL(params))
	if err != nil {
		return nil, err
	}

	titles := lo.Map(watched, func(w *history.WatchEntry, _ int) string { return w.AnimeTitle })

	return source.Record{
		"recommendations": recommend.Pick(listing.Records("recommendations"), titles),
		"profile":         profile,
	}, nil
}

// Home returns the sections of the kaido home page.
func (s *Service) Home(ctx context.Context) (source.Record, error) {
	return s.get(ctx, source.KindHome, source.NewKey(source.KindHome, "home"), source.KaidoURL("/home"))
}
