package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/internal/aggregate"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/recommend"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Branch names of the read aggregate.
const (
	BranchImages      = "images"
	BranchMangaDetail = "manga_detail"
)

func (s *Service) mangaLookup(ctx context.Context, title string) (source.Record, error) {
	k := source.NewKey(source.KindMangaLookup, title)
	return s.get(ctx, source.KindMangaLookup, k, source.MangaParkSearchURL(title))
}

func (s *Service) mangaDetailAt(ctx context.Context, detailURL string) (source.Record, error) {
	return s.get(ctx, source.KindMangaDetail, source.NewExactKey(source.KindMangaDetail, detailURL), detailURL)
}

// MangaDetail resolves title on mangapark and returns its title page.
func (s *Service) MangaDetail(ctx context.Context, title string) (source.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("manga_title", "must not be empty")
	}

	found, err := s.mangaLookup(ctx, title)
	if err != nil {
		return nil, err
	}

	if found.IsNotFound() {
		return found, nil
	}

	return s.mangaDetailAt(ctx, found.String("detail_url"))
}

// resolveReadPath turns a chapter url, a read path or a bare manga title into
// a read path. Titles resolve to their latest chapter.
func (s *Service) resolveReadPath(ctx context.Context, target string) (string, source.Record, error) {
	target = strings.TrimSpace(target)

	switch {
	case strings.HasPrefix(target, source.MangaParkTitlePrefix):
		return source.ReadPath(target), nil, nil
	case strings.Contains(strings.Trim(target, "/"), "/"):
		return strings.Trim(target, "/"), nil, nil
	}

	found, err := s.mangaLookup(ctx, target)
	if err != nil {
		return "", nil, err
	}

	if found.IsNotFound() {
		return "", found, nil
	}

	latest := found.String("latest_chapter_url")
	if latest == "" {
		return "", source.NotFound("no chapters found"), nil
	}

	return source.ReadPath(latest), nil, nil
}

func (s *Service) chapterImages(ctx context.Context, readPath string) (source.Record, error) {
	record, err := s.get(ctx, source.KindReadImages, source.NewExactKey(source.KindReadImages, readPath), source.MangaParkReadURL(readPath))
	if err != nil {
		return nil, err
	}

	if len(record.Strings("images")) == 0 {
		return nil, fmt.Errorf("%s: %w", readPath, ErrNoImages)
	}

	return record, nil
}

// Read returns the page images of a chapter along with the chapter list and
// cover of its manga. The manga detail is best effort.
func (s *Service) Read(ctx context.Context, target string) (source.Record, error) {
	if strings.TrimSpace(target) == "" {
		return nil, invalid("target", "must not be empty")
	}

	readPath, notFound, err := s.resolveReadPath(ctx, target)
	if err != nil {
		return nil, err
	}

	if notFound != nil {
		return notFound, nil
	}

	slug, _, _ := strings.Cut(readPath, "/")

	result, err := s.branches.Run(ctx,
		aggregate.Branch{
			Name:    BranchImages,
			Primary: true,
			Run: func(ctx context.Context) (source.Record, error) {
				return s.chapterImages(ctx, readPath)
			},
		},
		aggregate.Branch{
			Name: BranchMangaDetail,
			Run: func(ctx context.Context) (source.Record, error) {
				return s.mangaDetailAt(ctx, source.MangaParkReadURL(slug))
			},
		},
	)
	if err != nil {
		return nil, err
	}

	manga, chapter := source.ReadLabels(readPath)
	detail := result.Record(BranchMangaDetail)

	record := source.Record{
		"images":          result.Record(BranchImages).Strings("images"),
		"manga_title":     lo.CoalesceOrEmpty(detail.Record("image").String("title"), manga),
		"chapter":         chapter,
		"resolved_path":   readPath,
		"chapters":        lo.CoalesceSliceOrEmpty(detail.Records("chapters"), []source.Record{}),
		"cover_image_url": detail.Record("image").String("src"),
		"genres":          lo.CoalesceSliceOrEmpty(detail.Strings("genres"), []string{}),
	}

	if failed := result.Failed(); len(failed) > 0 {
		record.MarkPartial(failed...)
	}

	return record, nil
}

// ReadPath resolves title to the read path of a chapter worth opening first,
// together with its chapter list. Failures are reported in the record.
func (s *Service) ReadPath(ctx context.Context, title string) (source.Record, error) {
	failure := func(msg string) source.Record {
		return source.Record{"success": false, "error": msg}
	}

	detail, err := s.MangaDetail(ctx, title)
	if err != nil {
		return nil, err
	}

	if detail.IsNotFound() {
		return failure("manga not found"), nil
	}

	chapters := detail.Records("chapters")
	if len(chapters) == 0 {
		return failure("no chapters found"), nil
	}

	return source.Record{
		"success":         true,
		"read_path":       source.ReadPath(chapters[0].String("url")),
		"chapters":        chapters,
		"cover_image_url": detail.Record("image").String("src"),
		"genres":          lo.CoalesceSliceOrEmpty(detail.Strings("genres"), []string{}),
	}, nil
}

// SaveReadHistory records reading progress for user. Missing cover and genres
// are looked up on MangaDex.
func (s *Service) SaveReadHistory(ctx context.Context, user mo.Option[string], entry history.ReadEntry) (source.Record, error) {
	if user.IsAbsent() {
		return nil, history.ErrGuest
	}

	switch {
	case strings.TrimSpace(entry.MangaTitle) == "":
		return nil, invalid("manga_title", "must not be empty")
	case strings.TrimSpace(entry.ChapterName) == "":
		return nil, invalid("chapter_name", "must not be empty")
	}

	if entry.TotalPages <= 0 {
		return source.Record{"success": false, "message": "total pages is zero; progress not saved"}, nil
	}

	if s.metadata != nil && (entry.CoverImageURL == "" || len(entry.Genres) == 0) {
		meta, err := s.metadata.Metadata(ctx, entry.MangaTitle)
		if err != nil {
			log.WithFields(log.Fields{"title": entry.MangaTitle}).Warnf("manga metadata: %s", err)
		} else {
			entry.CoverImageURL = lo.CoalesceOrEmpty(entry.CoverImageURL, meta.CoverImageURL)
			if len(entry.Genres) == 0 {
				entry.Genres = meta.Genres
			}
		}
	}

	saved, err := s.history.SaveRead(user, entry)
	if err != nil {
		return nil, err
	}

	return source.Record{
		"success": true,
		"message": "read history saved",
		"data":    saved,
	}, nil
}

// MangaHome returns the manganow landing page. Signed-in users also get their
// unfinished chapters and, when their read genres map to listing codes,
// titles they have not read yet.
func (s *Service) MangaHome(ctx context.Context, user mo.Option[string]) (source.Record, error) {
	home, err := s.get(ctx, source.KindMangaHome, source.NewKey(source.KindMangaHome, "home"), source.MangaNowHomeURL)
	if err != nil {
		return nil, err
	}

	home = home.Clone()
	home["continue_reading"] = nil

	id, ok := user.Get()
	if !ok {
		return home, nil
	}

	unfinished, err := s.history.ContinueReading(user)
	if err != nil {
		return nil, err
	}
	home["continue_reading"] = unfinished

	recs, err := s.mangaRecommendations(ctx, user, id)
	if err != nil {
		log.WithFields(log.Fields{"user": id}).Warnf("manga recommendations: %s", err)
		return home, nil
	}

	if len(recs) > 0 {
		home["personal_recommendations"] = recs
	}

	return home, nil
}

func (s *Service) mangaRecommendations(ctx context.Context, user mo.Option[string], id string) ([]source.Record, error) {
	read, err := s.history.ReadHistory(user)
	if err != nil {
		return nil, err
	}

	profile := recommend.DeriveManga(lo.Map(read, func(r *history.ReadEntry, _ int) recommend.Entry {
		return recommend.Entry{Title: r.MangaTitle, Genres: r.Genres}
	}))
	if profile.Empty() {
		return nil, nil
	}

	params := profile.Params()
	k := source.NewExactKey(source.KindMangaRecommendations, id).WithFilters(params)

	listing, err := s.get(ctx, source.KindMangaRecommendations, k, source.MangaNowFilterURL(params))
	if err != nil {
		return nil, err
	}

	titles := lo.Map(read, func(r *history.ReadEntry, _ int) string { return r.MangaTitle })
	return recommend.Pick(listing.Records("recommendations"), titles), nil
}
