package source

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	KaidoBase     = "https://kaido.to"
	AnimeSugeBase = "https://animesugetv.to"
	MangaParkBase = "https://mangapark.io"
	MangaNowBase  = "https://manganow.to"
)

// AnimeTypes are the content types accepted by the anime lookup filter.
var AnimeTypes = []string{"Movie", "Music", "ONA", "OVA", "Special", "TV"}

// ValidAnimeType reports whether t is one of AnimeTypes.
func ValidAnimeType(t string) bool {
	return slices.Contains(AnimeTypes, t)
}

// KaidoURL returns the absolute kaido url of pathname, e.g. "/attack-on-titan-112".
func KaidoURL(pathname string) string {
	return KaidoBase + "/" + strings.TrimLeft(strings.TrimSpace(pathname), "/")
}

// KaidoFilterURL returns the kaido listing filtered by params.
func KaidoFilterURL(params url.Values) string {
	return KaidoBase + "/filter?" + params.Encode()
}

// AnimeSugeLookupURL returns the animesuge filter page that ranks title matches of
// the given type by score.
func AnimeSugeLookupURL(title, animeType string) string {
	params := url.Values{
		"keyword":     {strings.ToLower(title)},
		"term_type[]": {animeType},
		"type":        {""},
		"country":     {""},
		"sort":        {"score"},
	}

	return AnimeSugeBase + "/filter?" + params.Encode()
}

// AnimeSugeSearchURL returns one page of the animesuge search for keyword.
func AnimeSugeSearchURL(keyword string, page int, filters url.Values) string {
	params := url.Values{}
	for name, values := range filters {
		params[name] = slices.Clone(values)
	}

	params.Set("keyword", keyword)
	params.Set("page", strconv.Itoa(page))

	return AnimeSugeBase + "/filter?" + params.Encode()
}

// EpisodeURL returns the watch url of episode on the series page watchURL.
func EpisodeURL(watchURL string, episode int) string {
	watchURL = Absolute(AnimeSugeBase, watchURL)
	return strings.TrimRight(watchURL, "/") + "/ep-" + strconv.Itoa(episode)
}

// MangaParkSearchURL returns the first page of the mangapark search for title.
func MangaParkSearchURL(title string) string {
	params := url.Values{
		"word": {title},
		"page": {"1"},
	}

	return MangaParkBase + "/search?" + params.Encode()
}

// MangaNowHomeURL is the manganow landing page.
const MangaNowHomeURL = MangaNowBase + "/home"

// MangaNowFilterURL returns the manganow listing filtered by params.
func MangaNowFilterURL(params url.Values) string {
	return MangaNowBase + "/filter?" + params.Encode()
}

// MangaParkTitlePrefix is the prefix every mangapark manga and chapter url shares.
const MangaParkTitlePrefix = MangaParkBase + "/title/"

// MangaParkReadURL returns the chapter page of readPath ("{manga}/{chapter}").
func MangaParkReadURL(readPath string) string {
	return MangaParkTitlePrefix + strings.Trim(readPath, "/")
}

// ReadPath strips the mangapark title prefix off a chapter url.
// Paths are returned unchanged.
func ReadPath(chapterURL string) string {
	return strings.Trim(strings.TrimPrefix(chapterURL, MangaParkTitlePrefix), "/")
}

// ReadLabels derives the display manga title and chapter name from a read path
// such as "10953-en-one-piece/9518638-vol-1-ch-1".
func ReadLabels(readPath string) (manga, chapter string) {
	segments := strings.Split(ReadPath(readPath), "/")
	if len(segments) < 2 {
		return "", ""
	}

	manga = strings.ReplaceAll(segments[0], "-", " ")
	if parts := strings.Split(segments[0], "-"); len(parts) > 2 {
		manga = strings.Join(parts[2:], " ")
	}

	chapter = strings.ReplaceAll(segments[1], "-", " ")
	if parts := strings.Split(segments[1], "-"); len(parts) > 1 {
		chapter = strings.Join(parts[1:], " ")
	}

	return manga, chapter
}

// Absolute resolves href against base. Unparseable input is returned as is.
func Absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	b, err := url.Parse(base)
	if err != nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return b.ResolveReference(ref).String()
}
