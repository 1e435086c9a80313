package recommend

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// MangaProfile is the dominant reading taste of one user.
type MangaProfile struct {
	Genres     []string `json:"genres"`
	GenreCodes []string `json:"genre_codes"`
}

// DeriveManga builds the reading profile of entries from their three most read genres.
func DeriveManga(entries []Entry) MangaProfile {
	var genres counter

	for _, e := range entries {
		for _, g := range e.Genres {
			if g = normalize(g); g != "" {
				genres.add(g)
			}
		}
	}

	profile := MangaProfile{Genres: genres.top(TopGenres)}
	profile.GenreCodes = lo.FilterMap(profile.Genres, func(g string, _ int) (string, bool) {
		return MangaGenreCode(g)
	})

	return profile
}

// Empty reports whether no genre of p maps to a listing code.
func (p MangaProfile) Empty() bool {
	return len(p.GenreCodes) == 0
}

// Params returns the listing filter of p.
func (p MangaProfile) Params() url.Values {
	return url.Values{
		"sort":   {"most-viewed"},
		"genres": {strings.Join(p.GenreCodes, ",")},
	}
}

// MangaGenreCode returns the manga listing filter code of a genre name.
func MangaGenreCode(name string) (string, bool) {
	code, ok := mangaGenreCodes[normalize(name)]
	return code, ok
}
