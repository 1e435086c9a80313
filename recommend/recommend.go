// Package recommend derives a viewing profile from watch history and turns it
// into a filtered listing of titles the user has not watched yet.
package recommend

import (
	"net/url"
	"slices"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
)

const (
	// Limit caps the number of recommended titles.
	Limit = 12

	TopGenres = 3

	// DefaultTypeCode is TV.
	DefaultTypeCode = "2"
)

// Entry is the part of a watch history entry a profile is built from.
type Entry struct {
	Title       string
	Genres      []string
	ContentType string
}

// Profile is the dominant taste of one user.
type Profile struct {
	Genres     []string `json:"genres"`
	GenreCodes []string `json:"genre_codes"`
	Type       string   `json:"type"`
	TypeCode   string   `json:"type_code"`
}

// Derive builds the profile of entries: the three most watched genres and the
// most watched content type. Ties go to the first seen.
func Derive(entries []Entry) Profile {
	var genres, types counter

	for _, e := range entries {
		if t := normalize(e.ContentType); t != "" {
			types.add(t)
		}

		for _, g := range e.Genres {
			if g = normalize(g); g != "" {
				genres.add(g)
			}
		}
	}

	profile := Profile{
		Genres:   genres.top(TopGenres),
		TypeCode: DefaultTypeCode,
	}

	profile.GenreCodes = lo.FilterMap(profile.Genres, func(g string, _ int) (string, bool) {
		return GenreCode(g)
	})

	if top := types.top(1); len(top) > 0 {
		profile.Type = top[0]
		profile.TypeCode = lo.ValueOr(typeCodes, top[0], DefaultTypeCode)
	}

	return profile
}

// Params returns the listing filter of p.
func (p Profile) Params() url.Values {
	params := url.Values{
		"type": {p.TypeCode},
		"sort": {"most_watched"},
	}

	if len(p.GenreCodes) > 0 {
		params.Set("genres", strings.Join(p.GenreCodes, ","))
	}

	return params
}

// Pick drops the cards whose title was already watched and keeps at most Limit of the rest.
func Pick(cards []source.Record, watched []string) []source.Record {
	seen := lo.SliceToMap(watched, func(title string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(title)), struct{}{}
	})

	picked := lo.Reject(cards, func(card source.Record, _ int) bool {
		_, ok := seen[strings.ToLower(strings.TrimSpace(card.String("title")))]
		return ok
	})

	if len(picked) > Limit {
		picked = picked[:Limit]
	}

	return picked
}

// GenreCode returns the listing filter code of a genre name.
func GenreCode(name string) (string, bool) {
	code, ok := genreCodes[normalize(name)]
	return code, ok
}

// TypeCode returns the listing filter code of a content type.
func TypeCode(name string) (string, bool) {
	code, ok := typeCodes[normalize(name)]
	return code, ok
}

// normalize lowercases s and folds the non-breaking hyphen some pages use into '-'.
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "‑", "-")
}

type counter struct {
	order  []string
	counts map[string]int
}

func (c *counter) add(s string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}

	if _, ok := c.counts[s]; !ok {
		c.order = append(c.order, s)
	}
	c.counts[s]++
}

func (c *counter) top(n int) []string {
	sorted := slices.Clone(c.order)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}
