package source

// Kind names one type of upstream page the pipeline knows how to fetch, parse and cache.
// It also names the parser and the cache directory of that page family.
type Kind string

const (
	KindAnimeDetail     Kind = "anime-detail"
	KindAnimeLookup     Kind = "anime-lookup"
	KindVideoServers    Kind = "video-servers"
	KindIframeSource    Kind = "iframe-source"
	KindSearchResults   Kind = "search-results"
	KindSearchPage      Kind = "search-page"
	KindMangaLookup     Kind = "manga-lookup"
	KindMangaDetail     Kind = "manga-detail"
	KindReadImages      Kind = "read-images"
	KindRecommendations Kind = "recommendations"
	KindHome            Kind = "home"

	KindMangaHome            Kind = "manga-home"
	KindMangaRecommendations Kind = "manga-recommendations"
)

// Kinds lists every resource kind.
func Kinds() []Kind {
	return []Kind{
		KindAnimeDetail,
		KindAnimeLookup,
		KindVideoServers,
		KindIframeSource,
		KindSearchResults,
		KindSearchPage,
		KindMangaLookup,
		KindMangaDetail,
		KindReadImages,
		KindRecommendations,
		KindHome,
		KindMangaHome,
		KindMangaRecommendations,
	}
}

func (k Kind) String() string {
	return string(k)
}

// TTLClass governs whether a cached record can go stale.
type TTLClass string

const (
	// Permanent records never expire; only manual deletion removes them.
	Permanent TTLClass = "permanent"

	// ShortLived records are a miss once their age exceeds the kind's window.
	ShortLived TTLClass = "short_lived"
)
