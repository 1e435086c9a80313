package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
)

func init() {
	register(
		Family{Kind: source.KindAnimeDetail, Anchor: "#ani_detail", Extract: animeDetail},
		Family{Kind: source.KindRecommendations, Anchor: "div.film_list-wrap", Extract: recommendations},
		Family{Kind: source.KindHome, Anchor: "#anime-trending, div.deslide-wrap", Extract: home},
	)
}

func animeDetail(p *Page) source.Record {
	root := p.Root

	description, _ := root.Find(".film-description .text").First().Html()

	r := source.Record{
		"title":          text(root.Find(".film-name")),
		"poster":         attr(root.Find(".film-poster img"), "src"),
		"background":     styleURL(attr(p.Doc.Find(".anis-cover-wrap .anis-cover"), "style")),
		"description":    strings.TrimSpace(description),
		"film_stats":     filmStats(p.Optional("film_stats", root.Find(".film-stats"))),
		"japanese_title": "",
		"synonyms":       []string{},
		"aired":          "",
		"premiered":      "",
		"duration":       "",
		"status":         "",
		"score":          "",
		"studios":        []string{},
		"producers":      []string{},
		"genres":         texts(root.Find(".anisc-info .item-list a")),
	}

	root.Find(".anisc-info .item-title").Each(func(_ int, item *goquery.Selection) {
		head := strings.TrimSuffix(text(item.Find(".item-head")), ":")
		value := text(item.Find(".name"))

		switch head {
		case "Japanese":
			r["japanese_title"] = value
		case "Synonyms":
			r["synonyms"] = lo.Compact(lo.Map(strings.Split(value, ","), func(s string, _ int) string {
				return strings.TrimSpace(s)
			}))
		case "Aired":
			r["aired"] = value
		case "Premiered":
			r["premiered"] = value
		case "Duration":
			r["duration"] = value
		case "Status":
			r["status"] = value
		case "MAL Score":
			r["score"] = value
		case "Studios":
			r["studios"] = texts(item.Find("a"))
		case "Producers":
			r["producers"] = texts(item.Find("a"))
		}
	})

	r["characters"] = each(p.Optional("characters", p.Doc.Find(".block_area-actors .bac-item")), character)

	r["trailers"] = each(p.Doc.Find(".block_area-promotions .item"), func(s *goquery.Selection) source.Record {
		return source.Record{
			"title":     strings.TrimSpace(s.AttrOr("data-title", "")),
			"video_url": strings.TrimSpace(s.AttrOr("data-src", "")),
			"thumbnail": attr(s.Find(".screen-item-thumbnail img"), "src"),
		}
	})

	r["more_seasons"] = each(p.Doc.Find(".block_area-seasons .os-item"), func(s *goquery.Selection) source.Record {
		return source.Record{
			"title":  text(s.Find(".title")),
			"url":    attr(s, "href"),
			"poster": styleURL(attr(s.Find(".season-poster"), "style")),
		}
	})

	related := p.Doc.Find("div.block_area-content > div.cbox.cbox-list.cbox-realtime.cbox-collapse div.anif-block-ul ul li")
	r["related_anime"] = each(related, func(s *goquery.Selection) source.Record {
		link := s.Find("div.film-detail h3.film-name a")
		item := source.Record{
			"title":  text(link),
			"url":    attr(link, "href"),
			"poster": attr(s.Find("div.film-poster img"), "data-src", "src"),
		}
		for k, v := range tickStats(s.Find("div.film-detail div.fd-infor div.tick")) {
			item[k] = v
		}
		return item
	})

	r["recommended_anime"] = each(p.Doc.Find(".block_area_category .flw-item"), func(s *goquery.Selection) source.Record {
		link := s.Find(".film-detail .film-name a")
		info := s.Find("div.film-detail div.fd-infor")

		var kind string
		info.Find("span.fdi-item").Not(".fdi-duration").EachWithBreak(func(_ int, span *goquery.Selection) bool {
			if t := text(span); !strings.Contains(t, "m") {
				kind = t
				return false
			}
			return true
		})

		tick := s.Find("div.film-poster div.tick")
		return source.Record{
			"title":     text(link),
			"url":       attr(link, "href"),
			"poster":    attr(s.Find(".film-poster img"), "data-src", "src"),
			"rate":      text(s.Find("div.film-poster div.tick.tick-rate")),
			"subtitles": text(tick.Find("div.tick-item.tick-sub")),
			"dubbing":   text(tick.Find("div.tick-item.tick-dub")),
			"episodes":  text(tick.Find("div.tick-item.tick-eps")),
			"type":      kind,
			"runtime":   text(info.Find("span.fdi-item.fdi-duration")),
		}
	})

	return r
}

func filmStats(stats *goquery.Selection) source.Record {
	r := source.Record{}

	stats.Find("div.tick .tick-item").Each(func(_ int, tick *goquery.Selection) {
		switch {
		case tick.HasClass("tick-pg"):
			r["rating"] = text(tick)
		case tick.HasClass("tick-quality"):
			r["quality"] = text(tick)
		case tick.HasClass("tick-sub"):
			r["subtitles"] = text(tick)
		case tick.HasClass("tick-dub"):
			r["dubbing"] = text(tick)
		}
	})

	if items := stats.Find("span.item"); items.Length() >= 2 {
		r["type"] = text(items.Eq(0))
		r["runtime"] = text(items.Eq(1))
	}

	return r
}

var digits = regexp.MustCompile(`^\d+$`)

// tickStats reads a tick container of a related-anime row. The type is the
// last non-numeric text fragment.
func tickStats(tick *goquery.Selection) source.Record {
	r := source.Record{"subtitles": "", "dubbing": "", "episodes": "", "type": ""}
	if tick.Length() == 0 {
		return r
	}

	r["subtitles"] = text(tick.Find("div.tick-item.tick-sub"))
	r["dubbing"] = text(tick.Find("div.tick-item.tick-dub"))
	r["episodes"] = text(tick.Find("div.tick-item.tick-eps"))

	fragments := lo.Reject(textFragments(tick), func(t string, _ int) bool {
		return digits.MatchString(t)
	})
	if n := len(fragments); n > 0 {
		r["type"] = fragments[n-1]
	}

	return r
}

func character(s *goquery.Selection) source.Record {
	ltr := s.Find(".per-info.ltr")
	rtl := s.Find(".per-info.rtl")

	r := source.Record{
		"character":   text(ltr.Find("h4.pi-name a")),
		"char_img":    attr(ltr.Find("a.pi-avatar img"), "data-src"),
		"role":        text(ltr.Find("span.pi-cast")),
		"voice_actor": "Unknown",
		"va_img":      "",
		"nationality": "Unknown",
	}

	if name := text(rtl.Find("h4.pi-name a")); name != "" {
		r["voice_actor"] = name
	}
	r["va_img"] = attr(rtl.Find("a.pi-avatar img"), "data-src")
	if nationality := text(rtl.Find("span.pi-cast")); nationality != "" {
		r["nationality"] = nationality
	}

	return r
}

// recommendations parses a kaido filter listing into cards.
// Filtering out watched titles is left to the caller.
func recommendations(p *Page) source.Record {
	cards := each(p.Root.Find(".flw-item"), func(s *goquery.Selection) source.Record {
		link := s.Find("h3.film-name a.dynamic-name")
		if link.Length() == 0 {
			return nil
		}

		infos := s.Find("span.fdi-item")
		return source.Record{
			"title":             text(link),
			"url":               attr(link, "href"),
			"cover":             attr(s.Find("img.film-poster-img"), "data-src", "src"),
			"is_adult":          s.Find("div.tick-rate").Length() > 0,
			"subtitle_episodes": text(s.Find(".tick-sub")),
			"dubbing_episodes":  text(s.Find(".tick-dub")),
			"total_episodes":    text(s.Find(".tick-eps")),
			"type":              text(infos.Eq(0)),
			"runtime":           text(infos.Eq(1)),
		}
	})

	return source.Record{"recommendations": cards}
}

func home(p *Page) source.Record {
	doc := p.Doc

	return source.Record{
		"image_slider":        each(p.Optional("image_slider", doc.Find("div.deslide-wrap #slider .swiper-slide")), slide),
		"trending_anime":      each(p.Optional("trending_anime", doc.Find("#anime-trending .swiper-slide.item-qtip")), trending),
		"top_sections":        topSections(doc.Find("div.col-xl-3.col-lg-6.col-md-6.col-sm-12.col-xs-12")),
		"latest_new_upcoming": homeBlocks(doc.Find("section.block_area.block_area_home")),
		"genres": each(doc.Find("ul.sidebar_menu-list li a.nav-link"), func(s *goquery.Selection) source.Record {
			return source.Record{"name": text(s), "url": attr(s, "href")}
		}),
		"most_viewed": mostViewed(doc),
	}
}

func slide(s *goquery.Selection) source.Record {
	content := s.Find(".deslide-item .deslide-item-content")

	stats := source.Record{}
	if tick := content.Find(".sc-detail .tick"); tick.Length() > 0 {
		stats["subtitles"] = text(tick.Find(".tick-item.tick-sub"))
		stats["dubbing"] = text(tick.Find(".tick-item.tick-dub"))
		stats["episodes"] = text(tick.Find(".tick-item.tick-eps"))
	}
	if items := content.Find(".sc-detail .scd-item"); items.Length() >= 2 {
		stats["type"] = text(items.Eq(0))
		stats["runtime"] = text(items.Eq(1))
	}

	return source.Record{
		"spotlight":   text(content.Find(".desi-sub-text")),
		"title":       text(content.Find(".desi-head-title")),
		"poster":      attr(s.Find(".deslide-item .deslide-cover .deslide-cover-img img"), "data-src", "src"),
		"detail_url":  attr(s.Find(".desi-buttons a.btn-secondary"), "href"),
		"description": text(content.Find(".desi-description")),
		"film_stats":  stats,
	}
}

func trending(s *goquery.Selection) source.Record {
	return source.Record{
		"number": text(s.Find(".number span")),
		"title":  text(s.Find(".film-title.dynamic-name")),
		"poster": attr(s.Find("a.film-poster img"), "data-src", "src"),
		"url":    attr(s.Find("a.film-poster"), "href"),
	}
}

var nonLetters = regexp.MustCompile(`[^a-zA-Z]`)

func topSections(sections *goquery.Selection) []source.Record {
	return each(sections, func(section *goquery.Selection) source.Record {
		anime := each(section.Find("li"), func(li *goquery.Selection) source.Record {
			link := li.Find("a.dynamic-name")
			return source.Record{
				"image_url":   attr(li.Find("img.film-poster-img"), "data-src"),
				"anime_title": text(link),
				"url":         attr(link, "href"),
				"subtitle":    text(li.Find("div.tick-sub")),
				"dubbing":     text(li.Find("div.tick-dub")),
				"episode":     text(li.Find("div.tick-eps")),
				"type":        nonLetters.ReplaceAllString(text(li.Find("div.tick")), ""),
			}
		})
		anime = append(anime, source.Record{"view_more": attr(section.Find("div.more a"), "href")})

		return source.Record{
			"section": text(section.Find("div.anif-block-header")),
			"anime":   anime,
		}
	})
}

func homeBlocks(sections *goquery.Selection) []source.Record {
	return each(sections, func(section *goquery.Selection) source.Record {
		heading := text(section.Find("h2.cat-heading"))
		if heading == "" {
			heading = "Unknown Section"
		}

		anime := []source.Record{{"view_more": attr(section.Find("div.block_area-header a.btn"), "href")}}
		anime = append(anime, each(section.Find("div.flw-item"), func(s *goquery.Selection) source.Record {
			return source.Record{
				"anime_title": text(s.Find("h3.film-name")),
				"url":         attr(s.Find("h3.film-name a.dynamic-name"), "href"),
				"poster":      attr(s.Find("img.film-poster-img"), "data-src", "src"),
				"subtitle":    text(s.Find("div.tick-item.tick-sub")),
				"dubbing":     text(s.Find("div.tick-item.tick-dub")),
				"episode":     text(s.Find("div.tick-item.tick-eps")),
				"type":        text(s.Find("span.fdi-item")),
				"run_time":    text(s.Find("span.fdi-item.fdi-duration")),
			}
		})...)

		return source.Record{"section": heading, "anime": anime}
	})
}

func mostViewed(doc *goquery.Document) []source.Record {
	tabs := [][2]string{
		{"Today", "top-viewed-day"},
		{"Week", "top-viewed-week"},
		{"Month", "top-viewed-month"},
	}

	out := make([]source.Record, 0, len(tabs))
	for _, tab := range tabs {
		data := each(doc.Find("div#"+tab[1]+" ul.ulclear li"), func(li *goquery.Selection) source.Record {
			link := li.Find("h3.film-name a")
			info := li.Find("div.fd-infor")
			return source.Record{
				"rank":      text(li.Find("div.film-number")),
				"image":     attr(li.Find("div.film-poster img"), "data-src", "src"),
				"title":     text(link),
				"url":       attr(link, "href"),
				"subtitles": text(info.Find("div.tick-item.tick-sub")),
				"dubbing":   text(info.Find("div.tick-item.tick-dub")),
				"episodes":  text(info.Find("div.tick-item.tick-eps")),
			}
		})

		out = append(out, source.Record{"category": tab[0], "data": data})
	}

	return out
}
