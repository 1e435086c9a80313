package parser

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
)

func init() {
	search := Family{Kind: source.KindSearchResults, Anchor: "form.sorters", Extract: searchPage}
	page := search
	page.Kind = source.KindSearchPage

	register(
		Family{Kind: source.KindAnimeLookup, Anchor: "form.sorters", Extract: animeLookup},
		Family{Kind: source.KindVideoServers, Anchor: "div.server-wrapper", Extract: videoServers},
		Family{Kind: source.KindIframeSource, Anchor: "div.server-wrapper", Extract: iframeSource},
		search,
		page,
	)
}

// animeLookup resolves the first card of a filter page to its watch url.
func animeLookup(p *Page) source.Record {
	href := attr(p.Doc.Find("div.original.anime.main-card a.poster"), "href")
	if href == "" {
		return source.NotFound("no search result")
	}

	return source.Record{"watch_url": source.Absolute(source.AnimeSugeBase, href)}
}

func videoServers(p *Page) source.Record {
	servers := source.Record{}
	p.Root.Find("div.server-type").Each(func(_ int, st *goquery.Selection) {
		label := "Unknown Type"
		if name := st.Find("div.name"); name.Length() > 0 {
			label = joined(name)
		}

		servers[label] = texts(st.Find("div.server-list div.server span"))
	})

	ranges := source.Record{}
	p.Optional("episode_ranges", p.Doc.Find("div#media-episode div.range-wrap")).
		Find("div.range").
		Each(func(_ int, rd *goquery.Selection) {
			name := rd.AttrOr("data-range", "Unknown Range")
			ranges[name] = each(rd.Find("a"), func(a *goquery.Selection) source.Record {
				return source.Record{
					"episode":   text(a),
					"url":       attr(a, "href"),
					"is_filler": a.HasClass("filler"),
				}
			})
		})

	return source.Record{"servers_info": servers, "episode_ranges": ranges}
}

// iframeSource reads the player frame of a watch page after a server was picked.
func iframeSource(p *Page) source.Record {
	frame := p.Doc.Find("div#player iframe[src]").First()
	return source.Record{"iframe_src": attr(p.Optional("iframe_src", frame), "src")}
}

func searchPage(p *Page) source.Record {
	return source.Record{
		"filters":   searchFilters(p.Root),
		"cards":     searchCards(p.Optional("cards", p.Doc.Find(".main-card").First())),
		"last_page": lastPage(p.Doc.Find("ul.pagination")),
	}
}

func searchFilters(form *goquery.Selection) []source.Record {
	return each(form.Find("div.dropdown.responsive"), func(dropdown *goquery.Selection) source.Record {
		value := dropdown.Find("span.value").First()
		if value.Length() == 0 {
			return nil
		}

		title := attr(value, "data-placeholder")
		if title == "" {
			title = text(value)
		}

		switch strings.ToLower(title) {
		case "default":
			title = "Sort by"
		case "all":
			title = "Country"
		}

		menu := dropdown.Find("ul.noclose.dropdown-menu").First()
		if menu.Length() == 0 {
			menu = dropdown.Find(".noclose.dropdown-menu ul").First()
		}

		options := each(menu.Find("li"), func(li *goquery.Selection) source.Record {
			input, label := li.Find("input").First(), li.Find("label").First()
			if input.Length() == 0 || label.Length() == 0 {
				return nil
			}
			return source.Record{"name": text(label), "value": attr(input, "value")}
		})

		if len(options) == 0 {
			return nil
		}

		return source.Record{"filter": title, "options": options}
	})
}

func searchCards(container *goquery.Selection) []source.Record {
	return each(container.Find("div.item > div.inner"), func(inner *goquery.Selection) source.Record {
		card := source.Record{}

		top := inner.Find("div.item-top")
		if poster := top.Find("a.poster").First(); poster.Length() > 0 {
			card["url"] = attr(poster, "href")
			card["data_tip"] = attr(poster, "data-tip")
			if img := poster.Find("img"); img.Length() > 0 {
				card["poster_url"] = attr(img, "src", "data-src")
				card["alt"] = attr(img, "alt")
			}
		}
		if kind := top.Find("div.item-status span.type"); kind.Length() > 0 {
			card["type"] = text(kind)
		}

		bottom := inner.Find("div.item-bottom")
		if name := bottom.Find("div.name a").First(); name.Length() > 0 {
			card["title"] = text(name)
			card["japanese_title"] = attr(name, "data-jp")
		}
		if sub := bottom.Find("div.dub-sub-total span.sub"); sub.Length() > 0 {
			card["sub"] = text(sub)
		}
		if dub := bottom.Find("div.dub-sub-total span.dub"); dub.Length() > 0 {
			card["dub"] = text(dub)
		}

		return card
	})
}

// lastPage reads the page query of the "Last" link, falling back to the
// highest numbered link and then to 1.
func lastPage(pagination *goquery.Selection) int {
	if href := attr(pagination.Find(`a[title="Last"]`), "href"); href != "" {
		if u, err := url.Parse(href); err == nil {
			if n, err := strconv.Atoi(u.Query().Get("page")); err == nil && n > 0 {
				return n
			}
		}
	}

	numbers := lo.FilterMap(texts(pagination.Find("li a")), func(t string, _ int) (int, bool) {
		n, err := strconv.Atoi(t)
		return n, err == nil
	})

	if len(numbers) == 0 {
		return 1
	}

	return lo.Max(numbers)
}
