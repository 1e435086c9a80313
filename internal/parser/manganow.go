package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
)

func init() {
	register(
		Family{Kind: source.KindMangaHome, Anchor: "#manga-trending, div.deslide-wrap", Extract: mangaHome},
		Family{Kind: source.KindMangaRecommendations, Anchor: "div.mls-wrap", Extract: mangaRecommendations},
	)
}

func mangaHome(p *Page) source.Record {
	doc := p.Doc

	return source.Record{
		"image_slider":  each(p.Optional("image_slider", doc.Find("div.deslide-wrap div.swiper-slide")), mangaSlide),
		"trending":      numbered(each(p.Optional("trending", doc.Find("div#manga-trending div.swiper-slide")), mangaCard)),
		"recommended":   numbered(each(doc.Find("div#manga-featured div.swiper-slide"), featuredCard)),
		"latest_update": each(doc.Find("section.block_area.block_area_home div.item"), latestUpdate),
		"most_viewed":   mangaCharts(doc),
		"completed":     each(doc.Find("div#featured-04 div.swiper-slide div.mg-item-basic"), completedCard),
		"genres":        mangaGenres(doc),
	}
}

func mangaSlide(s *goquery.Selection) source.Record {
	title := s.Find("div.desi-head-title a")

	return source.Record{
		"image_src":   attr(s.Find("a.deslide-cover img"), "src", "data-src"),
		"chapter":     text(s.Find("div.desi-sub-text")),
		"manga_title": text(title),
		"url":         source.Absolute(source.MangaNowBase, attr(title, "href")),
		"description": text(s.Find("div.scd-item.mb-3")),
		"genres":      links(s.Find("div.scd-genres a")),
	}
}

// mangaCard reads a swiper card. Rating is the second paragraph of the
// description and the chapter link sits in the fourth.
func mangaCard(s *goquery.Selection) source.Record {
	paragraphs := s.Find("div.mp-desc p")
	chapter := paragraphs.Eq(3).Find("a")

	return source.Record{
		"image_src":    attr(s.Find("div.manga-poster img"), "src", "data-src"),
		"manga_title":  text(s.Find("div.mp-desc p.alias-name strong")),
		"rating":       text(paragraphs.Eq(1)),
		"chapter":      text(chapter),
		"chapter_link": source.Absolute(source.MangaNowBase, attr(chapter, "href")),
	}
}

func featuredCard(s *goquery.Selection) source.Record {
	card := mangaCard(s)
	card["genres"] = links(s.Find("div.fd-infor a"))

	return card
}

func latestUpdate(s *goquery.Selection) source.Record {
	title := s.Find("div.manga-detail h3.manga-name a")

	chapters := each(s.Find("div.fd-list a[href]"), func(a *goquery.Selection) source.Record {
		return source.Record{"name": text(a), "url": source.Absolute(source.MangaNowBase, attr(a, "href"))}
	})
	if len(chapters) > 3 {
		chapters = chapters[:3]
	}

	return source.Record{
		"image_src":   attr(s.Find("a.manga-poster img"), "src", "data-src"),
		"manga_title": text(title),
		"url":         source.Absolute(source.MangaNowBase, attr(title, "href")),
		"genres":      texts(s.Find("div.fd-infor span.fdi-item.fdi-cate a")),
		"chapters":    chapters,
	}
}

func mangaCharts(doc *goquery.Document) source.Record {
	charts := source.Record{}
	for _, period := range []string{"today", "week", "month"} {
		charts[period] = each(doc.Find("div#chart-"+period+" ul.ulclear li.item-top"), func(li *goquery.Selection) source.Record {
			chapter := li.Find("span.fdi-chapter a")
			return source.Record{
				"image_src":    attr(li.Find("img"), "src", "data-src"),
				"manga_title":  text(li.Find("h3.manga-name a")),
				"genres":       texts(li.Find("span.fdi-cate a")),
				"view_count":   text(li.Find("span.fdi-view")),
				"chapter":      text(chapter),
				"chapter_link": source.Absolute(source.MangaNowBase, attr(chapter, "href")),
			}
		})
	}

	return charts
}

func completedCard(s *goquery.Selection) source.Record {
	title := text(s.Find("p.alias-name strong"))
	if title == "" {
		title = text(s.Find("h3.manga-name a"))
	}

	rating := ""
	if star := s.Find("i.fa-star"); star.Length() > 0 {
		rating = strings.TrimSpace(strings.Replace(joined(star.Parent()), text(star), "", 1))
	}

	chapter := s.Find("p a[href]").First()

	return source.Record{
		"image_src":    attr(s.Find("div.manga-poster img"), "src", "data-src"),
		"manga_title":  title,
		"rating":       rating,
		"chapter":      text(chapter),
		"chapter_link": source.Absolute(source.MangaNowBase, attr(chapter, "href")),
		"genres":       texts(s.Find("div.manga-detail div.fd-infor a")),
	}
}

// mangaGenres reads the genre row of the category block, skipping its "more" toggle.
func mangaGenres(doc *goquery.Document) []source.Record {
	row := doc.Find("div.c_b-list div.cbl-row").Eq(1)
	return links(row.Find("div.item").Not(".item-more").Find("a"))
}

func mangaRecommendations(p *Page) source.Record {
	cards := each(p.Root.Find("div.item.item-spc"), func(s *goquery.Selection) source.Record {
		poster := s.Find("a.manga-poster")
		title := text(s.Find("h3.manga-name"))
		if poster.Length() == 0 || title == "" {
			return nil
		}

		return source.Record{
			"title":  title,
			"url":    source.Absolute(source.MangaNowBase, attr(poster, "href")),
			"cover":  attr(poster.Find("img.manga-poster-img"), "src", "data-src"),
			"genres": texts(s.Find("span.fdi-cate a span")),
		}
	})

	return source.Record{"recommendations": cards}
}

func links(sel *goquery.Selection) []source.Record {
	return each(sel, func(a *goquery.Selection) source.Record {
		name := text(a)
		if name == "" {
			return nil
		}

		return source.Record{"name": name, "url": source.Absolute(source.MangaNowBase, attr(a, "href"))}
	})
}

// numbered stamps cards with their 1-based position.
func numbered(cards []source.Record) []source.Record {
	lo.ForEach(cards, func(card source.Record, i int) {
		card["card_no"] = i + 1
	})

	return cards
}
