package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
)

func init() {
	register(
		Family{Kind: source.KindMangaLookup, Anchor: "main", Extract: mangaLookup},
		Family{Kind: source.KindMangaDetail, Anchor: `div[q\:key="g0_12"]`, Extract: mangaDetail},
		Family{Kind: source.KindReadImages, Anchor: `div[data-name="image-show"]`, Extract: readImages},
	)
}

// mangaLookup resolves the first search card to its title page and latest chapter.
func mangaLookup(p *Page) source.Record {
	card := p.Doc.Find(`div[q\:key="q4_9"]`).First()
	detail := attr(card.Find(`h3[q\:key="o2_2"] a[href]`), "href")
	if detail == "" {
		return source.NotFound("no manga search result")
	}

	r := source.Record{
		"detail_url":         source.Absolute(source.MangaParkBase, detail),
		"latest_chapter_url": "",
	}

	if latest := attr(p.Optional("latest_chapter_url", card.Find(`div[q\:key="R7_8"] a`)), "href"); latest != "" {
		r["latest_chapter_url"] = source.Absolute(source.MangaParkBase, latest)
	}

	return r
}

func mangaDetail(p *Page) source.Record {
	c := p.Root

	img := c.Find("img").First()

	genres := lo.FilterMap(texts(c.Find(`[q\:key="30_2"] span`)), func(g string, _ int) (string, bool) {
		g = strings.TrimSuffix(g, ",")
		return g, g != ""
	})

	extra, publishers := extraInfo(c.Find(`div[q\:key="24_1"]`).First())

	status := joined(c.Find(`[q\:key="Yn_9"]`).First())
	if _, after, ok := strings.Cut(status, "Status:"); ok {
		status = strings.TrimSpace(after)
	}

	chapters := each(p.Optional("chapters", p.Doc.Find(`div[data-name="chapter-list"]`)).Find("a[href]"), func(a *goquery.Selection) source.Record {
		u := source.Absolute(source.MangaParkBase, attr(a, "href"))
		if !strings.HasPrefix(u, source.MangaParkTitlePrefix) {
			return nil
		}
		return source.Record{"name": text(a), "url": u}
	})

	return source.Record{
		"image": source.Record{
			"src":   attr(img, "src"),
			"title": attr(img, "title"),
		},
		"authors":        texts(c.Find(`[q\:key="tz_4"] a`)),
		"genres":         lo.Uniq(genres),
		"rating":         text(c.Find(`span[q\:key="lt_0"]`)),
		"description":    joined(c.Find("div.limit-html.prose").First()),
		"extra_info":     extra,
		"publishers":     publishers,
		"languages":      "English",
		"status":         status,
		"read_direction": joined(c.Find(`[q\:key="Yn_11"]`).First()),
		"chapters":       chapters,
	}
}

// extraInfo reads the paragraphs of the extra info section and the publisher
// list that follows its "Publishers:" heading.
func extraInfo(section *goquery.Selection) (paragraphs, publishers []string) {
	paragraphs, publishers = []string{}, []string{}

	island := section.Find("react-island div.limit-html.prose").First()
	if island.Length() == 0 {
		section.Find("div.limit-html-p").Each(func(_ int, s *goquery.Selection) {
			paragraphs = append(paragraphs, joined(s))
		})
		return paragraphs, publishers
	}

	island.Children().Each(func(_ int, child *goquery.Selection) {
		switch {
		case child.Is("div.limit-html-p"):
			paragraphs = append(paragraphs, joined(child))
		case child.Is("h6") && strings.Contains(child.Text(), "Publishers:"):
			publishers = append(publishers, texts(child.NextAllFiltered("ul").First().Find("li"))...)
		}
	})

	return paragraphs, publishers
}

func readImages(p *Page) source.Record {
	images := lo.Compact(p.Doc.Find(`div[data-name="image-show"] img`).Map(func(_ int, img *goquery.Selection) string {
		return strings.TrimSpace(img.AttrOr("src", ""))
	}))

	r := source.Record{"images": images}
	if len(images) == 0 {
		r["error"] = "No images found"
	}

	return r
}
