package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/gauravRathod674/OtakuRealm/util"
	"github.com/samber/lo"
	"golang.org/x/net/html"
)

// text returns the squashed text of the first element of sel.
func text(sel *goquery.Selection) string {
	return util.Squash(sel.First().Text())
}

// attr returns the first non-empty attribute of the first element of sel.
func attr(sel *goquery.Selection, names ...string) string {
	first := sel.First()
	for _, name := range names {
		if v := strings.TrimSpace(first.AttrOr(name, "")); v != "" {
			return v
		}
	}

	return ""
}

// texts returns the non-empty squashed texts of every element of sel.
func texts(sel *goquery.Selection) []string {
	out := sel.Map(func(_ int, s *goquery.Selection) string {
		return util.Squash(s.Text())
	})

	return lo.Compact(out)
}

// styleURL extracts the url(...) value of an inline style.
func styleURL(style string) string {
	_, rest, ok := strings.Cut(style, "url(")
	if !ok {
		return ""
	}

	value, _, _ := strings.Cut(rest, ")")
	return strings.Trim(strings.TrimSpace(value), `"'`)
}

// each collects extract over every element of sel.
func each(sel *goquery.Selection, extract func(s *goquery.Selection) source.Record) []source.Record {
	out := make([]source.Record, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if item := extract(s); item != nil {
			out = append(out, item)
		}
	})

	return out
}

// joined returns the text nodes below sel joined by single spaces.
func joined(sel *goquery.Selection) string {
	return util.Squash(strings.Join(textFragments(sel), " "))
}

// textFragments returns the trimmed text nodes below sel in document order.
func textFragments(sel *goquery.Selection) []string {
	var out []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}

	return out
}
