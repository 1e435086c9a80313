// Package provider describes how each resource kind is fetched and cached:
// which site serves it, whether it needs a rendered page, what to wait for and how long it stays fresh.
package provider

import (
	"net/http"
	"time"

	"github.com/gauravRathod674/OtakuRealm/internal/fetch"
	"github.com/gauravRathod674/OtakuRealm/internal/pipeline"
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Provider is the fetch and cache policy of one resource kind.
type Provider struct {
	Kind         source.Kind
	Name         string
	Site         string
	UsesHeadless bool // Indicates whether the page must be rendered by a browser.
	Class        source.TTLClass

	// TTLKey names the config key holding the TTL of short-lived kinds.
	TTLKey string

	ReadySelector string
	ReadyTimeout  time.Duration

	// Accept reports whether a record may be cached. Nil caches every found record.
	Accept func(source.Record) bool
}

func (p *Provider) String() string {
	return p.Name
}

// TTL returns the configured expiry window. Permanent kinds have none.
func (p *Provider) TTL() time.Duration {
	if p.TTLKey == "" {
		return 0
	}

	return viper.GetDuration(p.TTLKey)
}

// Timeout returns the wait-for-element timeout, honouring the browser.timeout override.
func (p *Provider) Timeout() time.Duration {
	if override := viper.GetDuration(key.BrowserTimeout); override > 0 {
		return override
	}

	return p.ReadyTimeout
}

// Target builds the fetch target of url.
func (p *Provider) Target(url string) fetch.Target {
	target := fetch.Target{
		URL:             url,
		RequiresBrowser: p.UsesHeadless,
	}

	if p.UsesHeadless && p.ReadySelector != "" {
		target.Ready = &fetch.Condition{Selector: p.ReadySelector, Timeout: p.Timeout()}
	}

	if p.Site == source.MangaParkBase {
		target.Header = http.Header{"Referer": []string{source.MangaParkBase + "/"}}
	}

	return target
}

// Resource returns the pipeline caching policy of the kind.
func (p *Provider) Resource() pipeline.Resource {
	return pipeline.Resource{
		Kind:   p.Kind,
		Class:  p.Class,
		TTL:    p.TTL(),
		Accept: p.Accept,
	}
}

// Request builds a pipeline request for url cached under k.
func (p *Provider) Request(k source.Key, url string) pipeline.Request {
	return pipeline.Request{
		Resource: p.Resource(),
		Key:      k,
		Target:   p.Target(url),
	}
}

// Server choices of the embedded player.
const (
	DefaultCategory = "sub"
	DefaultServer   = "Megaplay-1"
)

// IframeInteraction selects server within category and waits for the player frame.
func IframeInteraction(category, server string) *fetch.Interaction {
	player, _ := Get(source.KindIframeSource)

	return &fetch.Interaction{
		Selector: `div.server-type[data-type="` + category + `"] div.server`,
		Text:     server,
		Then:     fetch.Condition{Selector: "div#player iframe", Timeout: player.Timeout()},
	}
}

func hasImages(record source.Record) bool {
	return len(record.Strings("images")) > 0
}

var builtins = []*Provider{
	{
		Kind:  source.KindAnimeDetail,
		Name:  "Kaido anime detail",
		Site:  source.KaidoBase,
		Class: source.Permanent,
	},
	{
		Kind:  source.KindAnimeLookup,
		Name:  "AnimeSuge lookup",
		Site:  source.AnimeSugeBase,
		Class: source.Permanent,
	},
	{
		Kind:          source.KindVideoServers,
		Name:          "AnimeSuge video servers",
		Site:          source.AnimeSugeBase,
		UsesHeadless:  true,
		Class:         source.ShortLived,
		TTLKey:        key.TTLVideoServers,
		ReadySelector: "div.server-wrapper",
		ReadyTimeout:  20 * time.Second,
	},
	{
		Kind:          source.KindIframeSource,
		Name:          "AnimeSuge player",
		Site:          source.AnimeSugeBase,
		UsesHeadless:  true,
		Class:         source.ShortLived,
		TTLKey:        key.TTLIframeSource,
		ReadySelector: "div.server-wrapper",
		ReadyTimeout:  20 * time.Second,
		Accept: func(record source.Record) bool {
			return record.String("iframe_src") != ""
		},
	},
	{
		Kind:          source.KindSearchResults,
		Name:          "AnimeSuge search",
		Site:          source.AnimeSugeBase,
		UsesHeadless:  true,
		Class:         source.Permanent,
		ReadySelector: "form.sorters",
		ReadyTimeout:  20 * time.Second,
	},
	{
		Kind: source.KindSearchPage,
		Name: "AnimeSuge search page",
		Site: source.AnimeSugeBase,
	},
	{
		Kind:  source.KindMangaLookup,
		Name:  "MangaPark lookup",
		Site:  source.MangaParkBase,
		Class: source.Permanent,
	},
	{
		Kind:  source.KindMangaDetail,
		Name:  "MangaPark manga detail",
		Site:  source.MangaParkBase,
		Class: source.Permanent,
	},
	{
		Kind:          source.KindReadImages,
		Name:          "MangaPark chapter images",
		Site:          source.MangaParkBase,
		UsesHeadless:  true,
		Class:         source.Permanent,
		ReadySelector: `div[data-name="image-show"] img`,
		ReadyTimeout:  30 * time.Second,
		Accept:        hasImages,
	},
	{
		Kind:  source.KindRecommendations,
		Name:  "Kaido recommendations",
		Site:  source.KaidoBase,
		Class: source.Permanent,
	},
	{
		Kind:  source.KindHome,
		Name:  "Kaido home",
		Site:  source.KaidoBase,
		Class: source.Permanent,
	},
	{
		Kind:  source.KindMangaHome,
		Name:  "MangaNow home",
		Site:  source.MangaNowBase,
		Class: source.Permanent,
	},
	{
		Kind:  source.KindMangaRecommendations,
		Name:  "MangaNow recommendations",
		Site:  source.MangaNowBase,
		Class: source.Permanent,
	},
}

// Builtins returns the policies of every resource kind.
func Builtins() []*Provider {
	return builtins
}

// Governed returns the policies whose expiry window is read from configKey.
func Governed(configKey string) []*Provider {
	return lo.Filter(builtins, func(p *Provider, _ int) bool {
		return p.TTLKey != "" && p.TTLKey == configKey
	})
}

// Get finds the policy of kind.
func Get(kind source.Kind) (*Provider, bool) {
	return lo.Find(builtins, func(p *Provider) bool {
		return p.Kind == kind
	})
}
