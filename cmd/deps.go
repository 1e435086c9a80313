package cmd

import (
	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/internal/cache"
	"github.com/gauravRathod674/OtakuRealm/internal/fetch"
	"github.com/gauravRathod674/OtakuRealm/internal/pipeline"
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/mangadex"
	"github.com/gauravRathod674/OtakuRealm/network"
	"github.com/gauravRathod674/OtakuRealm/service"
	"github.com/gauravRathod674/OtakuRealm/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheStore opens the record store at cache.path, or the default location.
func cacheStore() *cache.Store {
	return cache.New(lo.CoalesceOrEmpty(viper.GetString(key.CachePath), where.Resources()))
}

// newService wires the transports, stores and pipeline from configuration.
func newService(cmd *cobra.Command) *service.Service {
	client := network.NewClient(viper.GetDuration(key.FetchTimeout), viper.GetBool(key.FetchFingerprint))

	browser := fetch.NewBrowser(fetch.RodLauncher{
		Bin:       viper.GetString(key.BrowserBin),
		Headless:  viper.GetBool(key.BrowserHeadless),
		UserAgent: viper.GetString(key.BrowserUserAgent),
	}, viper.GetDuration(key.BrowserTimeout))

	keepHTML := viper.GetBool(key.CacheKeepHTML) && !lo.Must(cmd.Flags().GetBool("no-html-cache"))

	pipe := pipeline.New(
		cacheStore(),
		fetch.New(fetch.NewHTTP(client), browser),
		pipeline.WithRawTier(keepHTML),
	)

	return service.New(pipe, history.New(where.History()), mangadex.New(client), service.Config{
		AggregateWorkers: viper.GetInt(key.AggregateWorkers),
		SearchWorkers:    viper.GetInt(key.SearchWorkers),
		SearchMaxPages:   viper.GetInt(key.SearchMaxPages),
		SaveOnWatch:      viper.GetBool(key.HistorySaveOnWatch),
	})
}
