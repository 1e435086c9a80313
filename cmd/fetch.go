package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/open"
	"github.com/gauravRathod674/OtakuRealm/service"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.PersistentFlags().StringP("user", "u", "", "Run as this user id. Empty runs as a guest")

	fetchCmd.AddCommand(fetchDetailCmd, fetchWatchCmd, fetchSwitchCmd, fetchSearchCmd,
		fetchMangaCmd, fetchReadCmd, fetchReadPathCmd, fetchHomeCmd, fetchRecommendationsCmd, fetchMangaHomeCmd)

	fetchWatchCmd.Flags().StringP("title", "t", "", "Title of the anime")
	fetchWatchCmd.Flags().String("type", "TV", "Content type: "+strings.Join(source.AnimeTypes, ", "))
	lo.Must0(fetchWatchCmd.MarkFlagRequired("title"))
	lo.Must0(fetchWatchCmd.RegisterFlagCompletionFunc("type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return source.AnimeTypes, cobra.ShellCompDirectiveNoFileComp
	}))

	fetchSwitchCmd.Flags().StringP("title", "t", "", "Title of the anime")
	lo.Must0(fetchSwitchCmd.MarkFlagRequired("title"))

	for _, c := range []*cobra.Command{fetchWatchCmd, fetchSwitchCmd} {
		c.Flags().BoolP("open", "o", false, "Open the player source in the browser")
		c.Flags().String("open-with", "", "Application to open the player source with")
	}

	fetchSearchCmd.Flags().StringArrayP("filter", "f", []string{}, "Search filter as name=value, repeatable")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one operation and print its record as JSON",
}

// runRecord prints the record produced by op.
func runRecord(cmd *cobra.Command, op func(ctx context.Context, svc *service.Service, user mo.Option[string]) (source.Record, error)) source.Record {
	user := mo.EmptyableToOption(lo.Must(cmd.Flags().GetString("user")))

	record, err := op(cmd.Context(), newService(cmd), user)
	handleErr(err)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	handleErr(encoder.Encode(record))

	return record
}

// openPlayer starts the iframe source of record when --open is set.
func openPlayer(cmd *cobra.Command, record source.Record) {
	if !lo.Must(cmd.Flags().GetBool("open")) {
		return
	}

	src := record.String(service.BranchIframe)
	if src == "" {
		handleErr(fmt.Errorf("no player source to open"))
	}

	handleErr(open.StartWith(src, lo.Must(cmd.Flags().GetString("open-with"))))
}

var fetchDetailCmd = &cobra.Command{
	Use:   "detail <pathname>",
	Short: "Anime detail page, e.g. /attack-on-titan-112",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, _ mo.Option[string]) (source.Record, error) {
			return svc.AnimeDetail(ctx, args[0])
		})
	},
}

var fetchWatchCmd = &cobra.Command{
	Use:     "watch <slug> [episode]",
	Short:   "Player source, servers and detail of an episode",
	Example: "  otakurealm fetch watch dandadan-19319 ep-12 --title Dandadan --type TV",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		req := service.WatchRequest{
			Slug:    args[0],
			Episode: "ep-1",
			Title:   lo.Must(cmd.Flags().GetString("title")),
			Type:    lo.Must(cmd.Flags().GetString("type")),
		}
		if len(args) == 2 {
			req.Episode = args[1]
		}

		record := runRecord(cmd, func(ctx context.Context, svc *service.Service, user mo.Option[string]) (source.Record, error) {
			return svc.Watch(ctx, user, req)
		})
		openPlayer(cmd, record)
	},
}

var fetchSwitchCmd = &cobra.Command{
	Use:   "switch <episode-url>",
	Short: "Player source of another episode",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := lo.Must(cmd.Flags().GetString("title"))
		record := runRecord(cmd, func(ctx context.Context, svc *service.Service, user mo.Option[string]) (source.Record, error) {
			return svc.SwitchEpisode(ctx, user, args[0], title)
		})
		openPlayer(cmd, record)
	},
}

var fetchSearchCmd = &cobra.Command{
	Use:     "search <title>",
	Short:   "Every result page of an anime search",
	Example: "  otakurealm fetch search dandadan -f 'type[]=tv' -f sort=score",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filters, err := parseFilters(lo.Must(cmd.Flags().GetStringArray("filter")))
		handleErr(err)

		runRecord(cmd, func(ctx context.Context, svc *service.Service, _ mo.Option[string]) (source.Record, error) {
			return svc.Search(ctx, strings.Join(args, " "), filters)
		})
	},
}

func parseFilters(pairs []string) (url.Values, error) {
	filters := url.Values{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, expected name=value", pair)
		}
		filters.Add(name, value)
	}

	return filters, nil
}

var fetchMangaCmd = &cobra.Command{
	Use:   "manga <title>",
	Short: "Manga title page",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, _ mo.Option[string]) (source.Record, error) {
			return svc.MangaDetail(ctx, strings.Join(args, " "))
		})
	},
}

var fetchReadCmd = &cobra.Command{
	Use:   "read <read-path|chapter-url|title>",
	Short: "Page images of a chapter",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, _ mo.Option[string]) (source.Record, error) {
			return svc.Read(ctx, strings.Join(args, " "))
		})
	},
}

var fetchReadPathCmd = &cobra.Command{
	Use:   "read-path <title>",
	Short: "Read path and chapter list of a manga",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, _ mo.Option[string]) (source.Record, error) {
			return svc.ReadPath(ctx, strings.Join(args, " "))
		})
	},
}

var fetchHomeCmd = &cobra.Command{
	Use:   "home",
	Short: "Sections of the anime home page",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, _ mo.Option[string]) (source.Record, error) {
			return svc.Home(ctx)
		})
	},
}

var fetchMangaHomeCmd = &cobra.Command{
	Use:   "manga-home",
	Short: "Sections of the manga home page, with the reading of --user",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, user mo.Option[string]) (source.Record, error) {
			return svc.MangaHome(ctx, user)
		})
	},
}

var fetchRecommendationsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "Titles picked from the watch history of --user",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runRecord(cmd, func(ctx context.Context, svc *service.Service, user mo.Option[string]) (source.Record, error) {
			return svc.Recommendations(ctx, user)
		})
	},
}
