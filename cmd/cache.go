package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gauravRathod674/OtakuRealm/color"
	"github.com/gauravRathod674/OtakuRealm/icon"
	"github.com/gauravRathod674/OtakuRealm/internal/cache"
	"github.com/gauravRathod674/OtakuRealm/provider"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/gauravRathod674/OtakuRealm/style"
	"github.com/gauravRathod674/OtakuRealm/util"
	"github.com/invopop/jsonschema"
	"github.com/muesli/reflow/truncate"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func completionKinds(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(source.Kinds(), func(k source.Kind, _ int) string { return k.String() }), cobra.ShellCompDirectiveNoFileComp
}

func kindFlag(cmd *cobra.Command) source.Kind {
	kind := source.Kind(lo.Must(cmd.Flags().GetString("kind")))
	if kind != "" && !lo.Contains(source.Kinds(), kind) {
		handleErr(fmt.Errorf("unknown kind %s", style.Fg(color.Red)(kind.String())))
	}

	return kind
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheLsCmd, cachePruneCmd, cacheSchemaCmd)

	for _, c := range []*cobra.Command{cacheLsCmd, cachePruneCmd} {
		c.Flags().StringP("kind", "k", "", "Only entries of this resource kind")
		lo.Must0(c.RegisterFlagCompletionFunc("kind", completionKinds))
	}

	cachePruneCmd.Flags().DurationP("older-than", "o", 0, "Remove entries fetched longer ago than this")
	lo.Must0(cachePruneCmd.MarkFlagRequired("older-than"))
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the scraped record store",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached entries with their age and freshness",
	Run: func(cmd *cobra.Command, args []string) {
		store := cacheStore()
		now := store.Now()

		width := 80
		if w, _, err := util.TerminalSize(); err == nil {
			width = util.Min(util.Max(w, 40), 200)
		}

		var count int
		handleErr(store.Walk(kindFlag(cmd), func(path string, entry *cache.Entry, err error) error {
			count++
			if err != nil {
				cmd.Printf("%s %s %s\n", icon.Get(icon.Fail), style.Fg(color.Red)("corrupt"), util.FileStem(path))
				return nil
			}

			state := icon.Get(icon.Fresh)
			if p, ok := provider.Get(entry.Key.Kind()); ok && !entry.Fresh(now, p.TTL()) {
				state = icon.Get(icon.Stale)
			}

			age := entry.Age(now).Truncate(time.Second).String()
			line := fmt.Sprintf("%s %-16s %s", state, entry.Key.Kind(), entry.Key)
			cmd.Printf("%s %s\n", truncate.StringWithTail(line, uint(util.Max(width-len(age)-1, 10)), "…"), style.Fg(color.Gray)(age))
			return nil
		}))

		cmd.Printf("%s %s\n", icon.Get(icon.Cache), style.Faint(util.Quantify(count, "entry", "entries")))
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries older than a given age",
	Run: func(cmd *cobra.Command, args []string) {
		olderThan := lo.Must(cmd.Flags().GetDuration("older-than"))

		removed, err := cacheStore().Prune(olderThan, kindFlag(cmd))
		handleErr(err)

		cmd.Printf("%s removed %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Quantify(removed, "entry", "entries"))
	},
}

var cacheSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a cache entry",
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&cache.Entry{})

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
