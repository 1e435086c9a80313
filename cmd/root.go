// Package cmd implements the command-line interface for otakurealm.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/color"
	"github.com/gauravRathod674/OtakuRealm/constant"
	"github.com/gauravRathod674/OtakuRealm/icon"
	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/style"
	"github.com/gauravRathod674/OtakuRealm/util"
	"github.com/gauravRathod674/OtakuRealm/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., emoji, plain, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.CliIcons, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().Bool("no-html-cache", false, "Do not keep or re-parse raw fetched pages")

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Scrape, cache and serve anime and manga pages",
	Long: style.New().Bold(true).Foreground(color.HiPurple).Render(constant.App) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Scrape, cache and serve anime and manga pages"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
