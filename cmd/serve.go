package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gauravRathod674/OtakuRealm/key"
	"github.com/gauravRathod674/OtakuRealm/server"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "Address to listen on")
	lo.Must0(viper.BindPFlag(key.ServerAddress, serveCmd.Flags().Lookup("address")))

	serveCmd.Flags().Bool("metrics", true, "Expose prometheus metrics on /metrics")
	lo.Must0(viper.BindPFlag(key.ServerMetrics, serveCmd.Flags().Lookup("metrics")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scraping API over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		svc := newService(cmd)

		srv := server.New(svc, svc.History(), server.Options{
			IdentityHeader: viper.GetString(key.ServerIdentityHeader),
			Metrics:        viper.GetBool(key.ServerMetrics),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handleErr(srv.ListenAndServe(ctx, viper.GetString(key.ServerAddress)))
	},
}

