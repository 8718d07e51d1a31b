package main

import (
	"log"

	"github.com/absmach/fedstats/cli"
	"github.com/absmach/fedstats/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	defCoordinatorURL  = "http://localhost:7070"
	defTLSVerification = false
)

var coordinatorURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedstats-cli",
		Short: "Fedstats CLI",
		Long:  `Fedstats CLI is a command line interface for interacting with Fedstats components.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				CoordinatorURL:  coordinatorURL,
				TLSVerification: defTLSVerification,
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetFedstatsSDK(s)
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&coordinatorURL,
		"coordinator-url",
		"c",
		defCoordinatorURL,
		"Coordinator service URL",
	)

	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewNodesCmd())
	rootCmd.AddCommand(cli.NewProvisionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
