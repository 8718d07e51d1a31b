package cli

import (
	"github.com/absmach/fedstats/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	features       []string
	methods        []string
	fractionSample float64 = 1.0
	minNodes       int     = 1
)

var fsdk sdk.SDK

func SetFedstatsSDK(s sdk.SDK) {
	fsdk = s
}

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [create|view|list|delete|start]",
		Short: "Rounds manager",
		Long:  `Create, view, list, delete and start aggregation rounds.`,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create round",
		Long: `Create an aggregation round.

Examples:
  # Aggregate mean and std of age over all nodes
  fedstats-cli rounds create ages --features=age --methods=mean,std

  # Sample half of the fleet, waiting for at least 3 nodes
  fedstats-cli rounds create ages --features=age --methods=mean --fraction=0.5 --min-nodes=3`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := fsdk.CreateRound(sdk.Round{
				Name:             args[0],
				SelectedFeatures: features,
				Methods:          methods,
				FractionSample:   fractionSample,
				MinNodes:         minNodes,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	createCmd.Flags().StringSliceVar(
		&features,
		"features",
		[]string{},
		"Features to aggregate (comma-separated, e.g. age,height)",
	)
	createCmd.Flags().StringSliceVar(
		&methods,
		"methods",
		[]string{"mean"},
		"Aggregation methods (comma-separated, e.g. mean,std)",
	)
	createCmd.Flags().Float64Var(
		&fractionSample,
		"fraction",
		fractionSample,
		"Fraction of available nodes to sample, in (0, 1]",
	)
	createCmd.Flags().IntVar(
		&minNodes,
		"min-nodes",
		minNodes,
		"Minimum number of nodes required before sampling",
	)

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View round",
		Long:  `View round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := fsdk.GetRound(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rounds",
		Long:  `List rounds.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListRounds(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete round",
		Long:  `Delete round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := fsdk.DeleteRound(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	startCmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start round",
		Long:  `Run a round end to end and print its results.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := fsdk.StartRound(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	cmd.AddCommand(createCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(deleteCmd)
	cmd.AddCommand(startCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}
