package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kc",
		Short:         "KOL credits (kc): daily credits, packages and permission checks",
		Long:          "kc manages the credit ledger of a creator marketing platform: daily free credits, premium credits and expiring packages, metered assistant queries, role permissions and contact unlocks. `kc serve` exposes the same operations over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.Close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(app),
		newAskCmd(app),
		newEstimateCmd(app),
		newCreditsCmd(app),
		newPackageCmd(app),
		newCanCmd(app),
		newSearchLimitCmd(app),
		newContactCmd(app),
		newInviteCmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
