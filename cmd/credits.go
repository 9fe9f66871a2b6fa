package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/spf13/cobra"
)

func newCreditsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Manage premium credits",
	}

	cmd.AddCommand(newCreditsGrantCmd(app))

	return cmd
}

func newCreditsGrantCmd(app *app) *cobra.Command {
	var accountID string
	var credits int

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Allocate premium credits to an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.ledger.AllocatePremium(cmd.Context(), domain.AccountID(accountID), credits)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to %s (premium: %d)\n", pluralCredits(credits), account.ID, account.PremiumCredits)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().IntVar(&credits, "credits", 0, "Number of premium credits")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("credits")

	return cmd
}

func newPackageCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Buy and expire credit packages",
	}

	cmd.AddCommand(newPackageBuyCmd(app), newPackageSweepCmd(app))

	return cmd
}

func newPackageBuyCmd(app *app) *cobra.Command {
	var accountID string
	var credits int

	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Add a credit package that expires after 60 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pkg, err := app.ledger.PurchasePackage(cmd.Context(), domain.AccountID(accountID), credits)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Package %s: %s, expires %s\n",
				pkg.ID, pluralCredits(pkg.CreditsTotal), pkg.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().IntVar(&credits, "credits", 0, "Credits in the package")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("credits")

	return cmd
}

func newPackageSweepCmd(app *app) *cobra.Command {
	var accountID string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired packages and warn about packages close to expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var report application.SweepReport
			sweep := func(ctx context.Context, progress application.SweepProgress) error {
				var err error
				report, err = sweepPackages(ctx, app.ledger, accountID, progress)
				return err
			}

			if quiet {
				if err := sweep(cmd.Context(), nil); err != nil {
					return err
				}
			} else if err := runSweepSpinner(cmd.Context(), cmd.ErrOrStderr(), sweep); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Swept %d accounts: %d expired packages, %s forfeited\n",
				report.Accounts, report.ExpiredPackages, pluralCredits(report.ForfeitedCredits))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (default: all accounts)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not show progress")

	return cmd
}

func sweepPackages(ctx context.Context, ledger *application.Ledger, accountID string, progress application.SweepProgress) (application.SweepReport, error) {
	if accountID == "" {
		return ledger.SweepAllWithProgress(ctx, progress)
	}

	expired, err := ledger.SweepExpiredPackages(ctx, domain.AccountID(accountID))
	if err != nil {
		return application.SweepReport{}, err
	}

	report := application.SweepReport{Accounts: 1, ExpiredPackages: len(expired)}
	for _, pkg := range expired {
		report.ForfeitedCredits += pkg.CreditsRemaining
	}
	return report, nil
}
