package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/spf13/cobra"
)

func newAskCmd(app *app) *cobra.Command {
	var who actorFlags

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Meter an assistant query against the caller's credits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := who.actor()
			if err != nil {
				return err
			}

			result, err := app.meter.TryConsume(cmd.Context(), application.ConsumeCommand{
				Actor: actor,
				Text:  strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result.Unlimited:
				_, _ = fmt.Fprintln(out, "allowed: unlimited plan")
			case !result.Allowed:
				_, _ = fmt.Fprintf(out, "denied: out of credits, free credits reset in %s\n", domain.FormatWait(result.UntilReset))
			case result.Charged > 0:
				_, _ = fmt.Fprintf(out, "allowed: charged %s, %d free left\n", pluralCredits(result.Charged), result.Account.FreeCredits)
			default:
				_, _ = fmt.Fprintf(out, "allowed: general question %d/%d\n", result.Account.GeneralQuestions, domain.GeneralQuestionsPerCredit)
			}
			return nil
		},
	}

	who.register(cmd)
	return cmd
}

func newEstimateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <question>",
		Short: "Show what a query would cost without charging it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			kind := "general"
			if domain.ClassifyQuery(text).KOLSpecific {
				kind = "creator-specific"
			}

			cost := strconv.FormatFloat(app.meter.EstimateCost(text), 'f', 2, 64)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s query, estimated cost %s credits\n", kind, cost)
			return err
		},
	}
}

func pluralCredits(n int) string {
	if n == 1 {
		return "1 credit"
	}
	return strconv.Itoa(n) + " credits"
}
