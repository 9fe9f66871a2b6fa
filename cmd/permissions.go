package cmd

import (
	"fmt"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/spf13/cobra"
)

func newCanCmd(app *app) *cobra.Command {
	var who actorFlags

	cmd := &cobra.Command{
		Use:       "can <action>",
		Short:     "Check whether a caller may perform an action",
		Args:      cobra.ExactArgs(1),
		ValidArgs: actionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := who.actor()
			if err != nil {
				return err
			}

			decision, err := app.permissions.CanPerform(cmd.Context(), actor, domain.Action(args[0]))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), describeDecision(decision))
			return err
		},
	}

	who.register(cmd)
	return cmd
}

func newSearchLimitCmd(app *app) *cobra.Command {
	var who actorFlags

	cmd := &cobra.Command{
		Use:   "search-limit",
		Short: "Show how many search results the caller may see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := who.actor()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), app.permissions.SearchResultLimit(actor))
			return err
		},
	}

	who.register(cmd)
	return cmd
}

func actionNames() []string {
	names := make([]string, 0, len(domain.Actions))
	for _, action := range domain.Actions {
		names = append(names, string(action))
	}
	return names
}
