package cmd

import (
	"fmt"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/bnema/kol-credits/internal/domain"
	"github.com/spf13/cobra"
)

func newContactCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Check and open conversations between brands and creators",
	}

	cmd.AddCommand(newContactCheckCmd(app), newContactSendCmd(app))

	return cmd
}

func newContactCheckCmd(app *app) *cobra.Command {
	var who actorFlags

	cmd := &cobra.Command{
		Use:   "check <kol|brand> <profile-id>",
		Short: "Check whether the caller may message a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageCmd, err := parseMessageCommand(who, args)
			if err != nil {
				return err
			}

			decision, err := app.contacts.CanMessage(cmd.Context(), messageCmd)
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

func newContactSendCmd(app *app) *cobra.Command {
	var who actorFlags

	cmd := &cobra.Command{
		Use:   "send <kol|brand> <profile-id>",
		Short: "Record a first message, unlocking the conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageCmd, err := parseMessageCommand(who, args)
			if err != nil {
				return err
			}

			result, err := app.contacts.RecordMessage(cmd.Context(), messageCmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !result.Decision.Allowed():
				_, _ = fmt.Fprintln(out, describeDecision(result.Decision))
			case result.Unlocked && result.Charged > 0:
				_, _ = fmt.Fprintf(out, "Unlocked %s for %s\n", result.ConversationKey, pluralCredits(result.Charged))
			case result.Unlocked:
				_, _ = fmt.Fprintf(out, "Unlocked %s\n", result.ConversationKey)
			default:
				_, _ = fmt.Fprintf(out, "Conversation %s already unlocked\n", result.ConversationKey)
			}
			return nil
		},
	}

	who.register(cmd)
	return cmd
}

func newInviteCmd(app *app) *cobra.Command {
	var who actorFlags

	cmd := &cobra.Command{
		Use:   "invite <kol-id>",
		Short: "Record that a brand invited a creator to a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := who.actor()
			if err != nil {
				return err
			}

			decision, err := app.contacts.RecordInvitation(cmd.Context(), application.InviteCommand{
				Brand: actor,
				KOLID: domain.AccountID(args[0]),
			})
			if err != nil {
				return err
			}

			if !decision.Allowed() {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), describeDecision(decision))
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Invited %s\n", args[0])
			return err
		},
	}

	who.register(cmd)
	return cmd
}

func parseMessageCommand(who actorFlags, args []string) (application.MessageCommand, error) {
	actor, err := who.actor()
	if err != nil {
		return application.MessageCommand{}, err
	}
	profileType, err := domain.ParseProfileType(args[0])
	if err != nil {
		return application.MessageCommand{}, err
	}

	return application.MessageCommand{
		Actor:      actor,
		TargetID:   domain.AccountID(args[1]),
		TargetType: profileType,
	}, nil
}
