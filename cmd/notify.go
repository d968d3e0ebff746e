package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

func newNotifyCmd(app *app) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "notify [message]",
		Short: "Push a test notification through the channel",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}
			if !app.session.IsAuthenticated() {
				return domain.ErrNotAuthenticated
			}

			slug := user
			if slug == "" {
				slug = app.session.Credential().Slug
			}

			if err := app.gateway.Notify(ctx, slug, strings.Join(args, " ")); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Notification sent to %s\n", slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Target user slug (defaults to your own)")

	return cmd
}
