package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

func newBookmarksCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmarks",
		Short: "List your bookmarked entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}
			if !app.session.IsAuthenticated() {
				return domain.ErrNotAuthenticated
			}

			bookmarks, err := app.gateway.Bookmarks(ctx, app.session.Credential().Slug)
			if err != nil {
				return err
			}
			if len(bookmarks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks")
				return nil
			}

			for _, b := range bookmarks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", b.Slug, b.Entry)
			}
			return nil
		},
	}
}
