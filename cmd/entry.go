package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackgnosis/sg-cli/internal/adapters/gateway"
	entryrender "github.com/stackgnosis/sg-cli/internal/adapters/render/entry"
	"github.com/stackgnosis/sg-cli/internal/domain"
)

func newEntryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Browse and manage knowledge base entries",
	}

	cmd.AddCommand(
		newEntryListCmd(app),
		newEntryViewCmd(app),
		newEntrySearchCmd(app),
		newEntryCreateCmd(app),
		newEntryDeleteCmd(app),
		newEntryRequestCmd(app),
	)

	return cmd
}

func newEntryListCmd(app *app) *cobra.Command {
	var (
		query  string
		cached bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}

			var entries []domain.Entry
			var err error
			if cached {
				entries, err = app.cache.List(ctx)
			} else {
				err = runFetchSpinner(ctx, cmd.OutOrStdout(), "Fetching entries...", func(ctx context.Context) error {
					var fetchErr error
					entries, fetchErr = app.gateway.Entries(ctx, query)
					return fetchErr
				})
				if err == nil && len(entries) > 0 {
					if cacheErr := app.cache.PutAll(ctx, entries); cacheErr != nil {
						app.logger.Warn("caching entries failed", "error", cacheErr)
					}
				}
			}
			if err != nil {
				return err
			}

			printEntryList(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter entries by query")
	cmd.Flags().BoolVar(&cached, "cached", false, "List locally cached entries instead of fetching")

	return cmd
}

func newEntryViewCmd(app *app) *cobra.Command {
	var (
		collapsed bool
		cached    bool
	)

	cmd := &cobra.Command{
		Use:   "view <slug>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			slug := args[0]

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}

			var entry domain.Entry
			var err error
			switch {
			case cached:
				entry, err = app.cache.Get(ctx, slug)
			default:
				err = runFetchSpinner(ctx, cmd.OutOrStdout(), "Fetching entry...", func(ctx context.Context) error {
					var fetchErr error
					entry, fetchErr = app.gateway.Entry(ctx, slug)
					return fetchErr
				})
				if err == nil {
					if cacheErr := app.cache.Put(ctx, entry); cacheErr != nil {
						app.logger.Warn("caching entry failed", "slug", slug, "error", cacheErr)
					}
					break
				}
				// Offline fallback: a cached copy beats a hard failure.
				if cachedEntry, cacheErr := app.cache.Get(ctx, slug); cacheErr == nil {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "fetch failed, showing cached copy")
					entry, err = cachedEntry, nil
				}
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), entryrender.Render(entry, entryrender.Options{Collapsed: collapsed}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "Show section headings only")
	cmd.Flags().BoolVar(&cached, "cached", false, "Read from the local cache instead of fetching")

	return cmd
}

func newEntrySearchCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}

			var entries []domain.Entry
			err := runFetchSpinner(ctx, cmd.OutOrStdout(), "Searching...", func(ctx context.Context) error {
				var fetchErr error
				entries, fetchErr = app.gateway.Search(ctx, joinArgs(args))
				return fetchErr
			})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No entries found")
				return nil
			}

			printEntryList(cmd, entries)
			return nil
		},
	}

	return cmd
}

func newEntryCreateCmd(app *app) *cobra.Command {
	var req gateway.CreateEntryRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}

			entry, err := app.gateway.Create(ctx, req)
			if err != nil {
				return err
			}

			if entry.Slug != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created entry %s\n", entry.Slug)
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Created entry")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Entry title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Entry body (HTML with h3 section headings)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func newEntryDeleteCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}
			if err := app.gateway.Delete(ctx, args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newEntryRequestCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request <query>",
		Short: "Ask the server to generate a new entry",
		Long:  "Ask the server to generate a new entry for the query. Generation is asynchronous; the result arrives as a push notification (see sg watch).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := app.session.Initialize(ctx); err != nil {
				return err
			}
			if err := app.gateway.RequestNew(ctx, joinArgs(args)); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Entry requested, watch for the notification")
			return nil
		},
	}

	return cmd
}

func printEntryList(cmd *cobra.Command, entries []domain.Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), entryrender.Summary(domain.EntryRef{Slug: e.Slug, Title: e.Title}))
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
