package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sg",
		Short:         "stackgnosis client: browse your knowledge base from the terminal",
		Long:          "sg is the stackgnosis terminal client. It signs in to your knowledge base, browses and searches entries, manages bookmarks, and watches the live notification channel.",
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

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newRegisterCmd(app),
		newWhoamiCmd(app),
		newEntryCmd(app),
		newBookmarksCmd(app),
		newNotifyCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
