package cli

import (
	"github.com/odysseus0/rssfeeder/internal/opml"
	"github.com/odysseus0/rssfeeder/internal/registry"
	"github.com/spf13/cobra"
)

func newFeedsCmd(getApp func() *App) *cobra.Command {
	output := string(OutputTable)

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List the registered feeds",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFmt, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			feeds := app.registry.Feeds()
			switch outFmt {
			case OutputOPML:
				return opml.WriteOPML(cmd.OutOrStdout(), app.cfg.BaseURL, feeds)
			case OutputJSON:
				return writeJSON(cmd.OutOrStdout(), feedRows(feeds, app.cfg.BaseURL, registry.DefaultFeedID))
			}
			rows := feedRows(feeds, app.cfg.BaseURL, registry.DefaultFeedID)
			writeFeedsTable(cmd.OutOrStdout(), rows, outFmt == OutputWide)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", output, "Output format: table, json, wide, opml")
	return cmd
}
