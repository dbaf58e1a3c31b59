package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civicspend/disclosure-cli/internal/spending"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Data quality and cross-source linkage reports",
}

var reportQualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Record completeness: identifiers, figures, grant categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "report: open store")
		}
		defer func() { _ = st.Close() }()

		quality, err := st.DataQuality(ctx)
		if err != nil {
			return err
		}
		return printJSON(quality)
	},
}

var reportLinksCmd = &cobra.Command{
	Use:   "links",
	Short: "Per company, which disclosure sources have data",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "report: open store")
		}
		defer func() { _ = st.Close() }()

		links, err := spending.NewCalculator(st).CrossSourceLinkage(ctx)
		if err != nil {
			return err
		}
		return printJSON(links)
	},
}

func init() {
	reportCmd.AddCommand(reportQualityCmd, reportLinksCmd)
	rootCmd.AddCommand(reportCmd)
}
