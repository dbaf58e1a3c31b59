package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "status: open store")
		}
		defer func() { _ = st.Close() }()

		counts, err := st.Counts(ctx)
		if err != nil {
			return err
		}
		return printJSON(counts)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
