package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List canonical companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "companies: open store")
		}
		defer func() { _ = st.Close() }()

		companies, err := st.ListCompanies(ctx)
		if err != nil {
			return err
		}
		return printJSON(companies)
	},
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}
