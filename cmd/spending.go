package main

import (
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/civicspend/disclosure-cli/internal/spending"
)

var spendingCmd = &cobra.Command{
	Use:   "spending",
	Short: "Spending queries over persisted disclosures",
}

var spendingFlags struct {
	category string
	from     string
	to       string
	limit    int
	min      string
	max      string
}

var spendingBreakdownCmd = &cobra.Command{
	Use:   "breakdown <company name>",
	Short: "Per-category spending for one company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dr, err := parseDateRange(spendingFlags.from, spendingFlags.to)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "spending: open store")
		}
		defer func() { _ = st.Close() }()

		b, err := spending.NewCalculator(st).BreakdownByName(ctx, args[0], spendingFlags.category, dr)
		if err != nil {
			return err
		}
		return printJSON(b)
	},
}

var spendingTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank companies by spending, overall or per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dr, err := parseDateRange(spendingFlags.from, spendingFlags.to)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "spending: open store")
		}
		defer func() { _ = st.Close() }()

		top, err := spending.NewCalculator(st).TopSpenders(ctx, spendingFlags.limit, spendingFlags.category, dr)
		if err != nil {
			return err
		}
		return printJSON(top)
	},
}

var spendingFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Companies whose total spending falls inside bounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dr, err := parseDateRange(spendingFlags.from, spendingFlags.to)
		if err != nil {
			return err
		}
		min, err := parseBound(spendingFlags.min)
		if err != nil {
			return err
		}
		max, err := parseBound(spendingFlags.max)
		if err != nil {
			return err
		}
		if min == nil && max == nil {
			return eris.New("spending filter: at least one of --min or --max is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "spending: open store")
		}
		defer func() { _ = st.Close() }()

		matched, err := spending.NewCalculator(st).FilterBySpending(ctx, min, max, dr)
		if err != nil {
			return err
		}
		return printJSON(matched)
	},
}

var spendingStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Platform-wide spending statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dr, err := parseDateRange(spendingFlags.from, spendingFlags.to)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "spending: open store")
		}
		defer func() { _ = st.Close() }()

		stats, err := spending.NewCalculator(st).PlatformStatistics(ctx, dr)
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

// parseBound parses an optional decimal flag value.
func parseBound(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, eris.Wrapf(err, "parse bound %q", v)
	}
	return &d, nil
}

func init() {
	for _, c := range []*cobra.Command{spendingBreakdownCmd, spendingTopCmd, spendingFilterCmd, spendingStatsCmd} {
		c.Flags().StringVar(&spendingFlags.from, "from", "", "start date (YYYY-MM-DD, inclusive)")
		c.Flags().StringVar(&spendingFlags.to, "to", "", "end date (YYYY-MM-DD, inclusive)")
		spendingCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{spendingBreakdownCmd, spendingTopCmd} {
		c.Flags().StringVar(&spendingFlags.category, "category", spending.CategoryAll,
			"category: all, lobbying, charitable, or political")
	}
	spendingTopCmd.Flags().IntVar(&spendingFlags.limit, "limit", 10, "number of companies to return")
	spendingFilterCmd.Flags().StringVar(&spendingFlags.min, "min", "", "minimum total spending (inclusive)")
	spendingFilterCmd.Flags().StringVar(&spendingFlags.max, "max", "", "maximum total spending (inclusive)")
	rootCmd.AddCommand(spendingCmd)
}
