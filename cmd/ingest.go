package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civicspend/disclosure-cli/internal/model"
	"github.com/civicspend/disclosure-cli/internal/reconcile"
	"github.com/civicspend/disclosure-cli/internal/resilience"
	"github.com/civicspend/disclosure-cli/internal/source"
)

var ingestFlags struct {
	year     int
	quarter  int
	sources  []string
	selector string
	parallel bool
}

// ingestReport is the run summary printed after an ingestion.
type ingestReport struct {
	RunID     string                        `json:"run_id"`
	Year      int                           `json:"year"`
	Sources   []string                      `json:"sources"`
	Fetched   map[string]int                `json:"fetched_records"`
	Persisted reconcile.Result              `json:"persisted"`
	Duration  string                        `json:"duration"`
	Calls     map[string]resilience.OpStats `json:"calls"`
	Breakers  map[string]bool               `json:"circuit_breakers_open"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch disclosures and persist them",
	Long: `Fetch disclosure records from the selected sources, resolve each record's
organization to a canonical company, and persist everything to the store.

By default all four sources run for the given year. Use --sources to restrict
the run, --selector to narrow a source to one upstream entity (committee ID,
foundation EIN, or CIK), and --parallel to fetch sources concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := uuid.NewString()
		started := time.Now()
		log := zap.L().With(zap.String("command", "ingest"), zap.String("run_id", runID))

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest: open store")
		}
		defer func() { _ = st.Close() }()

		exec := newExecutor()
		registry := source.NewRegistry(cfg, source.Deps{HTTP: newHTTPClient(), Exec: exec})
		selected, err := registry.Select(ingestFlags.sources)
		if err != nil {
			return err
		}

		opts := source.FetchOptions{
			Year:     ingestFlags.year,
			Quarter:  ingestFlags.quarter,
			Selector: ingestFlags.selector,
		}
		log.Info("starting ingestion",
			zap.Int("year", opts.Year),
			zap.Int("sources", len(selected)),
			zap.Bool("parallel", ingestFlags.parallel),
		)

		batch := &model.Batch{}
		fetched := make(map[string]int)
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		if !ingestFlags.parallel {
			g.SetLimit(1)
		}
		for _, src := range selected {
			src := src
			g.Go(func() error {
				b, err := src.Fetch(gctx, opts)
				if err != nil {
					return eris.Wrapf(err, "ingest: fetch %s", src.Name())
				}
				mu.Lock()
				defer mu.Unlock()
				batch.Merge(b)
				fetched[src.Name()] = b.Len()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		result, err := reconcile.New(st).Persist(ctx, batch)
		if err != nil {
			return eris.Wrap(err, "ingest: persist")
		}

		log.Info("ingestion complete",
			zap.Int("fetched", batch.Len()),
			zap.Int("persisted", result.Total()),
			zap.Int("skipped", result.Skipped),
			zap.Duration("duration", time.Since(started)),
		)

		names := make([]string, 0, len(selected))
		for _, src := range selected {
			names = append(names, src.Name())
		}
		return printJSON(ingestReport{
			RunID:     runID,
			Year:      opts.Year,
			Sources:   names,
			Fetched:   fetched,
			Persisted: result,
			Duration:  time.Since(started).Round(time.Millisecond).String(),
			Calls:     exec.Counter().Snapshot(),
			Breakers:  exec.Breakers().States(),
		})
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestFlags.year, "year", time.Now().Year()-1, "filing/transaction year to ingest")
	ingestCmd.Flags().IntVar(&ingestFlags.quarter, "quarter", 0, "restrict lobbying to one quarter (1-4)")
	ingestCmd.Flags().StringSliceVar(&ingestFlags.sources, "sources", nil, "sources to run (default all)")
	ingestCmd.Flags().StringVar(&ingestFlags.selector, "selector", "", "single committee ID, foundation EIN, or CIK")
	ingestCmd.Flags().BoolVar(&ingestFlags.parallel, "parallel", false, "fetch sources concurrently")
	rootCmd.AddCommand(ingestCmd)
}
