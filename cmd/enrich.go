package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadenrich/internal/config"
	"github.com/sells-group/leadenrich/internal/export"
	"github.com/sells-group/leadenrich/internal/fetcher"
	"github.com/sells-group/leadenrich/internal/model"
	"github.com/sells-group/leadenrich/internal/pipeline"
	"github.com/sells-group/leadenrich/internal/qualify"
)

var (
	enrichInput     string
	enrichOutputDir string
	enrichNiche     string
	enrichStrategy  string
	enrichThreshold int
	enrichSample    int
	enrichURLCol    string
	enrichNameCol   string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the enrichment pipeline over a lead sheet",
	Long:  "Reads a CSV or XLSX lead sheet, crawls each website, classifies and scores every row, persists the run, and writes the result workbooks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		niche := cfg.Niche
		if enrichNiche != "" {
			niche.Description = enrichNiche
		}
		if enrichStrategy != "" {
			niche.Strategy = enrichStrategy
		}
		if cmd.Flags().Changed("threshold") {
			niche.Threshold = enrichThreshold
		}
		if cmd.Flags().Changed("sample") {
			niche.SampleSize = enrichSample
		}

		sheet, err := fetcher.ReadLeadSheet(enrichInput, fetcher.LeadSheetOptions{
			URLColumn:  enrichURLCol,
			NameColumn: enrichNameCol,
			SampleSize: niche.SampleSize,
		})
		if err != nil {
			return eris.Wrap(err, "read lead sheet")
		}

		zap.L().Info("lead sheet loaded",
			zap.String("input", enrichInput),
			zap.Int("leads", len(sheet.Leads)),
			zap.String("strategy", niche.Strategy),
		)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.CreateRun(ctx, niche.Description, niche.Strategy, niche.Threshold, sheet.Header)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning, ""); err != nil {
			return err
		}

		extractor, err := initExtractor(niche)
		if err != nil {
			return err
		}

		runner := &pipeline.Runner{
			Fetcher:   pipeline.NewHTTPFetcher(cfg.Fetch),
			Extractor: extractor,
			OnProgress: func(i, total int, url string) {
				fmt.Printf("Processing %d/%d: %s\n", i, total, url)
			},
		}

		records := runner.Run(ctx, sheet.Leads)

		if err := st.SaveResults(ctx, run.ID, sheet.Leads, records); err != nil {
			_ = st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed, err.Error())
			return eris.Wrap(err, "save results")
		}
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusComplete, ""); err != nil {
			return err
		}

		return writeWorkbooks(run.ID, sheet, records, niche)
	},
}

// writeWorkbooks exports the all-results and qualified workbooks side by
// side. The two files are independent, so they are written concurrently.
func writeWorkbooks(runID string, sheet *model.Sheet, records []model.Record, niche config.NicheConfig) error {
	base := strings.TrimSuffix(filepath.Base(enrichInput), filepath.Ext(enrichInput))
	allPath := filepath.Join(enrichOutputDir, base+"_results.xlsx")
	qualifiedPath := filepath.Join(enrichOutputDir, base+"_qualified.xlsx")

	ranked := qualify.Qualified(sheet.Leads, records, nil, niche.Threshold)

	var g errgroup.Group
	g.Go(func() error {
		return export.WriteAllResults(allPath, sheet.Header, sheet.Leads, records)
	})
	g.Go(func() error {
		return export.WriteQualified(qualifiedPath, sheet.Header, ranked)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	summary := qualify.Summarize(records, niche.Threshold)
	zap.L().Info("run complete",
		zap.String("run_id", runID),
		zap.Int("leads", len(sheet.Leads)),
		zap.Int("qualified", len(ranked)),
		zap.Int("fits", summary.Fits),
		zap.Int("does_not_fit", summary.DoesNotFit),
		zap.Int("unclear", summary.Unclear),
		zap.String("all_results", allPath),
		zap.String("qualified_output", qualifiedPath),
	)

	fmt.Printf("Run %s: %d leads, %d qualified\n", runID, len(sheet.Leads), len(ranked))
	fmt.Printf("  all results: %s\n  qualified:   %s\n", allPath, qualifiedPath)
	return nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "lead sheet path, .csv or .xlsx (required)")
	enrichCmd.Flags().StringVar(&enrichOutputDir, "output-dir", ".", "directory for the result workbooks")
	enrichCmd.Flags().StringVar(&enrichNiche, "niche", "", "niche description (default from config)")
	enrichCmd.Flags().StringVar(&enrichStrategy, "strategy", "", "extraction strategy: llm or heuristic (default from config)")
	enrichCmd.Flags().IntVar(&enrichThreshold, "threshold", 60, "minimum score for qualification")
	enrichCmd.Flags().IntVar(&enrichSample, "sample", 0, "process only the first N leads (0 = config default)")
	enrichCmd.Flags().StringVar(&enrichURLCol, "url-column", "", "input column holding website URLs (default: auto-detect)")
	enrichCmd.Flags().StringVar(&enrichNameCol, "name-column", "", "input column holding company names (default: auto-detect)")
	_ = enrichCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrichCmd)
}
