package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadenrich/internal/export"
	"github.com/sells-group/leadenrich/internal/qualify"
)

var (
	qualifyRunID     string
	qualifyThreshold int
	qualifyOutput    string
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Re-derive the qualified set for a stored run",
	Long:  "Recomputes qualification for a completed run using its stored records, the current overrides, and the given threshold. No re-crawl, no re-classification.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, qualifyRunID)
		if err != nil {
			return eris.Wrapf(err, "get run %s", qualifyRunID)
		}

		threshold := run.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold = qualifyThreshold
		}

		leads, records, err := st.GetResults(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "get results")
		}
		overrides, err := st.GetOverrides(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "get overrides")
		}

		ranked := qualify.Qualified(leads, records, overrides, threshold)

		output := qualifyOutput
		if output == "" {
			output = fmt.Sprintf("qualified_%s.xlsx", run.ID)
		}
		if err := export.WriteQualified(output, run.Header, ranked); err != nil {
			return err
		}

		zap.L().Info("qualified set derived",
			zap.String("run_id", run.ID),
			zap.Int("threshold", threshold),
			zap.Int("overrides", len(overrides)),
			zap.Int("qualified", len(ranked)),
			zap.String("output", output),
		)

		fmt.Printf("Run %s: %d of %d leads qualified at threshold %d\n", run.ID, len(ranked), len(records), threshold)
		for _, r := range ranked {
			fmt.Printf("  %3d  %s\n", r.Record.ScoreValue(), r.Lead.Name)
		}
		fmt.Printf("Written to %s\n", output)
		return nil
	},
}

func init() {
	qualifyCmd.Flags().StringVar(&qualifyRunID, "run", "", "run ID (required)")
	qualifyCmd.Flags().IntVar(&qualifyThreshold, "threshold", 60, "minimum score for qualification (default: the run's threshold)")
	qualifyCmd.Flags().StringVar(&qualifyOutput, "output", "", "qualified workbook path (default: qualified_<run>.xlsx)")
	_ = qualifyCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(qualifyCmd)
}
