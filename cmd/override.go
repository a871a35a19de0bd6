package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadenrich/internal/model"
)

var (
	overrideRunID string
	overrideRow   int
	overrideClear bool
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Include a niche-rejected lead anyway, or clear that decision",
	Long:  "Marks a row of a stored run as include-anyway so the next qualify pass includes it despite a negative niche judgment. --clear reverts the row to the default skip state. Both directions are idempotent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, overrideRunID)
		if err != nil {
			return eris.Wrapf(err, "get run %s", overrideRunID)
		}

		if overrideClear {
			if err := st.ClearOverride(ctx, run.ID, overrideRow); err != nil {
				return err
			}
			zap.L().Info("override cleared",
				zap.String("run_id", run.ID),
				zap.Int("row", overrideRow),
			)
			fmt.Printf("Row %d of run %s reverted to skip\n", overrideRow, run.ID)
			return nil
		}

		if err := st.SetOverride(ctx, run.ID, overrideRow, model.OverrideInclude); err != nil {
			return err
		}
		zap.L().Info("override set",
			zap.String("run_id", run.ID),
			zap.Int("row", overrideRow),
		)
		fmt.Printf("Row %d of run %s marked include-anyway\n", overrideRow, run.ID)
		return nil
	},
}

func init() {
	overrideCmd.Flags().StringVar(&overrideRunID, "run", "", "run ID (required)")
	overrideCmd.Flags().IntVar(&overrideRow, "row", -1, "row index within the run (required)")
	overrideCmd.Flags().BoolVar(&overrideClear, "clear", false, "revert the row to the default skip state")
	_ = overrideCmd.MarkFlagRequired("run")
	_ = overrideCmd.MarkFlagRequired("row")
	rootCmd.AddCommand(overrideCmd)
}
