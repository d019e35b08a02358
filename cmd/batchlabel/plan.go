package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/batchlabel/internal/batch"
	"github.com/kingrea/batchlabel/internal/labelplan"
)

var planPrep string

var planCmd = &cobra.Command{
	Use:   "plan <quantity-kg>",
	Short: "Show how many labels a quantity needs",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planPrep, "prep", "", "Prep date (YYYY-MM-DD) to also show the use-by date")
}

func runPlan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	plan := labelplan.ComputeLabelPlan(args[0])
	switch {
	case plan.Warning != "":
		return errors.New(plan.Warning)
	case plan.Incomplete():
		return fmt.Errorf("quantity %q is not a number", args[0])
	}
	fmt.Fprintf(out, "%d label(s)\n", plan.LabelCount)

	if planPrep != "" {
		useBy := batch.UseByDisplay(planPrep, cfg.ShelfLifeDays())
		if useBy == "" {
			return fmt.Errorf("prep date %q must be YYYY-MM-DD", planPrep)
		}
		fmt.Fprintf(out, "use by %s\n", useBy)
	}
	return nil
}
