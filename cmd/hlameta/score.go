// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/quality"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score metadata completeness and assign quality tiers",
	Long: `Score counts the configured core fields present on each record, adds the
sample table and publication bonuses, and assigns the High, Medium, or Low
tier from the configured thresholds. Records with a derived field still
unknown or parked at needs_review are flagged for manual review.`,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadRules()
	if err != nil {
		return err
	}
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")

	snap, err := loadSnapshotArg(in)
	if err != nil {
		return err
	}
	scorer, err := quality.New(cfg.Quality)
	if err != nil {
		return err
	}
	return writeSnapshotArg(out, scorer.Run(snap))
}

func init() {
	scoreCmd.Flags().String("in", "", "snapshot file to read")
	scoreCmd.Flags().String("out", "", "snapshot file to write")

	rootCmd.AddCommand(scoreCmd)
}
