// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/normalize"
	"github.com/mxwei/hlameta/internal/pipeline"
	"github.com/mxwei/hlameta/internal/reconcile"
	"github.com/mxwei/hlameta/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full enrichment pipeline",
	Long: `Run executes every stage in order: normalize, classify, infer, reconcile
(when a secondary file is given), and score. Each stage's output snapshot
is persisted to the run store before the next stage starts, and the
contracts between stages are verified: no stage may drop a dataset or
lower a confidence tag.

The final snapshot is written to --out.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRules()
	if err != nil {
		return err
	}
	inputDir, _ := cmd.Flags().GetString("input")
	sdrfDir, _ := cmd.Flags().GetString("sdrf-dir")
	secondaryPath, _ := cmd.Flags().GetString("secondary")
	out, _ := cmd.Flags().GetString("out")
	noStore, _ := cmd.Flags().GetBool("no-store")

	inputs, err := readInputs(inputDir)
	if err != nil {
		return err
	}

	var secondary []reconcile.SecondaryRecord
	if secondaryPath != "" {
		if secondary, err = reconcile.LoadSecondary(secondaryPath); err != nil {
			return err
		}
	}

	var st *store.Store
	if !noStore {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	p, err := pipeline.New(cfg, st, os.Stdout)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	n := normalize.New(cfg.Normalize)
	snap := n.Batch(inputs)
	if sdrfDir != "" {
		if err := attachSampleTables(n, &snap, sdrfDir); err != nil {
			return err
		}
	}

	final, result, err := p.Enrich(ctx, snap, secondary)
	if err != nil {
		return err
	}
	if result.RunID != "" {
		fmt.Printf("run %s stored\n", result.RunID)
	}

	return writeSnapshotArg(out, final)
}

func init() {
	runCmd.Flags().String("input", "metadata", "directory of raw payload files")
	runCmd.Flags().String("sdrf-dir", "", "directory of per-dataset sample tables")
	runCmd.Flags().String("secondary", "", "secondary authority records (YAML or JSON)")
	runCmd.Flags().String("out", "enriched.json", "final snapshot file to write")
	runCmd.Flags().Bool("no-store", false, "skip persisting stage snapshots to the run store")

	rootCmd.AddCommand(runCmd)
}
