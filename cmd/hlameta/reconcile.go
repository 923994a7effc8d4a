// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge a secondary authority's annotations into the snapshot",
	Long: `Reconcile compares each record against the secondary authority's entry
for the same dataset identifier. Agreement is counted, gaps are filled at
inferred confidence, and a disagreement with an already resolved value
keeps the primary value and flags the record for curation. Typed HLA
alleles from the secondary source settle the HLA class when the primary
record left it open.`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadRules()
	if err != nil {
		return err
	}
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	secondaryPath, _ := cmd.Flags().GetString("secondary")
	if secondaryPath == "" {
		return fmt.Errorf("--secondary is required")
	}

	snap, err := loadSnapshotArg(in)
	if err != nil {
		return err
	}
	secondary, err := reconcile.LoadSecondary(secondaryPath)
	if err != nil {
		return err
	}
	engine, err := reconcile.New(cfg)
	if err != nil {
		return err
	}

	next, report := engine.Run(snap, secondary)
	fmt.Println(report.Summary())
	for _, c := range report.ConflictDetails {
		fmt.Printf("conflict %s %s: kept %q, secondary says %q\n", c.ID, c.Field, c.Primary, c.Secondary)
	}

	return writeSnapshotArg(out, next)
}

func init() {
	reconcileCmd.Flags().String("in", "", "snapshot file to read")
	reconcileCmd.Flags().String("out", "", "snapshot file to write")
	reconcileCmd.Flags().String("secondary", "", "secondary authority records (YAML or JSON)")

	rootCmd.AddCommand(reconcileCmd)
}
