// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/infer"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Fill unresolved diseases from the pattern library",
	Long: `Infer matches the curated disease pattern library against records whose
disease is still unknown, trying the title first, then the description,
then the tissue annotations. Healthy phrasing and method-study phrasing
are recognized before specific diseases. Everything written carries the
inferred tag and can still be replaced by an authoritative source.`,
	RunE: runInfer,
}

func runInfer(cmd *cobra.Command, args []string) error {
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
	engine, err := infer.New(cfg)
	if err != nil {
		return err
	}
	next, stats := engine.Run(snap)

	fmt.Printf("examined %d records: %d from title, %d from description, %d from tissue\n",
		stats.Examined, stats.FromTitle, stats.FromDescription, stats.FromTissue)
	fmt.Printf("healthy %d, methodological %d, unresolved %d\n",
		stats.Healthy, stats.Methodological, stats.Unresolved)

	return writeSnapshotArg(out, next)
}

func init() {
	inferCmd.Flags().String("in", "", "snapshot file to read")
	inferCmd.Flags().String("out", "", "snapshot file to write")

	rootCmd.AddCommand(inferCmd)
}
