// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Derive HLA class, sample origin, and disease from record text",
	Long: `Classify applies the keyword rule tables to every record of a snapshot.
Class-specific keywords settle the HLA class; the sample origin is decided
in priority order (cell line, blood, tissue); disease annotations and text
keywords settle the disease and its category. A healthy-control annotation
short-circuits the disease decision.

Fields already confirmed are never replaced, so classify can be rerun at
any point.`,
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
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
	engine, err := classify.New(cfg)
	if err != nil {
		return err
	}
	return writeSnapshotArg(out, engine.Run(snap))
}

func init() {
	classifyCmd.Flags().String("in", "", "snapshot file to read")
	classifyCmd.Flags().String("out", "", "snapshot file to write")

	rootCmd.AddCommand(classifyCmd)
}
