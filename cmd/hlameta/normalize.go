// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/normalize"
	"github.com/mxwei/hlameta/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize raw repository payloads into the initial snapshot",
	Long: `Normalize reads raw payload files from a directory, maps each one onto
the canonical record model, and writes the pipeline's initial snapshot.
Filenames carry the dataset identifier; the identifier prefix selects the
source repository (PXD: PRIDE, MSV: MassIVE, JPST: jPOST, PASS: PeptideAtlas).

Payloads no decoder accepts still produce a record, flagged parse_error, so
the dataset count is never silently reduced.

With --sdrf-dir, per-dataset sample tables are attached after parsing;
tables only fill structured fields the source left empty.`,
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadRules()
	if err != nil {
		return err
	}
	inputDir, _ := cmd.Flags().GetString("input")
	sdrfDir, _ := cmd.Flags().GetString("sdrf-dir")
	out, _ := cmd.Flags().GetString("out")

	inputs, err := readInputs(inputDir)
	if err != nil {
		return err
	}

	n := normalize.New(cfg.Normalize)
	snap := n.Batch(inputs)

	if sdrfDir != "" {
		if err := attachSampleTables(n, &snap, sdrfDir); err != nil {
			return err
		}
	}

	failed := 0
	for _, rec := range snap.Records {
		if rec.Flags.Has(types.FlagParseError) {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("normalize: %d of %d payloads failed to parse\n", failed, len(snap.Records))
	}

	return writeSnapshotArg(out, snap)
}

func init() {
	normalizeCmd.Flags().String("input", "metadata", "directory of raw payload files")
	normalizeCmd.Flags().String("sdrf-dir", "", "directory of per-dataset sample tables")
	normalizeCmd.Flags().String("out", "", "snapshot file to write")

	rootCmd.AddCommand(normalizeCmd)
}
