// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a snapshot as a flat CSV table or YAML",
	Long: `Export converts a snapshot into a flat table for spreadsheets and ad hoc
analysis, one row per dataset with derived fields paired with their
confidence tags, or into YAML for hand inspection. The format follows
the --out extension.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return fmt.Errorf("--out is required")
	}

	snap, err := loadSnapshotArg(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating export file %s: %w", out, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".csv":
		err = snapshot.ExportCSV(f, snap)
	case ".yaml", ".yml":
		err = snapshot.ExportYAML(f, snap)
	default:
		return fmt.Errorf("unsupported export extension %q", ext)
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported %d records to %s\n", len(snap.Records), out)
	return nil
}

func init() {
	exportCmd.Flags().String("in", "", "snapshot file to export")
	exportCmd.Flags().String("out", "", "export file (.csv, .yaml)")

	rootCmd.AddCommand(exportCmd)
}
