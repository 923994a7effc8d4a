// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxwei/hlameta/internal/report"
	"github.com/mxwei/hlameta/internal/snapshot"
	"github.com/mxwei/hlameta/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a snapshot or a stored run",
	Long: `Report aggregates a snapshot into coverage tables: records per source,
confidence coverage per derived field, quality tiers, disease categories,
and raised flags. It reads either a snapshot file (--in) or a stage of a
stored run (--run, --stage), defaulting to the latest run's final stage.

With --yaml the summary is written in machine-readable form.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	runID, _ := cmd.Flags().GetString("run")
	stage, _ := cmd.Flags().GetString("stage")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	var snap types.Snapshot
	var err error
	if in != "" {
		snap, err = snapshot.Read(in)
	} else {
		snap, err = loadStoredStage(runID, stage)
	}
	if err != nil {
		return err
	}

	summary := report.Build(snap)
	if asYAML {
		return report.WriteYAML(os.Stdout, summary)
	}
	report.Render(os.Stdout, summary)
	return nil
}

func loadStoredStage(runID, stage string) (types.Snapshot, error) {
	st, err := openStore()
	if err != nil {
		return types.Snapshot{}, err
	}
	defer st.Close()

	ctx := context.Background()
	if runID == "" {
		if runID, err = st.LatestRun(ctx); err != nil {
			return types.Snapshot{}, err
		}
	}
	return st.LoadStage(ctx, runID, stage)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored pipeline runs",
	Long: `Runs lists the runs held in the run store, newest first. With --run the
stage history of one run is shown instead: which stages were stored, in
what order, and with how many records.`,
	RunE: runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if runID != "" {
		stages, err := st.StageHistory(ctx, runID)
		if err != nil {
			return err
		}
		for _, s := range stages {
			fmt.Printf("%d  %-10s  %6d records  %s\n", s.Seq, s.Stage, s.RecordCount, s.WrittenAt)
		}
		return nil
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %d stages\n", r.ID, r.StartedAt, r.Stages)
	}
	return nil
}

func init() {
	reportCmd.Flags().String("in", "", "snapshot file to summarize")
	reportCmd.Flags().String("run", "", "stored run to summarize (default: latest)")
	reportCmd.Flags().String("stage", "score", "stage snapshot to summarize")
	reportCmd.Flags().Bool("yaml", false, "write the summary as YAML")

	runsCmd.Flags().String("run", "", "show the stage history of one run")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runsCmd)
}
