// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mxwei/hlameta/internal/normalize"
	"github.com/mxwei/hlameta/internal/rules"
	"github.com/mxwei/hlameta/internal/snapshot"
	"github.com/mxwei/hlameta/internal/store"
	"github.com/mxwei/hlameta/pkg/types"
)

// loadRules returns the active rule set: the file named by the
// rules_file config key, or the built-in defaults.
func loadRules() (types.RulesConfig, error) {
	path := viper.GetString("rules_file")
	if path == "" {
		return rules.Default(), nil
	}
	return rules.Load(path)
}

// openStore opens the run store under the configured data directory.
func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("data_dir"))
}

// readInputs loads every payload file from a directory. The filename
// stem is the dataset identifier and picks the source repository by
// prefix: metadata/PXD012345.json is a PRIDE record.
func readInputs(dir string) ([]normalize.Raw, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var inputs []normalize.Raw
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading payload %s: %w", entry.Name(), err)
		}
		inputs = append(inputs, normalize.Raw{
			ID:     id,
			Source: types.SourceForID(id),
			Data:   data,
		})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("input directory %s holds no payload files", dir)
	}
	return inputs, nil
}

// attachSampleTables merges per-dataset sample tables from a directory
// into a snapshot. A table file is matched by identifier stem:
// sdrf/PXD012345.tsv attaches to record PXD012345. Missing tables are
// fine; a table for an unknown identifier is reported.
func attachSampleTables(n *normalize.Normalizer, snap *types.Snapshot, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading sample table directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		id = strings.TrimSuffix(id, ".sdrf")
		rec := snap.Find(id)
		if rec == nil {
			fmt.Fprintf(os.Stderr, "warning: sample table %s matches no dataset\n", entry.Name())
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading sample table %s: %w", entry.Name(), err)
		}
		if err := n.AttachSampleTable(rec, data); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	return nil
}

// loadSnapshotArg reads the snapshot named by the --in flag.
func loadSnapshotArg(path string) (types.Snapshot, error) {
	if path == "" {
		return types.Snapshot{}, fmt.Errorf("--in is required")
	}
	return snapshot.Read(path)
}

// writeSnapshotArg stores a snapshot at the --out path and reports it.
func writeSnapshotArg(path string, snap types.Snapshot) error {
	if path == "" {
		return fmt.Errorf("--out is required")
	}
	if err := snapshot.Write(path, snap); err != nil {
		return err
	}
	fmt.Printf("wrote %d records to %s\n", len(snap.Records), path)
	return nil
}
