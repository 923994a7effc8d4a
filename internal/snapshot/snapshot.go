// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot reads and writes the between-stage state files.
// Snapshots are JSON on disk and always replaced atomically: the new
// state is written beside the old one and renamed over it, so a
// crashed stage leaves the previous snapshot intact. See
// docs/ARCHITECTURE § Snapshots.
package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/mxwei/hlameta/pkg/types"
)

// Write stores a snapshot at path, replacing any previous file only
// after the new content is fully on disk.
func Write(path string, snap types.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot %s: %w", path, err)
	}
	return nil
}

// Read loads a snapshot from path.
func Read(path string) (types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}

// csvHeader is the flat column layout of the delimited export.
var csvHeader = []string{
	"id", "source", "title",
	"hla_class", "hla_class_confidence",
	"sample_origin", "sample_origin_confidence",
	"disease", "disease_confidence",
	"disease_category", "disease_category_confidence",
	"organisms", "tissues", "diseases_annotated", "hla_alleles",
	"sample_count", "quality_score", "quality_tier", "flags",
}

// ExportCSV writes the snapshot as a flat table, one row per dataset,
// with derived fields paired with their confidence tags. List columns
// are joined with "; ".
func ExportCSV(w io.Writer, snap types.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range snap.Records {
		row := []string{rec.ID, string(rec.Source), rec.Text.Title}
		for _, f := range types.DerivedFieldOrder {
			v := rec.Derived(f)
			row = append(row, v.Value, string(v.Confidence))
		}
		row = append(row,
			strings.Join(rec.Structured.Organisms, "; "),
			strings.Join(rec.Structured.Tissues, "; "),
			strings.Join(rec.Structured.Diseases, "; "),
			strings.Join(rec.Structured.HLAAlleles, "; "),
			strconv.Itoa(rec.Structured.SampleCount),
			strconv.Itoa(rec.Quality.Score),
			string(rec.Quality.Tier),
			strings.Join(rec.Flags.Strings(), "; "),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportYAML writes the snapshot as YAML for hand inspection.
func ExportYAML(w io.Writer, snap types.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot yaml: %w", err)
	}
	return enc.Close()
}
