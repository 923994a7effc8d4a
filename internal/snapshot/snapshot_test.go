// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snapshot

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mxwei/hlameta/pkg/types"
)

func sampleSnapshot() types.Snapshot {
	rec := types.NewRecord("PXD000001", types.SourcePRIDE)
	rec.Text.Title = "Melanoma immunopeptidome"
	rec.Structured.Diseases = []string{"melanoma"}
	rec.Structured.HLAAlleles = []string{"HLA-A*02:01"}
	rec.SetDerived(types.FieldHLAClass, "HLA-I", types.ConfidenceConfirmed, "classify", "allele-typing")
	rec.Quality = types.Quality{Score: 6, Tier: types.TierMedium}
	rec.Flags.Add(types.FlagSampleTable)
	return types.Snapshot{Records: []types.DatasetRecord{rec}}
}

func TestWriteReadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "normalize.json")
	snap := sampleSnapshot()

	if err := Write(path, snap); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("roundtrip mismatch:\ngot  %+v\nwant %+v", got, snap)
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := Write(path, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	second := sampleSnapshot()
	second.Records[0].Quality.Score = 9
	if err := Write(path, second); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Records[0].Quality.Score != 9 {
		t.Errorf("score = %d, want replacement visible", got.Records[0].Quality.Score)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want temp files cleaned up", len(entries))
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("ExportCSV() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one record", len(rows))
	}
	header, row := rows[0], rows[1]
	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("column %q missing from header %v", name, header)
		return ""
	}
	if col("id") != "PXD000001" || col("hla_class") != "HLA-I" {
		t.Errorf("row = %v", row)
	}
	if col("hla_class_confidence") != "confirmed" || col("disease_confidence") != "unknown" {
		t.Errorf("confidence columns wrong in %v", row)
	}
	if col("flags") != "has_sample_table" {
		t.Errorf("flags = %q", col("flags"))
	}
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportYAML(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("ExportYAML() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "PXD000001") || !strings.Contains(out, "hla_class") {
		t.Errorf("yaml export missing expected content:\n%s", out)
	}
}
