// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package infer

import (
	"reflect"
	"testing"

	"github.com/mxwei/hlameta/internal/rules"
	"github.com/mxwei/hlameta/pkg/types"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(rules.Default())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func record(title, desc string) types.DatasetRecord {
	rec := types.NewRecord("PXD000010", types.SourcePRIDE)
	rec.Text.Title = title
	rec.Text.Description = desc
	return rec
}

func wantDerived(t *testing.T, rec *types.DatasetRecord, f types.Field, value string, conf types.Confidence) {
	t.Helper()
	got := rec.Derived(f)
	if got.Value != value || got.Confidence != conf {
		t.Errorf("%s = %q (%s), want %q (%s)", f, got.Value, got.Confidence, value, conf)
	}
}

func TestInferFromTitlePattern(t *testing.T) {
	e := newEngine(t)
	rec := record("HLA-I ligands of NSCLC tumor biopsies", "")
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "lung cancer", types.ConfidenceInferred)
	wantDerived(t, &rec, types.FieldDiseaseCategory, "cancer", types.ConfidenceInferred)
	if stats.FromTitle != 1 {
		t.Errorf("stats.FromTitle = %d, want 1", stats.FromTitle)
	}
}

func TestInferBCGYieldsTuberculosis(t *testing.T) {
	e := newEngine(t)
	rec := record("Immunopeptidome of BCG-infected macrophages", "")
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "tuberculosis", types.ConfidenceInferred)
	wantDerived(t, &rec, types.FieldDiseaseCategory, "infectious", types.ConfidenceInferred)
}

func TestInferTitleBeatsDescription(t *testing.T) {
	e := newEngine(t)
	rec := record(
		"Melanoma immunopeptidome atlas",
		"Compared against influenza infection models.",
	)
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "melanoma", types.ConfidenceInferred)
	if stats.FromDescription != 0 {
		t.Errorf("stats.FromDescription = %d, want 0", stats.FromDescription)
	}
}

func TestInferFallsThroughToTissue(t *testing.T) {
	e := newEngine(t)
	rec := record("Peptide dataset 42", "Mass spectra of eluted peptides.")
	rec.Structured.Tissues = []string{"glioblastoma tissue"}
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "glioblastoma", types.ConfidenceInferred)
	if stats.FromTissue != 1 {
		t.Errorf("stats.FromTissue = %d, want 1", stats.FromTissue)
	}
}

func TestInferHealthyBeforeDiseasePatterns(t *testing.T) {
	e := newEngine(t)
	rec := record("Immunopeptidome of healthy donor tissue, melanoma comparison cohort", "")
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "healthy_control", types.ConfidenceInferred)
	if stats.Healthy != 1 {
		t.Errorf("stats.Healthy = %d, want 1", stats.Healthy)
	}
}

func TestInferMethodStudy(t *testing.T) {
	e := newEngine(t)
	rec := record("A computational pipeline for spectral library prediction", "")
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, MethodDisease, types.ConfidenceInferred)
	wantDerived(t, &rec, types.FieldDiseaseCategory, MethodCategory, types.ConfidenceInferred)
}

func TestSingleMethodMatchIsNotEnough(t *testing.T) {
	e := newEngine(t)
	rec := record("A pipeline was used for peptide identification", "")
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "", types.ConfidenceUnknown)
	if stats.Unresolved != 1 {
		t.Errorf("stats.Unresolved = %d, want 1", stats.Unresolved)
	}
}

func TestWordBoundaryMatching(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"flu abbreviation", "Peptides from flu patients", "influenza"},
		{"fluorescence is not flu", "Fluorescence assisted sorting of cells", ""},
		{"TB abbreviation", "Cohort of TB patients", "tuberculosis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(tt.title, "")
			var stats Stats
			e.Infer(&rec, &stats)
			got := rec.Derived(types.FieldDisease)
			if got.Value != tt.want {
				t.Errorf("disease = %q, want %q", got.Value, tt.want)
			}
		})
	}
}

func TestInferSkipsSettledRecords(t *testing.T) {
	e := newEngine(t)
	rec := record("melanoma dataset", "")
	rec.SetDerived(types.FieldDisease, "lung cancer", types.ConfidenceConfirmed, "classify", "structured-disease")
	var stats Stats
	e.Infer(&rec, &stats)

	wantDerived(t, &rec, types.FieldDisease, "lung cancer", types.ConfidenceConfirmed)
	if stats.Examined != 0 {
		t.Errorf("stats.Examined = %d, want settled record skipped", stats.Examined)
	}
}

func TestRunIsIdempotentAndPreservesIDs(t *testing.T) {
	e := newEngine(t)
	snap := types.Snapshot{Records: []types.DatasetRecord{
		record("NSCLC cohort", ""),
		record("no signal here", ""),
	}}
	snap.Records[1].ID = "PXD000011"

	once, stats := e.Run(snap)
	if !snap.SameIDs(once) {
		t.Fatal("inference changed the identifier set")
	}
	if stats.Examined != 2 || stats.Resolved() != 1 {
		t.Errorf("stats = %+v, want 2 examined, 1 resolved", stats)
	}

	twice, _ := e.Run(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("second run changed the snapshot")
	}
}
