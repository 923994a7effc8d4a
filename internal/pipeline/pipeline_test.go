// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/mxwei/hlameta/internal/normalize"
	"github.com/mxwei/hlameta/internal/reconcile"
	"github.com/mxwei/hlameta/internal/rules"
	"github.com/mxwei/hlameta/internal/store"
	"github.com/mxwei/hlameta/pkg/types"
)

func newPipeline(t *testing.T, st *store.Store) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	p, err := New(rules.Default(), st, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p, &buf
}

func testInputs() []normalize.Raw {
	return []normalize.Raw{
		{
			ID:     "PXD000001",
			Source: types.SourcePRIDE,
			Data: []byte(`{
				"title": "HLA class I immunopeptidome of melanoma cell lines",
				"projectDescription": "Peptides eluted from cultured melanoma cells.",
				"diseases": [{"name": "Melanoma"}],
				"organisms": [{"name": "Homo sapiens"}],
				"instruments": [{"name": "Q Exactive"}],
				"publicationDate": "2019-04-02"
			}`),
		},
		{
			ID:     "PXD000002",
			Source: types.SourcePRIDE,
			Data:   []byte(`{"title": "Immunopeptidome of BCG-infected macrophages", "projectDescription": "x"}`),
		},
		{
			ID:     "MSV000003",
			Source: types.SourceMassIVE,
			Data:   []byte("not parseable at all"),
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	p, buf := newPipeline(t, nil)
	snap, result, err := p.Run(context.Background(), testInputs(), nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(snap.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(snap.Records))
	}

	melanoma := snap.Find("PXD000001")
	if got := melanoma.Derived(types.FieldDisease); got.Value != "Melanoma" || got.Confidence != types.ConfidenceConfirmed {
		t.Errorf("melanoma disease = %q (%s)", got.Value, got.Confidence)
	}
	if melanoma.Quality.Score == 0 {
		t.Error("melanoma record not scored")
	}

	bcg := snap.Find("PXD000002")
	if got := bcg.Derived(types.FieldDisease); got.Value != "tuberculosis" || got.Confidence != types.ConfidenceInferred {
		t.Errorf("bcg disease = %q (%s), want inferred tuberculosis", got.Value, got.Confidence)
	}

	broken := snap.Find("MSV000003")
	if !broken.Flags.Has(types.FlagParseError) {
		t.Error("unparseable payload lost its parse_error flag")
	}
	if !broken.Flags.Has(types.FlagNeedsManualReview) {
		t.Error("unsettled record not flagged for review")
	}

	if result.Inference.Examined == 0 {
		t.Error("inference stats empty")
	}
	out := buf.String()
	for _, stage := range []string{"normalize:", "classify:", "infer:", "score:"} {
		if !strings.Contains(out, stage) {
			t.Errorf("progress output missing %q:\n%s", stage, out)
		}
	}
}

func TestRunWithSecondaryAndStore(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	p, _ := newPipeline(t, st)
	secondary := []reconcile.SecondaryRecord{{
		ID:         "MSV000003",
		Fields:     map[types.Field]string{types.FieldDisease: "melanoma"},
		HLAAlleles: []string{"HLA-A*02:01"},
	}}

	ctx := context.Background()
	snap, result, err := p.Run(ctx, testInputs(), secondary)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	filled := snap.Find("MSV000003")
	if got := filled.Derived(types.FieldDisease); got.Value != "melanoma" || got.Confidence != types.ConfidenceInferred {
		t.Errorf("secondary fill = %q (%s)", got.Value, got.Confidence)
	}
	if result.Reconcile.Matched != 1 {
		t.Errorf("reconcile report = %+v", result.Reconcile)
	}
	if result.RunID == "" {
		t.Fatal("run id missing with store attached")
	}

	stages, err := st.StageHistory(ctx, result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 5 {
		t.Fatalf("stored stages = %d, want all five", len(stages))
	}
	stored, err := st.LoadStage(ctx, result.RunID, StageScore)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.SameIDs(snap) {
		t.Error("stored final snapshot differs from returned one")
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	p, _ := newPipeline(t, nil)
	ctx := context.Background()

	first, _, err := p.Run(ctx, testInputs(), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := p.Enrich(ctx, first, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("re-running enrichment changed a settled snapshot")
	}
}

func TestVerifyTransition(t *testing.T) {
	base := types.Snapshot{Records: []types.DatasetRecord{types.NewRecord("PXD000001", types.SourcePRIDE)}}

	t.Run("id set change", func(t *testing.T) {
		if err := VerifyTransition(base, types.Snapshot{}); err == nil {
			t.Error("expected error for dropped record")
		}
	})

	t.Run("downgrade", func(t *testing.T) {
		before := base.Clone()
		before.Records[0].SetDerived(types.FieldDisease, "melanoma", types.ConfidenceConfirmed, "classify", "x")
		after := base.Clone()
		after.Records[0].SetDerived(types.FieldDisease, "melanoma", types.ConfidenceInferred, "infer", "x")
		if err := VerifyTransition(before, after); err == nil {
			t.Error("expected error for confidence downgrade")
		}
	})

	t.Run("confirmed value replaced", func(t *testing.T) {
		before := base.Clone()
		before.Records[0].SetDerived(types.FieldDisease, "melanoma", types.ConfidenceConfirmed, "classify", "x")
		after := base.Clone()
		after.Records[0].SetDerived(types.FieldDisease, "lung cancer", types.ConfidenceConfirmed, "classify", "x")
		if err := VerifyTransition(before, after); err == nil {
			t.Error("expected error for replaced confirmed value")
		}
	})

	t.Run("legal upgrade", func(t *testing.T) {
		after := base.Clone()
		after.Records[0].SetDerived(types.FieldDisease, "melanoma", types.ConfidenceInferred, "infer", "x")
		if err := VerifyTransition(base, after); err != nil {
			t.Errorf("VerifyTransition() error: %v", err)
		}
	})
}

func TestRunHonorsContextCancellation(t *testing.T) {
	p, _ := newPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Run(ctx, testInputs(), nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
