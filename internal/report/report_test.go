// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mxwei/hlameta/pkg/types"
)

func buildSnapshot() types.Snapshot {
	a := types.NewRecord("PXD000001", types.SourcePRIDE)
	a.SetDerived(types.FieldHLAClass, "HLA-I", types.ConfidenceConfirmed, "classify", "class-keywords")
	a.SetDerived(types.FieldDisease, "melanoma", types.ConfidenceInferred, "infer", "title-pattern")
	a.SetDerived(types.FieldDiseaseCategory, "cancer", types.ConfidenceInferred, "infer", "title-pattern")
	a.Quality = types.Quality{Score: 8, Tier: types.TierHigh}

	b := types.NewRecord("MSV000001", types.SourceMassIVE)
	b.SetDerived(types.FieldHLAClass, "HLA", types.ConfidenceNeedsReview, "classify", "general-keyword")
	b.Quality = types.Quality{Score: 2, Tier: types.TierLow}
	b.Flags.Add(types.FlagNeedsManualReview)

	return types.Snapshot{Records: []types.DatasetRecord{a, b}}
}

func TestBuildAggregates(t *testing.T) {
	s := Build(buildSnapshot())

	if s.Total != 2 {
		t.Fatalf("total = %d, want 2", s.Total)
	}
	if s.BySource["pride"] != 1 || s.BySource["massive"] != 1 {
		t.Errorf("by source = %v", s.BySource)
	}

	hla := s.Coverage[types.FieldHLAClass]
	if hla.Confirmed != 1 || hla.NeedsReview != 1 || hla.Resolved() != 1 {
		t.Errorf("hla_class coverage = %+v", hla)
	}
	origin := s.Coverage[types.FieldSampleOrigin]
	if origin.Unknown != 2 {
		t.Errorf("sample_origin coverage = %+v, want both unknown", origin)
	}

	if s.ByTier["High"] != 1 || s.ByTier["Low"] != 1 {
		t.Errorf("by tier = %v", s.ByTier)
	}
	if s.ByCategory["cancer"] != 1 {
		t.Errorf("by category = %v", s.ByCategory)
	}
	if s.ByFlag["needs_manual_review"] != 1 {
		t.Errorf("by flag = %v", s.ByFlag)
	}
	// The umbrella value is parked at needs_review and must not count
	// as a resolved class.
	if _, ok := s.ByClass["HLA"]; ok {
		t.Errorf("by class = %v, needs_review value counted", s.ByClass)
	}
}

func TestRenderMentionsEveryField(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Build(buildSnapshot()))
	out := buf.String()

	for _, want := range []string{"datasets: 2", "hla_class", "sample_origin", "disease_category", "pride", "High"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q", want)
		}
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, Build(buildSnapshot())); err != nil {
		t.Fatalf("WriteYAML() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "total: 2") || !strings.Contains(out, "by_source") {
		t.Errorf("yaml output unexpected:\n%s", out)
	}
}
