// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"testing"

	"github.com/mxwei/hlameta/internal/rules"
	"github.com/mxwei/hlameta/pkg/types"
)

func newScorer(t *testing.T, cfg types.QualityRules) *Scorer {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

// fullRecord has every default core field present plus both bonuses.
func fullRecord() types.DatasetRecord {
	rec := types.NewRecord("PXD000001", types.SourcePRIDE)
	rec.Text.Title = "t"
	rec.Text.Description = "d"
	rec.Structured.Diseases = []string{"melanoma"}
	rec.Structured.Tissues = []string{"skin"}
	rec.Structured.Organisms = []string{"Homo sapiens"}
	rec.Structured.Instruments = []string{"Q Exactive"}
	rec.Structured.PublicationDate = "2020-01-01"
	rec.Structured.PubMedIDs = []string{"12345"}
	rec.Flags.Add(types.FlagSampleTable)
	return rec
}

func TestScoreFullRecord(t *testing.T) {
	s := newScorer(t, rules.Default().Quality)
	rec := fullRecord()
	q := s.Score(&rec)

	if q.Score != 10 {
		t.Errorf("score = %d, want 7 core + 2 table + 1 publication", q.Score)
	}
	if q.Tier != types.TierHigh {
		t.Errorf("tier = %q, want High", q.Tier)
	}
}

func TestScoreEmptyRecord(t *testing.T) {
	s := newScorer(t, rules.Default().Quality)
	rec := types.NewRecord("MSV000001", types.SourceMassIVE)
	q := s.Score(&rec)

	if q.Score != 0 || q.Tier != types.TierLow {
		t.Errorf("quality = %+v, want score 0, Low", q)
	}
}

func TestScoreCountsDerivedDisease(t *testing.T) {
	s := newScorer(t, rules.Default().Quality)
	rec := types.NewRecord("PXD000002", types.SourcePRIDE)
	rec.SetDerived(types.FieldDisease, "melanoma", types.ConfidenceInferred, "infer", "title-pattern")
	q := s.Score(&rec)

	if q.Score != 1 {
		t.Errorf("score = %d, want inferred disease to count", q.Score)
	}
}

func TestTierThresholdsComeFromConfig(t *testing.T) {
	cfg := rules.Default().Quality
	cfg.HighThreshold = 9
	cfg.MediumThreshold = 5
	s := newScorer(t, cfg)

	// Drop both bonuses and one core field: 6 core points remain.
	rec := fullRecord()
	rec.Structured.PubMedIDs = nil
	rec.Flags = nil
	rec.Structured.PublicationDate = ""

	q := s.Score(&rec)
	if q.Score != 6 {
		t.Fatalf("score = %d, want 6", q.Score)
	}
	if q.Tier != types.TierMedium {
		t.Errorf("tier = %q, want Medium under raised high threshold", q.Tier)
	}

	// The same record under the default thresholds stays Medium too,
	// but an untouched full record flips between High and Medium.
	full := fullRecord()
	if got := s.Score(&full); got.Score != 10 || got.Tier != types.TierHigh {
		t.Errorf("full record = %+v, want 10/High", got)
	}
	cfg.HighThreshold = 11
	s2 := newScorer(t, cfg)
	if got := s2.Score(&full); got.Tier != types.TierMedium {
		t.Errorf("tier = %q, want Medium once high threshold exceeds the score", got.Tier)
	}
}

func TestRunFlagsUnsettledRecords(t *testing.T) {
	s := newScorer(t, rules.Default().Quality)
	settled := fullRecord()
	for _, f := range types.DerivedFieldOrder {
		settled.SetDerived(f, "x", types.ConfidenceConfirmed, "classify", "test")
	}
	open := types.NewRecord("PXD000003", types.SourcePRIDE)

	out := s.Run(types.Snapshot{Records: []types.DatasetRecord{settled, open}})

	if out.Records[0].Flags.Has(types.FlagNeedsManualReview) {
		t.Error("fully settled record flagged for review")
	}
	if !out.Records[1].Flags.Has(types.FlagNeedsManualReview) {
		t.Error("unsettled record not flagged for review")
	}
	if out.Records[1].Quality.Tier != types.TierLow {
		t.Errorf("tier = %q, want Low", out.Records[1].Quality.Tier)
	}
}

func TestNewRejectsUnknownField(t *testing.T) {
	cfg := rules.Default().Quality
	cfg.CoreFields = append(cfg.CoreFields, "bogus")
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown core field")
	}
}
