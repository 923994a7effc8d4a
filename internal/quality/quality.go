// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality scores each record's metadata completeness and
// assigns the tier curators triage by. Scoring reads the record and
// writes only the quality block, so it can run after any stage. See
// docs/ARCHITECTURE § Quality Scorer.
package quality

import (
	"fmt"

	"github.com/mxwei/hlameta/pkg/types"
)

// Stage is the provenance label for this stage.
const Stage = "score"

// fieldPresence maps a core-field name to its presence check. The set
// of names here is what rule validation accepts.
var fieldPresence = map[string]func(*types.DatasetRecord) bool{
	"title":            func(r *types.DatasetRecord) bool { return r.Text.Title != "" },
	"description":      func(r *types.DatasetRecord) bool { return r.Text.Description != "" },
	"keywords":         func(r *types.DatasetRecord) bool { return len(r.Text.Keywords) > 0 },
	"organisms":        func(r *types.DatasetRecord) bool { return len(r.Structured.Organisms) > 0 },
	"tissues":          func(r *types.DatasetRecord) bool { return len(r.Structured.Tissues) > 0 },
	"cell_types":       func(r *types.DatasetRecord) bool { return len(r.Structured.CellTypes) > 0 },
	"diseases":         func(r *types.DatasetRecord) bool { return diseaseKnown(r) },
	"instruments":      func(r *types.DatasetRecord) bool { return len(r.Structured.Instruments) > 0 },
	"modifications":    func(r *types.DatasetRecord) bool { return len(r.Structured.Modifications) > 0 },
	"publication_date": func(r *types.DatasetRecord) bool { return r.Structured.PublicationDate != "" },
	"sample_protocol":  func(r *types.DatasetRecord) bool { return r.Text.SampleProtocol != "" },
}

// diseaseKnown counts the disease core field as present when either
// the source annotated it or a pipeline stage resolved it.
func diseaseKnown(r *types.DatasetRecord) bool {
	return len(r.Structured.Diseases) > 0 || r.Derived(types.FieldDisease).Resolved()
}

// Scorer computes completeness scores from a validated rule set.
type Scorer struct {
	cfg types.QualityRules
}

// New builds a scorer.
func New(cfg types.QualityRules) (*Scorer, error) {
	for _, f := range cfg.CoreFields {
		if _, ok := fieldPresence[f]; !ok {
			return nil, fmt.Errorf("unknown core field %q", f)
		}
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes a record's quality without modifying it.
func (s *Scorer) Score(rec *types.DatasetRecord) types.Quality {
	score := 0
	for _, f := range s.cfg.CoreFields {
		if fieldPresence[f](rec) {
			score++
		}
	}
	if rec.Flags.Has(types.FlagSampleTable) {
		score += s.cfg.SampleTableBonus
	}
	if len(rec.Structured.PubMedIDs) > 0 || len(rec.Structured.DOIs) > 0 {
		score += s.cfg.PublicationBonus
	}

	tier := types.TierLow
	switch {
	case score >= s.cfg.HighThreshold:
		tier = types.TierHigh
	case score >= s.cfg.MediumThreshold:
		tier = types.TierMedium
	}
	return types.Quality{Score: score, Tier: tier}
}

// Run scores every record of a snapshot and raises the manual-review
// flag on records that still carry an unsettled derived field. The
// identifier set is unchanged.
func (s *Scorer) Run(snap types.Snapshot) types.Snapshot {
	out := snap.Clone()
	for i := range out.Records {
		rec := &out.Records[i]
		rec.Quality = s.Score(rec)
		if unsettled(rec) {
			rec.Flags.Add(types.FlagNeedsManualReview)
		}
	}
	return out
}

// unsettled reports whether any derived field is still unknown or
// parked at needs_review.
func unsettled(rec *types.DatasetRecord) bool {
	for _, f := range types.DerivedFieldOrder {
		if !rec.Derived(f).Resolved() {
			return true
		}
	}
	return false
}
