// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/mxwei/hlameta/pkg/types"
)

// classifySample applies the origin priority order: cell line, then
// blood, then tissue. The order is deliberate shadowing. A HeLa
// dataset mentions tissue vocabulary constantly, and a PBMC dataset
// mentions blood draws; checking the most specific category first
// keeps those from landing in the generic buckets.
func (e *Engine) classifySample(rec *types.DatasetRecord, text string) {
	if text != "" {
		if e.trySampleCategory(rec, text) {
			return
		}
	}
	// Nothing in the text, but the source annotated a tissue.
	if len(rec.Structured.Tissues) > 0 {
		origin := "tissue:" + strings.ToLower(rec.Structured.Tissues[0])
		rec.SetDerived(types.FieldSampleOrigin, origin, types.ConfidenceConfirmed, Stage, "structured-tissue")
	}
}

func (e *Engine) trySampleCategory(rec *types.DatasetRecord, text string) bool {
	if name := matchNamed(text, e.cellLines); name != "" {
		rec.SetDerived(types.FieldSampleOrigin, "cell_line:"+name, types.ConfidenceConfirmed, Stage, "cell-line-name")
		return true
	}
	if containsAny(text, e.cfg.Sample.CellLineKeywords) {
		rec.SetDerived(types.FieldSampleOrigin, "cell_line", types.ConfidenceNeedsReview, Stage, "cell-line-keyword")
		return true
	}

	if containsAny(text, e.cfg.Sample.BloodKeywords) {
		if sub := matchNamed(text, e.subtypes); sub != "" {
			rec.SetDerived(types.FieldSampleOrigin, "blood:"+strings.ToLower(sub), types.ConfidenceConfirmed, Stage, "blood-subtype")
		} else {
			rec.SetDerived(types.FieldSampleOrigin, "blood", types.ConfidenceNeedsReview, Stage, "blood-keyword")
		}
		return true
	}

	if containsAny(text, e.cfg.Sample.TissueKeywords) {
		if organ := matchNamed(text, e.organs); organ != "" {
			rec.SetDerived(types.FieldSampleOrigin, "tissue:"+strings.ToLower(organ), types.ConfidenceConfirmed, Stage, "tissue-organ")
		} else {
			rec.SetDerived(types.FieldSampleOrigin, "tissue", types.ConfidenceNeedsReview, Stage, "tissue-keyword")
		}
		return true
	}
	return false
}

// matchNamed returns the canonical name of the first pattern matching
// the text, or the empty string.
func matchNamed(text string, pats []namedPattern) string {
	for _, p := range pats {
		if p.re.MatchString(text) {
			return p.name
		}
	}
	return ""
}
