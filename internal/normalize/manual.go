// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/mxwei/hlameta/pkg/types"
)

// decodeManual accepts a record already in canonical form, the shape
// used for manually transcribed datasets. Derived fields, quality, and
// provenance are reset: manual curation supplies observations, and the
// pipeline's own stages decide what to conclude from them.
func (n *Normalizer) decodeManual(id string, source types.SourceRepository, data []byte) (types.DatasetRecord, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return types.DatasetRecord{}, false
	}
	var in types.DatasetRecord
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return types.DatasetRecord{}, false
	}
	if in.Text.Title == "" && in.Text.Description == "" && len(in.Structured.Diseases) == 0 {
		return types.DatasetRecord{}, false
	}

	rec := types.NewRecord(id, source)
	rec.Text = in.Text
	rec.Structured = in.Structured
	rec.Structured.Diseases = cleanDiseaseNames(rec.Structured.Diseases)
	if len(rec.Structured.HLAAlleles) == 0 {
		rec.Structured.HLAAlleles = harvestAlleles(rec.Text.Combined())
	}
	return rec, true
}
