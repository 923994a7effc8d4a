// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/mxwei/hlameta/pkg/types"
)

// Canonical values for healthy-control datasets.
const (
	HealthyDisease  = "healthy_control"
	HealthyCategory = "healthy"
	OtherCategory   = "other"
)

// classifyDisease derives disease and disease_category. The healthy
// short-circuit runs first: a dataset annotated as healthy donors is
// done, no matter what disease vocabulary its description uses while
// discussing context.
func (e *Engine) classifyDisease(rec *types.DatasetRecord, text string) {
	if e.isHealthy(rec.Structured.Diseases) {
		rec.SetDerived(types.FieldDisease, HealthyDisease, types.ConfidenceConfirmed, Stage, "healthy-annotation")
		rec.SetDerived(types.FieldDiseaseCategory, HealthyCategory, types.ConfidenceConfirmed, Stage, "healthy-annotation")
		return
	}

	if len(rec.Structured.Diseases) > 0 {
		disease := strings.Join(rec.Structured.Diseases, e.cfg.Normalize.Separator)
		rec.SetDerived(types.FieldDisease, disease, types.ConfidenceConfirmed, Stage, "structured-disease")
		e.setCategory(rec, disease, types.ConfidenceConfirmed, "structured-disease")
		return
	}

	if text == "" {
		return
	}
	for _, cat := range e.cfg.Disease.Categories {
		if kw := matchKeyword(text, cat.Keywords); kw != "" {
			rec.SetDerived(types.FieldDisease, strings.ToLower(kw), types.ConfidenceConfirmed, Stage, "text-keyword")
			rec.SetDerived(types.FieldDiseaseCategory, cat.Name, types.ConfidenceConfirmed, Stage, "text-keyword")
			return
		}
	}
}

// isHealthy reports whether the disease annotations say the samples
// are from healthy donors.
func (e *Engine) isHealthy(diseases []string) bool {
	for _, d := range diseases {
		if containsAny(d, e.cfg.Disease.HealthyKeywords) {
			return true
		}
	}
	return false
}

// setCategory assigns the first category whose keyword list matches
// the disease value, falling back to the catch-all.
func (e *Engine) setCategory(rec *types.DatasetRecord, disease string, conf types.Confidence, rule string) {
	for _, cat := range e.cfg.Disease.Categories {
		if containsAny(disease, cat.Keywords) {
			rec.SetDerived(types.FieldDiseaseCategory, cat.Name, conf, Stage, rule)
			return
		}
	}
	rec.SetDerived(types.FieldDiseaseCategory, OtherCategory, conf, Stage, rule)
}

// CategoryFor returns the category a disease value falls into, for
// callers outside the classification pass.
func (e *Engine) CategoryFor(disease string) string {
	if strings.EqualFold(disease, HealthyDisease) || containsAny(disease, e.cfg.Disease.HealthyKeywords) {
		return HealthyCategory
	}
	for _, cat := range e.cfg.Disease.Categories {
		if containsAny(disease, cat.Keywords) {
			return cat.Name
		}
	}
	return OtherCategory
}
